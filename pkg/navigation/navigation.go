// Package navigation holds the question-number arithmetic behind the quiz
// controls and the view state that is carried in URLs.
package navigation

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// InputError is a user-facing rejection of typed input. It is returned as a
// value for display and never signals a fault.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// Next returns the id after current, wrapping to 1 past the last question.
func Next(current, total int) int {
	if total <= 0 || current >= total || current < 1 {
		return 1
	}
	return current + 1
}

// Random picks an id uniformly in [1, total]. It may return current.
func Random(rng *rand.Rand, total int) int {
	if total <= 0 {
		return 1
	}
	return rng.Intn(total) + 1
}

// GoTo parses typed input into a question id in [1, total].
func GoTo(input string, total int) (int, *InputError) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, &InputError{Message: "Please enter a question number"}
	}
	outOfRange := &InputError{Message: fmt.Sprintf("Question number must be between 1 and %d", total)}
	id, err := strconv.Atoi(trimmed)
	if errors.Is(err, strconv.ErrRange) {
		return 0, outOfRange
	}
	if err != nil {
		return 0, &InputError{Message: "Please enter a valid number"}
	}
	if id < 1 || id > total {
		return 0, outOfRange
	}
	return id, nil
}
