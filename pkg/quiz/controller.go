// Package quiz drives one player's pass through the question set. It is
// shared by the web server and the terminal client.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"meal-quiz/pkg/navigation"
	"meal-quiz/pkg/questions"
	"meal-quiz/pkg/session"
)

// ErrQuestionNotFound is returned when an action needs the current question
// and the view points at an id that does not exist.
var ErrQuestionNotFound = errors.New("question not found")

// QuestionFetcher is the read side of the question data.
type QuestionFetcher interface {
	GetByID(ctx context.Context, id int) (questions.Question, bool, error)
	GetTotalCount(ctx context.Context) (int, error)
}

// Progress records what the player has done so far.
type Progress interface {
	State(ctx context.Context) (session.State, error)
	RecordCorrect(ctx context.Context, id int) (session.State, error)
	RecordWrong(ctx context.Context, id int) (session.State, error)
	ResetGame(ctx context.Context) (session.State, error)
	FullReset(ctx context.Context) (session.State, error)
}

// Screen is everything needed to render the current view.
type Screen struct {
	View     navigation.View
	Question questions.Question
	// Found is false when the view points at an unknown id.
	Found   bool
	Total   int
	Session session.State
}

// Outcome describes the reaction to an answer.
type Outcome struct {
	QuestionID    int
	Chosen        string
	Correct       bool
	CorrectAnswer string
	Session       session.State
	// View is where the player lands after answering.
	View navigation.View
}

type Option func(*Controller)

// WithRand sets the source used by Random.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) {
		c.rng = rng
	}
}

// WithView sets the starting view. The default is question 1, answer hidden.
func WithView(view navigation.View) Option {
	return func(c *Controller) {
		c.view = view
	}
}

type Controller struct {
	questions QuestionFetcher
	progress  Progress

	mu   sync.Mutex
	rng  *rand.Rand
	view navigation.View
}

func NewController(fetcher QuestionFetcher, progress Progress, opts ...Option) *Controller {
	c := &Controller{
		questions: fetcher,
		progress:  progress,
		view:      navigation.At(1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// View returns the current view.
func (c *Controller) View() navigation.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Current loads the question under the current view along with progress.
func (c *Controller) Current(ctx context.Context) (Screen, error) {
	view := c.View()
	question, found, err := c.questions.GetByID(ctx, view.QuestionID)
	if err != nil {
		return Screen{}, fmt.Errorf("load question %d: %w", view.QuestionID, err)
	}
	total, err := c.questions.GetTotalCount(ctx)
	if err != nil {
		return Screen{}, fmt.Errorf("count questions: %w", err)
	}
	state, err := c.progress.State(ctx)
	if err != nil {
		return Screen{}, err
	}
	return Screen{
		View:     view,
		Question: question,
		Found:    found,
		Total:    total,
		Session:  state,
	}, nil
}

// Next moves to the following question, wrapping after the last.
func (c *Controller) Next(ctx context.Context) (navigation.View, error) {
	total, err := c.questions.GetTotalCount(ctx)
	if err != nil {
		return navigation.View{}, fmt.Errorf("count questions: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = navigation.At(navigation.Next(c.view.QuestionID, total))
	return c.view, nil
}

// Random moves to a uniformly chosen question.
func (c *Controller) Random(ctx context.Context) (navigation.View, error) {
	total, err := c.questions.GetTotalCount(ctx)
	if err != nil {
		return navigation.View{}, fmt.Errorf("count questions: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = navigation.At(navigation.Random(c.rng, total))
	return c.view, nil
}

// GoTo jumps to the question number typed by the player. Rejected input
// comes back as an InputError and leaves the view unchanged.
func (c *Controller) GoTo(ctx context.Context, input string) (navigation.View, *navigation.InputError, error) {
	total, err := c.questions.GetTotalCount(ctx)
	if err != nil {
		return navigation.View{}, nil, fmt.Errorf("count questions: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id, inputErr := navigation.GoTo(input, total)
	if inputErr != nil {
		return c.view, inputErr, nil
	}
	c.view = navigation.At(id)
	return c.view, nil, nil
}

// ToggleAnswer flips answer visibility on the current view.
func (c *Controller) ToggleAnswer() navigation.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = c.view.Toggle()
	return c.view
}

// Answer checks label against the current question. A correct answer counts
// a round and advances; a wrong one ends the game and stays put.
func (c *Controller) Answer(ctx context.Context, label string) (Outcome, error) {
	if !questions.IsLabel(label) {
		return Outcome{}, &navigation.InputError{Message: fmt.Sprintf("Unknown option %q", label)}
	}
	view := c.View()
	question, found, err := c.questions.GetByID(ctx, view.QuestionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load question %d: %w", view.QuestionID, err)
	}
	if !found {
		return Outcome{}, fmt.Errorf("answer question %d: %w", view.QuestionID, ErrQuestionNotFound)
	}

	outcome := Outcome{
		QuestionID:    question.ID,
		Chosen:        questions.NormalizeLabel(label),
		Correct:       question.IsCorrect(label),
		CorrectAnswer: question.Answer,
	}
	if outcome.Correct {
		outcome.Session, err = c.progress.RecordCorrect(ctx, question.ID)
		if err != nil {
			return Outcome{}, err
		}
		outcome.View, err = c.Next(ctx)
		if err != nil {
			return Outcome{}, err
		}
		return outcome, nil
	}

	outcome.Session, err = c.progress.RecordWrong(ctx, question.ID)
	if err != nil {
		return Outcome{}, err
	}
	outcome.View = c.View()
	return outcome, nil
}

// ResetGame starts a new game, keeping the answered history.
func (c *Controller) ResetGame(ctx context.Context) (session.State, error) {
	return c.progress.ResetGame(ctx)
}

// FullReset clears all progress.
func (c *Controller) FullReset(ctx context.Context) (session.State, error) {
	return c.progress.FullReset(ctx)
}
