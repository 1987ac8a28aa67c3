package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"meal-quiz/pkg/questions"
	"meal-quiz/pkg/quiz"
)

var isTerminal = term.IsTerminal

// shouldUseStyling reports whether out is a color-capable terminal.
func shouldUseStyling(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	if file, ok := out.(*os.File); ok {
		return isTerminal(int(file.Fd()))
	}
	return false
}

type renderer struct {
	out     io.Writer
	noColor bool
}

func (r renderer) stylize(text string, color lipgloss.Color, bold bool) string {
	if r.noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(text)
}

func (r renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r renderer) screen(screen quiz.Screen) {
	if !screen.Found {
		r.printf("%s\n", r.stylize("Question not found", lipgloss.Color("196"), true))
		return
	}
	q := screen.Question
	r.printf("\n%s\n", r.stylize(fmt.Sprintf("Question %d of %d", q.ID, screen.Total), lipgloss.Color("33"), true))
	r.printf("%s\n", q.Question)
	for _, label := range questions.Labels {
		text, _ := q.Options.Get(label)
		line := fmt.Sprintf("  %s) %s", label, text)
		if screen.View.ShowAnswer && label == q.Answer {
			line = r.stylize(line+"  <- answer", lipgloss.Color("42"), true)
		}
		r.printf("%s\n", line)
	}
	r.progress(screen)
}

func (r renderer) progress(screen quiz.Screen) {
	state := screen.Session
	line := fmt.Sprintf("Rounds: %d | Answered: %d | %s", state.RoundsCompleted, len(state.AnsweredQuestionIDs), screen.View.Path())
	r.printf("%s\n", r.stylize(line, lipgloss.Color("244"), false))
	if state.GameOver {
		r.printf("%s\n", r.stylize("Game over! Type 'reset' to play again.", lipgloss.Color("196"), true))
	}
}

func (r renderer) outcome(outcome quiz.Outcome) {
	if outcome.Correct {
		r.printf("%s\n", r.stylize("Correct!", lipgloss.Color("42"), true))
		return
	}
	r.printf("%s\n", r.stylize(fmt.Sprintf("Wrong, the answer was %s.", outcome.CorrectAnswer), lipgloss.Color("196"), true))
}

func (r renderer) message(text string) {
	r.printf("%s\n", r.stylize(text, lipgloss.Color("220"), false))
}

func (r renderer) help() {
	r.printf("%s\n", strings.Join([]string{
		"Commands:",
		"  a, b, c, d   answer the question",
		"  n            next question",
		"  r            random question",
		"  g N          go to question N",
		"  s            show or hide the answer",
		"  reset        start a new game",
		"  fullreset    clear all progress",
		"  exit         quit",
	}, "\n"))
}
