//go:build cucumber

package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"slices"
	"testing"

	"github.com/cucumber/godog"

	"meal-quiz/pkg/navigation"
	"meal-quiz/pkg/questions"
	"meal-quiz/pkg/session"
)

// TestQuizScenarios runs the quiz feature scenarios.
func TestQuizScenarios(t *testing.T) {
	suite := godog.TestSuite{
		Name: "quiz",
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			InitializeQuizScenario(ctx, t.TempDir())
		},
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("features", "quiz.feature")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeQuizScenario wires steps for the quiz feature.
func InitializeQuizScenario(ctx *godog.ScenarioContext, dir string) {
	state := &quizScenarioState{dir: dir}
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		state.reset(sc.Id)
		return ctx, nil
	})

	ctx.Step(`^a quiz with (\d+) questions$`, state.givenQuizWithQuestions)
	ctx.Step(`^I am on question (\d+)$`, state.givenOnQuestion)
	ctx.Step(`^I go to the next question$`, state.whenNext)
	ctx.Step(`^I jump to question "([^"]*)"$`, state.whenJump)
	ctx.Step(`^I toggle the answer$`, state.whenToggle)
	ctx.Step(`^I answer correctly$`, state.whenAnswerCorrectly)
	ctx.Step(`^I answer wrongly$`, state.whenAnswerWrongly)
	ctx.Step(`^I start a new game$`, state.whenResetGame)
	ctx.Step(`^I reset everything$`, state.whenFullReset)
	ctx.Step(`^I reload the page$`, state.whenReload)
	ctx.Step(`^I am viewing question (\d+)$`, state.thenOnQuestion)
	ctx.Step(`^the answer is hidden$`, state.thenAnswerHidden)
	ctx.Step(`^I see the message "([^"]*)"$`, state.thenMessage)
	ctx.Step(`^the address is "([^"]*)"$`, state.thenAddress)
	ctx.Step(`^I have completed (\d+) rounds?$`, state.thenRounds)
	ctx.Step(`^question (\d+) is answered$`, state.thenAnswered)
	ctx.Step(`^no questions are answered$`, state.thenNoneAnswered)
	ctx.Step(`^the game is over$`, state.thenGameOver)
	ctx.Step(`^the game is not over$`, state.thenNotGameOver)
}

// memoryFetcher serves a fixed question list.
type memoryFetcher []questions.Question

func (f memoryFetcher) GetByID(_ context.Context, id int) (questions.Question, bool, error) {
	for _, q := range f {
		if q.ID == id {
			return q, true, nil
		}
	}
	return questions.Question{}, false, nil
}

func (f memoryFetcher) GetTotalCount(_ context.Context) (int, error) {
	return len(f), nil
}

// quizScenarioState holds scenario state for quiz feature tests.
type quizScenarioState struct {
	dir        string
	path       string
	fetcher    memoryFetcher
	controller *Controller
	inputErr   *navigation.InputError
	state      session.State
}

func (s *quizScenarioState) reset(id string) {
	s.path = filepath.Join(s.dir, id+".json")
	s.fetcher = nil
	s.controller = nil
	s.inputErr = nil
	s.state = session.State{}
}

func (s *quizScenarioState) open(view navigation.View) error {
	store, err := session.OpenFileStore(s.path)
	if err != nil {
		return err
	}
	s.controller = NewController(s.fetcher, session.NewTracker(store),
		WithView(view), WithRand(rand.New(rand.NewSource(1))))
	return nil
}

func (s *quizScenarioState) givenQuizWithQuestions(count int) error {
	s.fetcher = make(memoryFetcher, 0, count)
	for id := 1; id <= count; id++ {
		s.fetcher = append(s.fetcher, questions.Question{
			ID:       id,
			Question: fmt.Sprintf("Question %d", id),
			Options:  questions.Options{A: "one", B: "two", C: "three", D: "four"},
			Answer:   "b",
		})
	}
	return s.open(navigation.At(1))
}

func (s *quizScenarioState) givenOnQuestion(id int) error {
	return s.open(navigation.At(id))
}

func (s *quizScenarioState) whenNext() error {
	_, err := s.controller.Next(context.Background())
	return err
}

func (s *quizScenarioState) whenJump(input string) error {
	_, inputErr, err := s.controller.GoTo(context.Background(), input)
	s.inputErr = inputErr
	return err
}

func (s *quizScenarioState) whenToggle() error {
	s.controller.ToggleAnswer()
	return nil
}

func (s *quizScenarioState) answer(label string) error {
	outcome, err := s.controller.Answer(context.Background(), label)
	if err != nil {
		return err
	}
	s.state = outcome.Session
	return nil
}

func (s *quizScenarioState) whenAnswerCorrectly() error { return s.answer("b") }

func (s *quizScenarioState) whenAnswerWrongly() error { return s.answer("d") }

func (s *quizScenarioState) whenResetGame() error {
	state, err := s.controller.ResetGame(context.Background())
	s.state = state
	return err
}

func (s *quizScenarioState) whenFullReset() error {
	state, err := s.controller.FullReset(context.Background())
	s.state = state
	return err
}

func (s *quizScenarioState) whenReload() error {
	if err := s.open(s.controller.View()); err != nil {
		return err
	}
	screen, err := s.controller.Current(context.Background())
	s.state = screen.Session
	return err
}

func (s *quizScenarioState) thenOnQuestion(id int) error {
	if got := s.controller.View().QuestionID; got != id {
		return fmt.Errorf("expected question %d, got %d", id, got)
	}
	return nil
}

func (s *quizScenarioState) thenAnswerHidden() error {
	if s.controller.View().ShowAnswer {
		return fmt.Errorf("expected answer hidden")
	}
	return nil
}

func (s *quizScenarioState) thenMessage(message string) error {
	if s.inputErr == nil {
		return fmt.Errorf("expected message %q, got none", message)
	}
	if s.inputErr.Message != message {
		return fmt.Errorf("expected message %q, got %q", message, s.inputErr.Message)
	}
	return nil
}

func (s *quizScenarioState) thenAddress(path string) error {
	if got := s.controller.View().Path(); got != path {
		return fmt.Errorf("expected address %q, got %q", path, got)
	}
	return nil
}

func (s *quizScenarioState) thenRounds(rounds int) error {
	if s.state.RoundsCompleted != rounds {
		return fmt.Errorf("expected %d rounds, got %d", rounds, s.state.RoundsCompleted)
	}
	return nil
}

func (s *quizScenarioState) thenAnswered(id int) error {
	if !slices.Contains(s.state.AnsweredQuestionIDs, id) {
		return fmt.Errorf("expected question %d answered, got %v", id, s.state.AnsweredQuestionIDs)
	}
	return nil
}

func (s *quizScenarioState) thenNoneAnswered() error {
	if len(s.state.AnsweredQuestionIDs) != 0 {
		return fmt.Errorf("expected no answered questions, got %v", s.state.AnsweredQuestionIDs)
	}
	return nil
}

func (s *quizScenarioState) thenGameOver() error {
	if !s.state.GameOver {
		return fmt.Errorf("expected game over")
	}
	return nil
}

func (s *quizScenarioState) thenNotGameOver() error {
	if s.state.GameOver {
		return fmt.Errorf("expected game to continue")
	}
	return nil
}
