package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"meal-quiz/pkg/navigation"
	"meal-quiz/pkg/quiz"
	"meal-quiz/pkg/session"
)

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".meal-quiz", "session.json")
	}
	return filepath.Join(home, ".meal-quiz", "session.json")
}

func getUserInput(reader *bufio.Reader) (string, error) {
	input, err := reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// play runs the command loop until exit or end of input.
func play(ctx context.Context, in io.Reader, r renderer, ctrl *quiz.Controller) error {
	reader := bufio.NewReader(in)
	show := func() error {
		screen, err := ctrl.Current(ctx)
		if err != nil {
			return err
		}
		r.screen(screen)
		return nil
	}

	r.help()
	if err := show(); err != nil {
		return err
	}
	for {
		input, err := getUserInput(reader)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading command: %w", err)
		}

		command, arg, _ := strings.Cut(input, " ")
		switch strings.ToLower(command) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "a", "b", "c", "d":
			outcome, err := ctrl.Answer(ctx, command)
			if errors.Is(err, quiz.ErrQuestionNotFound) {
				r.message("There is no question here to answer.")
				continue
			}
			if err != nil {
				return err
			}
			r.outcome(outcome)
		case "n":
			if _, err := ctrl.Next(ctx); err != nil {
				return err
			}
		case "r":
			if _, err := ctrl.Random(ctx); err != nil {
				return err
			}
		case "g":
			_, inputErr, err := ctrl.GoTo(ctx, arg)
			if err != nil {
				return err
			}
			if inputErr != nil {
				r.message(inputErr.Message)
				continue
			}
		case "s":
			ctrl.ToggleAnswer()
		case "reset":
			if _, err := ctrl.ResetGame(ctx); err != nil {
				return err
			}
		case "fullreset":
			if _, err := ctrl.FullReset(ctx); err != nil {
				return err
			}
		case "help", "?":
			r.help()
			continue
		default:
			r.message(fmt.Sprintf("Unknown command %q, type 'help' for the list.", input))
			continue
		}
		if err := show(); err != nil {
			return err
		}
	}
}

func main() {
	var serverURL string
	var sessionPath string
	var start int
	var noColor bool

	flag.StringVar(&serverURL, "server", "http://localhost:8080", "Quiz server URL")
	flag.StringVar(&sessionPath, "session", defaultSessionPath(), "File keeping local progress")
	flag.IntVar(&start, "start", 1, "Question to start on")
	flag.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flag.Parse()

	store, err := session.OpenFileStore(sessionPath)
	if err != nil {
		fmt.Println("Error opening session file:", err)
		os.Exit(1)
	}

	var fetcher quiz.QuestionFetcher = NewAPIClient(serverURL)
	ctrl := quiz.NewController(fetcher, session.NewTracker(store), quiz.WithView(navigation.At(start)))
	r := renderer{out: os.Stdout, noColor: noColor || !shouldUseStyling(os.Stdout)}

	err = play(context.Background(), os.Stdin, r, ctrl)
	store.Close()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
