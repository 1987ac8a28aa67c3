// Package events publishes quiz progress to realtime subscribers.
package events

import (
	"context"
	"errors"
	"time"
)

// ProgressUpdate is the event name sent after every progress change.
const ProgressUpdate = "quiz-update"

// Progress is the payload of a ProgressUpdate event.
type Progress struct {
	ClientID            string    `json:"clientId"`
	Action              string    `json:"action"`
	QuestionID          int       `json:"questionId,omitempty"`
	Correct             *bool     `json:"correct,omitempty"`
	RoundsCompleted     int       `json:"roundsCompleted"`
	AnsweredQuestionIDs []int     `json:"answeredQuestionIds"`
	GameOver            bool      `json:"gameOver"`
	Timestamp           time.Time `json:"timestamp"`
}

// Publisher sends a named event on a channel.
type Publisher interface {
	Publish(ctx context.Context, channel, name string, data interface{}) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, interface{}) error { return nil }

// Multi fans an event out to several publishers. Every publisher is tried;
// their errors are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, channel, name string, data interface{}) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, channel, name, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
