package quiz_server

import (
	"container/list"
	"context"
	"time"

	"go.uber.org/zap"

	"meal-quiz/pkg/events"
	"meal-quiz/pkg/session"
)

// Session is the in-memory handle on one client's progress. Evicting it
// only loses the game-over flag; counters stay in the store.
type Session struct {
	ID       string
	tracker  *session.Tracker
	lastSeen time.Time
	element  *list.Element
}

func NewSession(clientID string, store session.Store) *Session {
	return &Session{
		ID:       clientID,
		tracker:  session.NewTracker(session.Scoped(store, clientID)),
		lastSeen: time.Now(),
	}
}

func (s *Session) apply(ctx context.Context, cmd SessionManagerCommand) (session.State, error) {
	s.lastSeen = time.Now()
	switch cmd.CommandType {
	case GetState:
		return s.tracker.State(ctx)
	case RecordAnswer:
		if cmd.Correct {
			return s.tracker.RecordCorrect(ctx, cmd.QuestionID)
		}
		return s.tracker.RecordWrong(ctx, cmd.QuestionID)
	case ResetGame:
		return s.tracker.ResetGame(ctx)
	case FullReset:
		return s.tracker.FullReset(ctx)
	default:
		return session.State{}, errUnknownCommand
	}
}

// progressUpdate snapshots the client's new state as an event payload.
func (s *Session) progressUpdate(cmd SessionManagerCommand, state session.State) events.Progress {
	update := events.Progress{
		ClientID:            s.ID,
		Action:              cmd.CommandType.String(),
		QuestionID:          cmd.QuestionID,
		RoundsCompleted:     state.RoundsCompleted,
		AnsweredQuestionIDs: append([]int(nil), state.AnsweredQuestionIDs...),
		GameOver:            state.GameOver,
		Timestamp:           time.Now().UTC(),
	}
	if cmd.CommandType == RecordAnswer {
		correct := cmd.Correct
		update.Correct = &correct
	}
	return update
}

// publishProgress sends update on the client's own channel.
func publishProgress(ctx context.Context, publisher events.Publisher, log *zap.Logger, update events.Progress) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := publisher.Publish(ctx, update.ClientID, events.ProgressUpdate, update); err != nil {
		log.Warn("Error publishing progress", zap.String("client", update.ClientID), zap.Error(err))
	}
}
