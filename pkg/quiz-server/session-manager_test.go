package quiz_server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-quiz/pkg/events"
	"meal-quiz/pkg/session"
)

func newTestManager(t *testing.T, maxSessions int, publisher events.Publisher) (*SessionManager, session.Store) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	store := session.NewMemoryStore()
	return NewSessionManager(ctx, maxSessions, store, publisher, nil, zap.NewNop()), store
}

func TestSessionManagerTracksProgressPerClient(t *testing.T) {
	manager, _ := newTestManager(t, 10, nil)
	ctx := context.Background()
	alice := manager.For("alice")
	bob := manager.For("bob")

	state, err := alice.RecordCorrect(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, state.RoundsCompleted)

	state, err = bob.RecordWrong(ctx, 7)
	require.NoError(t, err)
	assert.True(t, state.GameOver)
	assert.Equal(t, 0, state.RoundsCompleted)

	state, err = alice.State(ctx)
	require.NoError(t, err)
	assert.False(t, state.GameOver)
	assert.Equal(t, []int{7}, state.AnsweredQuestionIDs)

	state, err = bob.ResetGame(ctx)
	require.NoError(t, err)
	assert.False(t, state.GameOver)
	assert.Equal(t, []int{7}, state.AnsweredQuestionIDs)

	state, err = bob.FullReset(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.AnsweredQuestionIDs)
	assert.Equal(t, 2, manager.ActiveSessions())
}

func TestSessionManagerPublishesOnlyMutations(t *testing.T) {
	mockPublisher := new(MockPublisher)
	manager, _ := newTestManager(t, 10, mockPublisher)
	ctx := context.Background()

	published := make(chan events.Progress, 4)
	mockPublisher.On("Publish", mock.Anything, "alice", events.ProgressUpdate, mock.AnythingOfType("events.Progress")).
		Run(func(args mock.Arguments) { published <- args.Get(3).(events.Progress) }).
		Return(nil).Twice()

	progress := manager.For("alice")
	_, err := progress.State(ctx)
	require.NoError(t, err)
	_, err = progress.RecordCorrect(ctx, 1)
	require.NoError(t, err)
	_, err = progress.FullReset(ctx)
	require.NoError(t, err)

	for _, action := range []string{"answer", "full-reset"} {
		select {
		case update := <-published:
			assert.Equal(t, action, update.Action)
		case <-time.After(2 * time.Second):
			t.Fatalf("no %s event published", action)
		}
	}
	mockPublisher.AssertExpectations(t)
	mockPublisher.AssertNumberOfCalls(t, "Publish", 2)
}

// blockingPublisher holds every Publish until its context ends.
type blockingPublisher struct {
	started chan struct{}
}

func (p *blockingPublisher) Publish(ctx context.Context, _, _ string, _ interface{}) error {
	select {
	case p.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestSessionManagerSlowPublisherDoesNotBlockOtherClients(t *testing.T) {
	publisher := &blockingPublisher{started: make(chan struct{}, 1)}
	manager, _ := newTestManager(t, 10, publisher)
	ctx := context.Background()

	_, err := manager.For("alice").RecordCorrect(ctx, 1)
	require.NoError(t, err)
	select {
	case <-publisher.started:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher never called")
	}

	stateCtx, cancel := context.WithTimeout(ctx, publishTimeout/3)
	defer cancel()
	started := time.Now()
	state, err := manager.For("bob").State(stateCtx)
	require.NoError(t, err)
	assert.Equal(t, 0, state.RoundsCompleted)
	assert.Less(t, time.Since(started), publishTimeout/3)
}

func TestSessionManagerDropsEventsWhenQueueFull(t *testing.T) {
	publisher := &blockingPublisher{started: make(chan struct{}, 1)}
	manager, _ := newTestManager(t, 10, publisher)
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	progress := manager.For("alice")
	for i := 1; i <= publishQueueSize+10; i++ {
		_, err := progress.RecordCorrect(ctx, i)
		require.NoError(t, err)
	}
	state, err := progress.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, publishQueueSize+10, state.RoundsCompleted)
}

func TestSessionManagerEvictsLeastRecentlyUsed(t *testing.T) {
	manager, _ := newTestManager(t, 2, nil)
	ctx := context.Background()

	_, err := manager.For("a").RecordWrong(ctx, 1)
	require.NoError(t, err)
	_, err = manager.For("a").RecordCorrect(ctx, 2)
	require.NoError(t, err)
	_, err = manager.For("a").RecordWrong(ctx, 3)
	require.NoError(t, err)
	_, err = manager.For("b").State(ctx)
	require.NoError(t, err)
	_, err = manager.For("c").State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, manager.ActiveSessions())

	state, err := manager.For("a").State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, state.RoundsCompleted, "persisted rounds survive eviction")
	assert.Equal(t, []int{1, 2, 3}, state.AnsweredQuestionIDs)
	assert.False(t, state.GameOver, "the transient flag does not")
	assert.Equal(t, 2, manager.ActiveSessions())
}

func TestSessionManagerRejectsMissingClient(t *testing.T) {
	manager, _ := newTestManager(t, 1, nil)
	_, err := manager.For("").State(context.Background())
	require.Error(t, err)
}

func TestSessionManagerStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	manager := NewSessionManager(ctx, 1, session.NewMemoryStore(), nil, nil, zap.NewNop())
	cancel()
	<-manager.done

	_, err := manager.For("a").State(context.Background())
	assert.ErrorIs(t, err, ErrManagerStopped)
}
