package quiz_server

import (
	"container/list"
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"meal-quiz/pkg/events"
	"meal-quiz/pkg/monitoring"
	"meal-quiz/pkg/session"
)

const (
	publishTimeout   = 3 * time.Second
	publishQueueSize = 256
)

var (
	errUnknownCommand = errors.New("unknown SessionManagerCommand")
	// ErrManagerStopped is returned for commands sent after shutdown.
	ErrManagerStopped = errors.New("session manager stopped")
)

type SessionManagerCommandType int

const (
	GetState SessionManagerCommandType = iota
	RecordAnswer
	ResetGame
	FullReset
)

func (t SessionManagerCommandType) String() string {
	switch t {
	case GetState:
		return "get-state"
	case RecordAnswer:
		return "answer"
	case ResetGame:
		return "reset-game"
	case FullReset:
		return "full-reset"
	default:
		return "unknown"
	}
}

type SessionManagerCommand struct {
	CommandType  SessionManagerCommandType
	ClientID     string
	QuestionID   int
	Correct      bool
	ctx          context.Context
	ResponseChan chan<- SessionManagerResponse
}

type SessionManagerResponse struct {
	Error error
	State session.State
}

// SessionManager owns every client's tracker. All commands run on one
// goroutine, so each client namespace in the store has a single writer.
type SessionManager struct {
	CommandChan chan SessionManagerCommand
	sessions    map[string]*Session
	recent      *list.List
	maxSessions int
	store       session.Store
	publisher   events.Publisher
	outbox      chan events.Progress
	metrics     *monitoring.Metrics
	log         *zap.Logger
	done        chan struct{}
	active      atomic.Int64
}

func NewSessionManager(ctx context.Context, maxSessions int, store session.Store, publisher events.Publisher, metrics *monitoring.Metrics, log *zap.Logger) *SessionManager {
	if publisher == nil {
		publisher = events.Nop{}
	}
	sm := &SessionManager{
		CommandChan: make(chan SessionManagerCommand),
		sessions:    make(map[string]*Session),
		recent:      list.New(),
		maxSessions: maxSessions,
		store:       store,
		publisher:   publisher,
		outbox:      make(chan events.Progress, publishQueueSize),
		metrics:     metrics,
		log:         log,
		done:        make(chan struct{}),
	}
	go sm.RunSessionManager(ctx)
	go sm.RunPublisher(ctx)
	return sm
}

func (s *SessionManager) RunSessionManager(ctx context.Context) {
	s.log.Info("Starting session manager", zap.Int("maxSessions", s.maxSessions))
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Session manager stopped")
			return
		case cmd := <-s.CommandChan:
			s.log.Debug("Handling SessionManagerCommand",
				zap.Stringer("command", cmd.CommandType),
				zap.String("client", cmd.ClientID))
			cmd.ResponseChan <- s.handleCommand(cmd)
		}
	}
}

// RunPublisher drains queued progress events in order. It runs apart from
// the command loop so a slow backend never holds up other clients.
func (s *SessionManager) RunPublisher(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-s.outbox:
			publishProgress(ctx, s.publisher, s.log, update)
		}
	}
}

// enqueue never blocks; a full queue drops the event.
func (s *SessionManager) enqueue(update events.Progress) {
	select {
	case s.outbox <- update:
	default:
		s.log.Warn("Dropping progress event, publish queue full",
			zap.String("client", update.ClientID),
			zap.String("action", update.Action))
	}
}

// Send delivers cmd and waits for its response.
func (s *SessionManager) Send(ctx context.Context, cmd SessionManagerCommand) (session.State, error) {
	responseChan := make(chan SessionManagerResponse, 1)
	cmd.ctx = ctx
	cmd.ResponseChan = responseChan
	select {
	case s.CommandChan <- cmd:
	case <-s.done:
		return session.State{}, ErrManagerStopped
	case <-ctx.Done():
		return session.State{}, ctx.Err()
	}
	select {
	case response := <-responseChan:
		return response.State, response.Error
	case <-s.done:
		return session.State{}, ErrManagerStopped
	}
}

// For returns the progress of one client, backed by this manager.
func (s *SessionManager) For(clientID string) *ClientProgress {
	return &ClientProgress{manager: s, clientID: clientID}
}

// ActiveSessions reports how many trackers are held in memory.
func (s *SessionManager) ActiveSessions() int {
	return int(s.active.Load())
}

func (s *SessionManager) sessionFor(clientID string) *Session {
	if existing, ok := s.sessions[clientID]; ok {
		s.recent.MoveToFront(existing.element)
		return existing
	}
	for len(s.sessions) >= s.maxSessions && s.recent.Len() > 0 {
		oldest := s.recent.Back()
		evicted := s.recent.Remove(oldest).(*Session)
		delete(s.sessions, evicted.ID)
		s.log.Debug("Evicted session", zap.String("client", evicted.ID), zap.Time("lastSeen", evicted.lastSeen))
	}
	created := NewSession(clientID, s.store)
	created.element = s.recent.PushFront(created)
	s.sessions[clientID] = created
	s.active.Store(int64(len(s.sessions)))
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
	return created
}

func (s *SessionManager) handleCommand(cmd SessionManagerCommand) SessionManagerResponse {
	if cmd.ClientID == "" {
		return SessionManagerResponse{Error: errors.New("client id is required")}
	}
	ctx := cmd.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	clientSession := s.sessionFor(cmd.ClientID)
	state, err := clientSession.apply(ctx, cmd)
	if err != nil {
		s.log.Error("Session command failed",
			zap.Stringer("command", cmd.CommandType),
			zap.String("client", cmd.ClientID),
			zap.Error(err))
		return SessionManagerResponse{Error: err}
	}

	if cmd.CommandType != GetState {
		s.observe(cmd)
		s.enqueue(clientSession.progressUpdate(cmd, state))
	}
	return SessionManagerResponse{State: state}
}

func (s *SessionManager) observe(cmd SessionManagerCommand) {
	if s.metrics == nil {
		return
	}
	switch cmd.CommandType {
	case RecordAnswer:
		s.metrics.ObserveAnswer(cmd.Correct)
	case ResetGame, FullReset:
		s.metrics.Resets.WithLabelValues(cmd.CommandType.String()).Inc()
	}
}

// ClientProgress adapts the manager to one client's progress.
type ClientProgress struct {
	manager  *SessionManager
	clientID string
}

func (p *ClientProgress) State(ctx context.Context) (session.State, error) {
	return p.manager.Send(ctx, SessionManagerCommand{CommandType: GetState, ClientID: p.clientID})
}

func (p *ClientProgress) RecordCorrect(ctx context.Context, id int) (session.State, error) {
	return p.manager.Send(ctx, SessionManagerCommand{CommandType: RecordAnswer, ClientID: p.clientID, QuestionID: id, Correct: true})
}

func (p *ClientProgress) RecordWrong(ctx context.Context, id int) (session.State, error) {
	return p.manager.Send(ctx, SessionManagerCommand{CommandType: RecordAnswer, ClientID: p.clientID, QuestionID: id})
}

func (p *ClientProgress) ResetGame(ctx context.Context) (session.State, error) {
	return p.manager.Send(ctx, SessionManagerCommand{CommandType: ResetGame, ClientID: p.clientID})
}

func (p *ClientProgress) FullReset(ctx context.Context) (session.State, error) {
	return p.manager.Send(ctx, SessionManagerCommand{CommandType: FullReset, ClientID: p.clientID})
}
