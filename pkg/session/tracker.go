package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Keys under which progress is persisted.
const (
	KeyRoundsCompleted   = "roundsCompleted"
	KeyAnsweredQuestions = "answeredQuestions"
)

// State is a snapshot of one player's progress.
type State struct {
	RoundsCompleted     int   `json:"roundsCompleted"`
	AnsweredQuestionIDs []int `json:"answeredQuestionIds"`
	GameOver            bool  `json:"gameOver"`
}

// HasAnswered reports whether id is in the answered history.
func (s State) HasAnswered(id int) bool {
	for _, answered := range s.AnsweredQuestionIDs {
		if answered == id {
			return true
		}
	}
	return false
}

// Tracker reads and writes progress through a Store. The game-over flag is
// held in memory only.
type Tracker struct {
	store    Store
	mu       sync.Mutex
	gameOver bool
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// State reads the persisted counters. Absent or unreadable entries read as
// zero and empty.
func (t *Tracker) State(ctx context.Context) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readLocked(ctx)
}

// GameOver reports the transient game-over flag.
func (t *Tracker) GameOver() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gameOver
}

// MarkAnswered adds id to the answered history. Marking twice is a no-op.
func (t *Tracker) MarkAnswered(ctx context.Context, id int) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, err := t.readLocked(ctx)
	if err != nil {
		return State{}, err
	}
	if err := t.markLocked(ctx, &state, id); err != nil {
		return State{}, err
	}
	return state, nil
}

// RecordCorrect counts a completed round, clears game over and marks id answered.
func (t *Tracker) RecordCorrect(ctx context.Context, id int) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, err := t.readLocked(ctx)
	if err != nil {
		return State{}, err
	}
	if err := t.store.Set(ctx, KeyRoundsCompleted, strconv.Itoa(state.RoundsCompleted+1)); err != nil {
		return State{}, fmt.Errorf("save rounds: %w", err)
	}
	state.RoundsCompleted++
	if err := t.markLocked(ctx, &state, id); err != nil {
		return State{}, err
	}
	t.gameOver = false
	state.GameOver = false
	return state, nil
}

// RecordWrong marks id answered and sets game over. Rounds are untouched.
func (t *Tracker) RecordWrong(ctx context.Context, id int) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, err := t.readLocked(ctx)
	if err != nil {
		return State{}, err
	}
	if err := t.markLocked(ctx, &state, id); err != nil {
		return State{}, err
	}
	t.gameOver = true
	state.GameOver = true
	return state, nil
}

// ResetGame clears game over and zeroes rounds, keeping the answered history.
func (t *Tracker) ResetGame(ctx context.Context) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.Set(ctx, KeyRoundsCompleted, "0"); err != nil {
		return State{}, fmt.Errorf("reset rounds: %w", err)
	}
	t.gameOver = false
	return t.readLocked(ctx)
}

// FullReset is ResetGame plus clearing the answered history.
func (t *Tracker) FullReset(ctx context.Context) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.Set(ctx, KeyRoundsCompleted, "0"); err != nil {
		return State{}, fmt.Errorf("reset rounds: %w", err)
	}
	if err := t.store.Set(ctx, KeyAnsweredQuestions, "[]"); err != nil {
		return State{}, fmt.Errorf("reset answered questions: %w", err)
	}
	t.gameOver = false
	return t.readLocked(ctx)
}

func (t *Tracker) readLocked(ctx context.Context) (State, error) {
	state := State{GameOver: t.gameOver, AnsweredQuestionIDs: []int{}}

	rounds, ok, err := t.store.Get(ctx, KeyRoundsCompleted)
	if err != nil {
		return State{}, fmt.Errorf("load rounds: %w", err)
	}
	if ok {
		state.RoundsCompleted = parseRounds(rounds)
	}

	answered, ok, err := t.store.Get(ctx, KeyAnsweredQuestions)
	if err != nil {
		return State{}, fmt.Errorf("load answered questions: %w", err)
	}
	if ok {
		state.AnsweredQuestionIDs = parseAnswered(answered)
	}
	return state, nil
}

func (t *Tracker) markLocked(ctx context.Context, state *State, id int) error {
	if state.HasAnswered(id) {
		return nil
	}
	next := append(append([]int{}, state.AnsweredQuestionIDs...), id)
	encoded, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode answered questions: %w", err)
	}
	if err := t.store.Set(ctx, KeyAnsweredQuestions, string(encoded)); err != nil {
		return fmt.Errorf("save answered questions: %w", err)
	}
	state.AnsweredQuestionIDs = next
	return nil
}

func parseRounds(value string) int {
	rounds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || rounds < 0 {
		return 0
	}
	return rounds
}

// parseAnswered decodes the stored id list, dropping duplicates.
func parseAnswered(value string) []int {
	var ids []int
	if err := json.Unmarshal([]byte(value), &ids); err != nil {
		return []int{}
	}
	seen := make(map[int]struct{}, len(ids))
	unique := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
