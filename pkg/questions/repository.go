package questions

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Option configures a Repository.
type Option func(*Repository)

// WithRand sets the random source used by GetRandom and GetRandomN.
func WithRand(rng *rand.Rand) Option {
	return func(r *Repository) {
		r.rng = rng
	}
}

// WithCache keeps the validated collection until Invalidate is called.
// Without it every call reads and validates the source again.
func WithCache() Option {
	return func(r *Repository) {
		r.caching = true
	}
}

// Repository answers queries over a validated question collection.
type Repository struct {
	source  Source
	caching bool

	mu     sync.Mutex
	rng    *rand.Rand
	cached []Question
	loaded bool
	// generation counts invalidations; a load only fills the cache when no
	// Invalidate happened while it ran.
	generation uint64
}

// NewRepository creates a repository reading from src.
func NewRepository(src Source, opts ...Option) *Repository {
	r := &Repository{source: src}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return r
}

// Invalidate drops the cached collection so the next call re-validates the source.
func (r *Repository) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
	r.loaded = false
	r.generation++
}

// collection returns the shared validated slice. Callers must not modify it.
func (r *Repository) collection(ctx context.Context) ([]Question, error) {
	r.mu.Lock()
	if r.caching && r.loaded {
		cached := r.cached
		r.mu.Unlock()
		return cached, nil
	}
	generation := r.generation
	r.mu.Unlock()

	loaded, err := Load(ctx, r.source)
	if err != nil {
		return nil, err
	}

	if r.caching {
		r.mu.Lock()
		if r.generation == generation {
			r.cached = loaded
			r.loaded = true
		}
		r.mu.Unlock()
	}
	return loaded, nil
}

// GetAll returns the full collection in its original order.
func (r *Repository) GetAll(ctx context.Context) ([]Question, error) {
	all, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Question, len(all))
	copy(out, all)
	return out, nil
}

// GetByID looks a question up by id. A missing id yields ok=false, not an error.
func (r *Repository) GetByID(ctx context.Context, id int) (Question, bool, error) {
	all, err := r.collection(ctx)
	if err != nil {
		return Question{}, false, err
	}
	for _, q := range all {
		if q.ID == id {
			return q, true, nil
		}
	}
	return Question{}, false, nil
}

// GetRandom picks one question uniformly.
func (r *Repository) GetRandom(ctx context.Context) (Question, error) {
	all, err := r.collection(ctx)
	if err != nil {
		return Question{}, err
	}
	if len(all) == 0 {
		return Question{}, &ConfigurationError{Reason: "question collection is empty"}
	}
	r.mu.Lock()
	idx := r.rng.Intn(len(all))
	r.mu.Unlock()
	return all[idx], nil
}

// GetRandomN samples up to count questions without replacement.
func (r *Repository) GetRandomN(ctx context.Context, count int) ([]Question, error) {
	all, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return []Question{}, nil
	}

	shuffled := make([]Question, len(all))
	copy(shuffled, all)

	r.mu.Lock()
	r.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	r.mu.Unlock()

	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count], nil
}

// GetTotalCount returns the size of the validated collection.
func (r *Repository) GetTotalCount(ctx context.Context) (int, error) {
	all, err := r.collection(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// Verify loads the collection once and rejects an empty dataset.
func (r *Repository) Verify(ctx context.Context) (int, error) {
	total, err := r.GetTotalCount(ctx)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, &ConfigurationError{Reason: "question collection is empty"}
	}
	return total, nil
}
