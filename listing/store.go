package listing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrViewNotFound is returned for a view id that was never registered or has expired.
	ErrViewNotFound = errors.New("listing: view not found")

	// ErrInFlight is returned when a load-more for the same view is still running.
	ErrInFlight = errors.New("listing: load more already in flight")
)

// Store keeps listing states by view id for as long as the page is open.
// Implementations must be safe for concurrent use.
type Store interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, s State) error
	// Acquire takes the view's in-flight token and returns it. While
	// another holder has it, Acquire fails with ErrInFlight.
	Acquire(ctx context.Context, id string) (string, error)
	// Release gives back token. A token that is no longer the current
	// holder's is ignored.
	Release(ctx context.Context, id, token string) error
	Close() error
}

type memoryEntry struct {
	state  State
	seen   time.Time
	holder string
}

// MemoryStore is a process-local Store. Views not touched within ttl are
// dropped by a background sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a MemoryStore and starts its sweep.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go s.cleanup()
	return s
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	cutoff := now.Add(-s.ttl)
	s.mu.Lock()
	for id, e := range s.entries {
		if e.holder == "" && e.seen.Before(cutoff) {
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()
}

// live returns the entry for id if it has not expired. Callers hold mu.
func (s *MemoryStore) live(id string) (*memoryEntry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if e.holder == "" && time.Since(e.seen) > s.ttl {
		delete(s.entries, id)
		return nil, false
	}
	return e, true
}

// Load returns the state of a live view and refreshes its ttl.
func (s *MemoryStore) Load(_ context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return State{}, ErrViewNotFound
	}
	e.seen = time.Now()
	return e.state, nil
}

// Save stores st under id.
func (s *MemoryStore) Save(_ context.Context, id string, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &memoryEntry{}
		s.entries[id] = e
	}
	e.state = st
	e.seen = time.Now()
	return nil
}

// Acquire takes the in-flight token of a live view.
func (s *MemoryStore) Acquire(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return "", ErrViewNotFound
	}
	if e.holder != "" {
		return "", ErrInFlight
	}
	e.holder = uuid.NewString()
	return e.holder, nil
}

// Release clears the in-flight token if token still holds it.
func (s *MemoryStore) Release(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok && e.holder == token {
		e.holder = ""
		e.seen = time.Now()
	}
	return nil
}

// Len returns the number of views currently held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the sweep.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}
