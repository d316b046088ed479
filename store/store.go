package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/searcharc/model"
)

var (
	ErrRunExists   = errors.New("run already exists")
	ErrRunNotFound = errors.New("run not found")
	ErrBadRun      = errors.New("invalid run")
)

// RunStore is an in-memory, thread-safe store for completed analysis runs.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*model.Run
	subs []func(model.Run)
}

// NewRunStore constructs an empty store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*model.Run),
	}
}

// Put inserts a completed run. It returns an error if the ID already exists.
// Subscribers are notified with a copy of the run.
func (s *RunStore) Put(run *model.Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrBadRun)
	}

	s.mu.Lock()
	if _, exists := s.runs[run.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrRunExists, run.ID)
	}
	s.runs[run.ID] = run
	event := *run
	subs := append([]func(model.Run){}, s.subs...)
	s.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// Get returns the run with the given ID.
func (s *RunStore) Get(id string) (*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	}
	return run, nil
}

// List returns a snapshot of all runs, newest first. Ties on creation time
// fall back to the ID so the order is stable.
func (s *RunStore) List() []*model.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Latest returns the most recently created run, or nil when the store is
// empty.
func (s *RunStore) Latest() *model.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *model.Run
	for _, run := range s.runs {
		if latest == nil || run.CreatedAt.After(latest.CreatedAt) ||
			(run.CreatedAt.Equal(latest.CreatedAt) && run.ID < latest.ID) {
			latest = run
		}
	}
	return latest
}

// Len returns the number of stored runs.
func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Subscribe registers a callback invoked for every stored run. It returns an
// unsubscribe function.
func (s *RunStore) Subscribe(fn func(model.Run)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < 0 || idx >= len(s.subs) {
			return
		}
		s.subs = append(s.subs[:idx], s.subs[idx+1:]...)
		idx = -1
	}
}
