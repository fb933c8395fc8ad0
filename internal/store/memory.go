package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/pixelplant/internal/models"
)

// MemoryStore implements Store for testing and development.
type MemoryStore struct {
	mu      sync.RWMutex
	profile *models.UserProfile
	state   *models.PersonalityState
	events  []models.Event
	closed  bool
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadProfile returns a copy of the saved profile, or nil.
func (s *MemoryStore) LoadProfile(ctx context.Context) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.profile.Clone(), nil
}

// SaveProfile stores a copy of p.
func (s *MemoryStore) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	if p == nil {
		return fmt.Errorf("profile is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.profile = p.Clone()
	return nil
}

// LoadState returns a copy of the saved state, or nil.
func (s *MemoryStore) LoadState(ctx context.Context) (*models.PersonalityState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.state == nil {
		return nil, nil
	}
	c := *s.state
	return &c, nil
}

// SaveState stores a copy of st.
func (s *MemoryStore) SaveState(ctx context.Context, st *models.PersonalityState) error {
	if st == nil {
		return fmt.Errorf("state is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	c := *st
	s.state = &c
	return nil
}

// RecordEvent appends e, assigning an ID when it has none.
func (s *MemoryStore) RecordEvent(ctx context.Context, e models.Event) error {
	if err := prepareEvent(&e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.events = append(s.events, e)
	return nil
}

// Events returns the events at or after since, oldest first.
func (s *MemoryStore) Events(ctx context.Context, since time.Time) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return filterEvents(s.events, since), nil
}

// Reset drops everything.
func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.profile = nil
	s.state = nil
	s.events = nil
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// prepareEvent validates e and fills in a missing ID.
func prepareEvent(e *models.Event) error {
	if !e.Kind.Valid() {
		return fmt.Errorf("invalid event kind %q", e.Kind)
	}
	if e.At.IsZero() {
		return fmt.Errorf("event time is required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// filterEvents returns a sorted copy of the events at or after since.
func filterEvents(events []models.Event, since time.Time) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if since.IsZero() || !e.At.Before(since) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.Before(out[j].At)
	})
	return out
}
