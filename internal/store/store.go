// Package store provides persistence for the user profile, the personality
// state and the interaction event log.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/pixelplant/internal/models"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// ProfileStore persists the learned user profile.
// LoadProfile returns (nil, nil) when nothing has been saved yet.
type ProfileStore interface {
	LoadProfile(ctx context.Context) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, p *models.UserProfile) error
}

// StateStore persists the personality engine state.
// LoadState returns (nil, nil) when nothing has been saved yet.
type StateStore interface {
	LoadState(ctx context.Context) (*models.PersonalityState, error)
	SaveState(ctx context.Context, s *models.PersonalityState) error
}

// EventLog records interaction events for later analysis.
type EventLog interface {
	RecordEvent(ctx context.Context, e models.Event) error

	// Events returns every event at or after since, oldest first.
	// A zero since returns the whole log.
	Events(ctx context.Context, since time.Time) ([]models.Event, error)
}

// Store combines all persistence concerns behind one handle.
type Store interface {
	ProfileStore
	StateStore
	EventLog

	// Reset removes everything the store holds.
	Reset(ctx context.Context) error

	Close() error
}
