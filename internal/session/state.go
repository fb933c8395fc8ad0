// Package session tracks what happened during one run of the plant: what it
// said, how reminders were received and when it last saw activity. The
// runner persists it so `pixelplant status` can report on a running or
// finished session.
//
// All public methods are safe for concurrent use.
package session

import (
	"sync"
	"time"

	"github.com/nvandessel/pixelplant/internal/models"
)

// Summary is a copy of the session counters.
type Summary struct {
	ID           string         `json:"id"`
	StartedAt    time.Time      `json:"started_at"`
	LastTick     time.Time      `json:"last_tick"`
	EndedAt      *time.Time     `json:"ended_at,omitempty"`
	Spoken       map[string]int `json:"spoken"`
	Reminders    int            `json:"reminders"`
	Responses    int            `json:"responses"`
	Effective    int            `json:"effective"`
	Ignored      int            `json:"ignored"`
	Breaks       int            `json:"breaks"`
	LastMessage  string         `json:"last_message,omitempty"`
	LastCategory string         `json:"last_category,omitempty"`
}

// Messages returns the total number of messages spoken.
func (s Summary) Messages() int {
	n := 0
	for _, c := range s.Spoken {
		n += c
	}
	return n
}

// ResponseRate is the share of resolved reminders the user reacted to, or 0
// when none were resolved.
func (s Summary) ResponseRate() float64 {
	total := s.Responses + s.Ignored
	if total == 0 {
		return 0
	}
	return float64(s.Responses) / float64(total)
}

// Running reports whether the session has not been ended.
func (s Summary) Running() bool { return s.EndedAt == nil }

// State accumulates the counters of one session.
type State struct {
	mu      sync.RWMutex
	summary Summary
}

// NewState starts a session.
func NewState(id string, start time.Time) *State {
	return &State{summary: Summary{
		ID:        id,
		StartedAt: start,
		LastTick:  start,
		Spoken:    make(map[string]int),
	}}
}

// Tick records that the host loop ran at now.
func (s *State) Tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.summary.LastTick) {
		s.summary.LastTick = now
	}
}

// RecordMessage counts one spoken message.
func (s *State) RecordMessage(cat models.Category, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Spoken[cat.String()]++
	s.summary.LastMessage = text
	s.summary.LastCategory = cat.String()
}

// RecordEvents folds interaction events into the counters.
func (s *State) RecordEvents(events []models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		switch e.Kind {
		case models.EventReminder:
			s.summary.Reminders++
		case models.EventResponse:
			s.summary.Responses++
			if e.Effective {
				s.summary.Effective++
			}
		case models.EventIgnored:
			s.summary.Ignored++
		case models.EventBreak:
			s.summary.Breaks++
		}
	}
}

// End marks the session finished at now.
func (s *State) End(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.EndedAt = &now
}

// Summary returns a copy of the counters.
func (s *State) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.summary
	out.Spoken = make(map[string]int, len(s.summary.Spoken))
	for k, v := range s.summary.Spoken {
		out.Spoken[k] = v
	}
	if s.summary.EndedAt != nil {
		ended := *s.summary.EndedAt
		out.EndedAt = &ended
	}
	return out
}
