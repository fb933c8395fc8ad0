package models

import "time"

// EventKind classifies an entry in the interaction log.
type EventKind string

const (
	// EventReminder is a reminder message delivered to the user.
	EventReminder EventKind = "reminder"

	// EventResponse is a user reaction to the last reminder.
	EventResponse EventKind = "response"

	// EventIgnored is a reminder that went unanswered.
	EventIgnored EventKind = "ignored"

	// EventBreak is a detected break (absence or stillness long enough to count).
	EventBreak EventKind = "break"

	// EventActivity is a periodic activity sample taken while learning.
	EventActivity EventKind = "activity"
)

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventReminder, EventResponse, EventIgnored, EventBreak, EventActivity:
		return true
	}
	return false
}

// Event is one row of the interaction log used for insights.
type Event struct {
	ID       string    `json:"id"`
	Kind     EventKind `json:"kind"`
	Category Category  `json:"category"`
	At       time.Time `json:"at"`

	// Effective is set for responses; false means the user reacted but the
	// reminder did not help.
	Effective bool `json:"effective,omitempty"`

	// ResponseTime is the delay between the reminder and the reaction.
	ResponseTime time.Duration `json:"response_time,omitempty"`

	// Activity is the activity level for EventActivity samples.
	Activity float64 `json:"activity,omitempty"`
}

// EventBuffer is a bounded FIFO of events waiting to be persisted. When full,
// the oldest event is dropped.
type EventBuffer struct {
	events []Event
	limit  int
}

// NewEventBuffer returns a buffer holding at most limit events. A limit below
// one is treated as one.
func NewEventBuffer(limit int) *EventBuffer {
	if limit < 1 {
		limit = 1
	}
	return &EventBuffer{limit: limit}
}

// Add appends e, dropping the oldest event if the buffer is full.
func (b *EventBuffer) Add(e Event) {
	if len(b.events) == b.limit {
		copy(b.events, b.events[1:])
		b.events = b.events[:len(b.events)-1]
	}
	b.events = append(b.events, e)
}

// Drain returns the buffered events and empties the buffer.
func (b *EventBuffer) Drain() []Event {
	out := b.events
	b.events = nil
	return out
}

// Len returns the number of buffered events.
func (b *EventBuffer) Len() int { return len(b.events) }
