// Package messages holds the category-keyed bank of caring message templates
// and the bounded queue that carries generated text to the renderer.
package messages

import (
	"time"

	"github.com/nvandessel/pixelplant/internal/models"
)

// Bank maps every category to an ordered list of candidate messages.
// Order matters: it breaks scoring ties.
type Bank struct {
	entries [models.NumCategories][]models.PersonalityMessage
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	return &Bank{}
}

// DefaultBank returns the built-in messages with every LastUsed stamped at
// now and every UseCount at zero.
func DefaultBank(now time.Time) *Bank {
	b := NewBank()
	for _, cat := range models.AllCategories() {
		for _, tpl := range defaultTables[cat] {
			b.Add(cat, models.PersonalityMessage{
				Text:      tpl.text,
				Mood:      tpl.mood,
				CareLevel: tpl.care,
				LastUsed:  now,
			})
		}
	}
	return b
}

// Add appends msg to cat. It reports false for invalid categories or empty
// text.
func (b *Bank) Add(cat models.Category, msg models.PersonalityMessage) bool {
	if !cat.Valid() || msg.Text == "" {
		return false
	}
	b.entries[cat] = append(b.entries[cat], msg)
	return true
}

// Candidates returns the live candidate slice for cat. Callers may update
// usage metadata through it; invalid categories yield nil.
func (b *Bank) Candidates(cat models.Category) []models.PersonalityMessage {
	if !cat.Valid() {
		return nil
	}
	return b.entries[cat]
}

// Message returns a copy of the i-th message of cat.
func (b *Bank) Message(cat models.Category, i int) (models.PersonalityMessage, bool) {
	if !cat.Valid() || i < 0 || i >= len(b.entries[cat]) {
		return models.PersonalityMessage{}, false
	}
	return b.entries[cat][i], true
}

// Touch records that the i-th message of cat was used at now.
func (b *Bank) Touch(cat models.Category, i int, now time.Time) bool {
	if !cat.Valid() || i < 0 || i >= len(b.entries[cat]) {
		return false
	}
	m := &b.entries[cat][i]
	m.UseCount++
	m.LastUsed = now
	return true
}

// Len returns the number of messages in cat, or 0 for invalid categories.
func (b *Bank) Len(cat models.Category) int {
	if !cat.Valid() {
		return 0
	}
	return len(b.entries[cat])
}

// Total returns the number of messages across every category.
func (b *Bank) Total() int {
	n := 0
	for _, e := range b.entries {
		n += len(e)
	}
	return n
}

// ResetUsage clears every use count and stamps LastUsed at now.
func (b *Bank) ResetUsage(now time.Time) {
	for c := range b.entries {
		for i := range b.entries[c] {
			b.entries[c][i].UseCount = 0
			b.entries[c][i].LastUsed = now
		}
	}
}
