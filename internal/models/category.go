package models

import (
	"fmt"
	"strings"
)

// Category identifies a kind of caring response. Each category owns its own
// collection of candidate messages in the message bank.
type Category int

const (
	CategoryGreeting Category = iota
	CategoryHydration
	CategoryMovement
	CategoryPosture
	CategoryBreak
	CategoryEncouragement
	CategoryCelebration
	CategoryConcern
	CategoryUrgent
	CategoryGoodnight
)

// NumCategories is the number of defined response categories.
const NumCategories = 10

var categoryNames = [NumCategories]string{
	"greeting",
	"hydration",
	"movement",
	"posture",
	"break",
	"encouragement",
	"celebration",
	"concern",
	"urgent",
	"goodnight",
}

// String returns the category name, or "unknown" for out-of-range values.
func (c Category) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return categoryNames[c]
}

// Valid reports whether c indexes a defined category.
func (c Category) Valid() bool {
	return c >= 0 && int(c) < NumCategories
}

// ParseCategory maps a category name to its value (case-insensitive).
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// AllCategories returns every defined category in declaration order.
func AllCategories() []Category {
	out := make([]Category, NumCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name.
func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
