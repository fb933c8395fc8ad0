package plant

import (
	"fmt"
	"math"
	"time"
)

// Reading is one sensor sample. Nil fields were not measured.
type Reading struct {
	At                time.Time `json:"at,omitempty"`
	Motion            *bool     `json:"motion,omitempty"`
	Face              *bool     `json:"face,omitempty"`
	Posture           *float64  `json:"posture,omitempty"`
	CameraUnavailable bool      `json:"camera_unavailable,omitempty"`
	Light             *float64  `json:"light,omitempty"`

	// Sleep forces sleep mode on or off.
	Sleep *bool `json:"sleep,omitempty"`
}

// Validate rejects scores outside [0,1].
func (r Reading) Validate() error {
	if r.Posture != nil && !unit(*r.Posture) {
		return fmt.Errorf("posture must be between 0 and 1, got %v", *r.Posture)
	}
	if r.Light != nil && !unit(*r.Light) {
		return fmt.Errorf("light must be between 0 and 1, got %v", *r.Light)
	}
	return nil
}

// Empty reports whether r carries no measurement.
func (r Reading) Empty() bool {
	return r.Motion == nil && r.Face == nil && r.Posture == nil &&
		!r.CameraUnavailable && r.Light == nil && r.Sleep == nil
}

func unit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// Bool returns a pointer to v, for building readings.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v, for building readings.
func Float(v float64) *float64 { return &v }
