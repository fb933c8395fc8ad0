package mood

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/pixelplant/internal/models"
)

func TestDerive(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name string
		snap models.BehaviorSnapshot
		want models.Mood
	}{
		{"calm", models.BehaviorSnapshot{}, models.MoodHappy},
		{"sleep wins over everything", models.BehaviorSnapshot{Sleeping: true, InactivityDuration: 3 * time.Hour, NeedsSupport: true}, models.MoodSleeping},
		{"urgent inactivity", models.BehaviorSnapshot{InactivityDuration: 121 * time.Minute, HasPositiveBehavior: true}, models.MoodWorried},
		{"exactly urgent is only concerned", models.BehaviorSnapshot{InactivityDuration: 120 * time.Minute}, models.MoodConcerned},
		{"concerned inactivity", models.BehaviorSnapshot{InactivityDuration: 61 * time.Minute, NeedsSupport: true}, models.MoodConcerned},
		{"positive beats support", models.BehaviorSnapshot{HasPositiveBehavior: true, NeedsSupport: true}, models.MoodCelebrating},
		{"support", models.BehaviorSnapshot{NeedsSupport: true}, models.MoodCaring},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(tt.snap, th); got != tt.want {
				t.Errorf("Derive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUrgency(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name string
		snap models.BehaviorSnapshot
		want float64
	}{
		{"idle", models.BehaviorSnapshot{}, 0},
		{"normal band", models.BehaviorSnapshot{InactivityDuration: 31 * time.Minute}, 0.3},
		{"concerned band", models.BehaviorSnapshot{InactivityDuration: 61 * time.Minute}, 0.5},
		{"urgent band", models.BehaviorSnapshot{InactivityDuration: 121 * time.Minute}, 0.8},
		{"needs only", models.BehaviorSnapshot{NeedsHydration: true, NeedsMovement: true, NeedsPostureAdjustment: true}, 0.6},
		{"clamped", models.BehaviorSnapshot{InactivityDuration: 125 * time.Minute, NeedsHydration: true}, 1},
		{"concerned plus posture", models.BehaviorSnapshot{InactivityDuration: 90 * time.Minute, NeedsPostureAdjustment: true}, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Urgency(tt.snap, th); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Urgency() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		name    string
		current models.CareLevel
		urgency float64
		want    models.CareLevel
	}{
		{"escalate", models.CareGentle, 0.75, models.CareEncouraging},
		{"worried stays", models.CareWorried, 1, models.CareWorried},
		{"boundary 0.7 holds", models.CareConcerned, 0.7, models.CareConcerned},
		{"de-escalate", models.CareConcerned, 0.1, models.CareEncouraging},
		{"gentle stays", models.CareGentle, 0, models.CareGentle},
		{"boundary 0.3 holds", models.CareEncouraging, 0.3, models.CareEncouraging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Step(tt.current, tt.urgency); got != tt.want {
				t.Errorf("Step(%v, %v) = %v, want %v", tt.current, tt.urgency, got, tt.want)
			}
		})
	}
}

func TestStep_NeverMovesTwoLevels(t *testing.T) {
	for level := models.CareGentle; level <= models.CareWorried; level++ {
		for u := 0.0; u <= 1.0; u += 0.05 {
			got := Step(level, u)
			if d := int(got) - int(level); d > 1 || d < -1 {
				t.Errorf("Step(%v, %.2f) = %v moved %d levels", level, u, got, d)
			}
		}
	}
}

func TestUrgentScenario(t *testing.T) {
	snap := models.BehaviorSnapshot{
		IsUserPresent:      true,
		InactivityDuration: 125 * time.Minute,
		NeedsHydration:     true,
		NeedsSupport:       true,
	}
	th := DefaultThresholds()

	u := Urgency(snap, th)
	if u != 1 {
		t.Errorf("Urgency = %v, want 1", u)
	}
	if m := Derive(snap, th); m != models.MoodWorried {
		t.Errorf("Derive = %v, want worried", m)
	}
	if c := Step(models.CareGentle, u); c != models.CareEncouraging {
		t.Errorf("Step(gentle) = %v, want encouraging", c)
	}
}

func TestCaringPhrase(t *testing.T) {
	if got := CaringPhrase(models.CareWorried); got != "is really worried and insists" {
		t.Errorf("CaringPhrase(worried) = %q", got)
	}
	if got := CaringPhrase(models.CareLevel(17)); got != "cares about you" {
		t.Errorf("CaringPhrase(invalid) = %q", got)
	}
}

func TestDescribe(t *testing.T) {
	s := models.BehaviorSnapshot{
		IsUserPresent:      true,
		InactivityDuration: 50 * time.Minute,
		ActivityLevel:      0.25,
		NeedsHydration:     true,
		NeedsBreak:         true,
	}
	got := Describe(s)
	for _, want := range []string{"inactive 50 min", "activity 0.25", "needs hydration+break"} {
		if !strings.Contains(got, want) {
			t.Errorf("Describe() = %q, missing %q", got, want)
		}
	}
	if Describe(models.BehaviorSnapshot{}) != "user away" {
		t.Errorf("Describe(absent) = %q", Describe(models.BehaviorSnapshot{}))
	}
}
