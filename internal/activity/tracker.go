// Package activity turns debounced sensor observations into behavior snapshots.
//
// A Tracker buffers observations until the next Tick. Tick consumes the
// buffer once and then derives the snapshot purely from stored timestamps and
// the supplied clock reading, so repeated ticks at the same instant with no
// new input return identical snapshots.
package activity

import (
	"math"
	"time"

	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/models"
)

// Need identifies a reminder-worthy need with its own timer.
type Need int

const (
	NeedHydration Need = iota
	NeedMovement
	NeedPosture
	NeedBreak
)

// NumNeeds is the number of tracked needs.
const NumNeeds = 4

// String returns a string representation of the need
func (n Need) String() string {
	switch n {
	case NeedHydration:
		return "hydration"
	case NeedMovement:
		return "movement"
	case NeedPosture:
		return "posture"
	case NeedBreak:
		return "break"
	default:
		return "unknown"
	}
}

// Valid reports whether n is a tracked need.
func (n Need) Valid() bool {
	return n >= NeedHydration && n <= NeedBreak
}

// Observation is one debounced reading from the sensor collaborators.
type Observation struct {
	Motion       bool
	FaceDetected bool

	// PostureScore is nil when the camera produced no posture estimate.
	PostureScore *float64

	// LightLevel is nil when no ambient light reading is available.
	LightLevel *float64

	// CameraUnavailable marks a failed camera read. It never counts as
	// evidence of absence or poor posture.
	CameraUnavailable bool
}

// merge folds a later observation into o. Presence signals are OR-ed,
// scalar readings keep the newest value.
func (o *Observation) merge(next Observation) {
	o.Motion = o.Motion || next.Motion
	o.FaceDetected = o.FaceDetected || next.FaceDetected
	if next.PostureScore != nil || next.FaceDetected {
		o.CameraUnavailable = false
	}
	if next.PostureScore != nil {
		o.PostureScore = next.PostureScore
	}
	if next.LightLevel != nil {
		o.LightLevel = next.LightLevel
	}
	if next.CameraUnavailable {
		o.CameraUnavailable = true
		o.PostureScore = nil
	}
}

// ExpectationFunc returns the learned activity level for an hour and whether
// it is confident enough to use.
type ExpectationFunc func(hour int) (float64, bool)

// Tracker maintains activity history, presence, break detection and need
// timers. It is not safe for concurrent use.
type Tracker struct {
	cfg    Config
	expect ExpectationFunc

	pending *Observation

	window []float64
	head   int
	count  int

	lastSignal   time.Time
	sessionStart time.Time
	lastMotion   time.Time
	lastBreak    time.Time
	movingNow    bool

	postureKnown bool
	postureScore float64
	postureAt    time.Time

	lightKnown bool
	light      float64

	lastReset    [NumNeeds]time.Time
	lastReminded [NumNeeds]time.Time
	snoozeUntil  time.Time

	tookBreakAt       time.Time
	improvedPostureAt time.Time
	movedAt           time.Time

	breakDay    time.Time
	breaksToday int

	sleeping bool
}

// NewTracker creates a tracker whose timers all start at start.
func NewTracker(cfg Config, start time.Time) *Tracker {
	cfg = cfg.withDefaults()
	t := &Tracker{
		cfg:        cfg,
		window:     make([]float64, cfg.WindowSize),
		lastMotion: start,
		lastBreak:  start,
	}
	for i := range t.lastReset {
		t.lastReset[i] = start
	}
	return t
}

// Config returns the effective configuration.
func (t *Tracker) Config() Config { return t.cfg }

// SetExpectation installs the learned-pattern lookup used by the stress
// estimate. A nil function means no pattern is ever confident.
func (t *Tracker) SetExpectation(fn ExpectationFunc) { t.expect = fn }

// SetInterval changes the reminder interval of need. Non-positive durations
// are ignored.
func (t *Tracker) SetInterval(need Need, d time.Duration) {
	if d <= 0 {
		return
	}
	switch need {
	case NeedHydration:
		t.cfg.HydrationInterval = d
	case NeedMovement:
		t.cfg.MovementInterval = d
	case NeedPosture:
		t.cfg.PostureInterval = d
	case NeedBreak:
		t.cfg.BreakInterval = d
	}
}

// Observe buffers a reading for the next Tick. Several readings between two
// ticks are merged.
func (t *Tracker) Observe(obs Observation) {
	if t.pending == nil {
		o := obs
		t.pending = &o
		return
	}
	t.pending.merge(obs)
}

// HasPending reports whether an observation is waiting for the next Tick.
func (t *Tracker) HasPending() bool { return t.pending != nil }

// Tick consumes any buffered observation at now and returns the snapshot.
func (t *Tracker) Tick(now time.Time) models.BehaviorSnapshot {
	if t.pending != nil {
		t.consume(now, *t.pending)
		t.pending = nil
	}
	return t.Snapshot(now)
}

func (t *Tracker) consume(now time.Time, obs Observation) {
	switch {
	case obs.Motion:
		t.push(constants.MotionSample)
	case obs.FaceDetected:
		t.push(constants.FaceOnlySample)
	case !obs.CameraUnavailable:
		t.push(0)
	}
	t.movingNow = obs.Motion

	if obs.LightLevel != nil && !math.IsNaN(*obs.LightLevel) {
		t.lightKnown = true
		t.light = clamp01(*obs.LightLevel)
	}

	if obs.CameraUnavailable {
		t.postureKnown = false
	} else if obs.PostureScore != nil && !math.IsNaN(*obs.PostureScore) {
		score := clamp01(*obs.PostureScore)
		if t.postureFresh(now) && t.postureScore < t.cfg.GoodPosture && score >= t.cfg.GoodPosture {
			t.improvedPostureAt = now
			t.lastReset[NeedPosture] = now
		}
		t.postureKnown = true
		t.postureScore = score
		t.postureAt = now
	}

	if obs.Motion {
		if now.Sub(t.lastMotion) >= t.cfg.MovedAfterStillness {
			t.movedAt = now
			t.lastReset[NeedMovement] = now
		}
		t.lastMotion = now
	}

	if obs.Motion || obs.FaceDetected {
		t.signal(now)
	}
}

// signal records a presence signal and detects breaks and new sessions.
func (t *Tracker) signal(now time.Time) {
	if t.lastSignal.IsZero() {
		t.sessionStart = now
		t.lastSignal = now
		return
	}

	gap := now.Sub(t.lastSignal)
	if gap >= t.cfg.PresenceTimeout {
		t.sessionStart = now
	}
	if gap >= t.cfg.BreakMinDuration {
		t.recordBreak(now)
	}
	t.lastSignal = now
}

func (t *Tracker) recordBreak(now time.Time) {
	t.lastBreak = now
	t.tookBreakAt = now
	t.lastReset[NeedMovement] = now
	t.lastReset[NeedPosture] = now
	if t.lastMotion.Before(now) {
		t.lastMotion = now
	}

	if !sameDay(t.breakDay, now) {
		t.breakDay = now
		t.breaksToday = 0
	}
	t.breaksToday++
}

func (t *Tracker) push(sample float64) {
	if len(t.window) == 0 {
		return
	}
	t.window[t.head] = sample
	t.head = (t.head + 1) % len(t.window)
	if t.count < len(t.window) {
		t.count++
	}
}

// ActivityLevel is the linearly recency-weighted mean of the window: the
// newest sample weighs count, the oldest weighs 1.
func (t *Tracker) ActivityLevel() float64 {
	if t.count == 0 {
		return 0
	}
	n := len(t.window)
	oldest := (t.head - t.count + n) % n

	var sum, weights float64
	for i := 0; i < t.count; i++ {
		w := float64(i + 1)
		sum += t.window[(oldest+i)%n] * w
		weights += w
	}
	return sum / weights
}

// Present reports whether a presence signal was seen within the timeout.
func (t *Tracker) Present(now time.Time) bool {
	if t.lastSignal.IsZero() {
		return false
	}
	return now.Sub(t.lastSignal) < t.cfg.PresenceTimeout
}

// Snapshot derives the behavior snapshot at now without consuming input.
func (t *Tracker) Snapshot(now time.Time) models.BehaviorSnapshot {
	present := t.Present(now)
	level := t.ActivityLevel()

	s := models.BehaviorSnapshot{
		Taken:            now,
		IsUserPresent:    present,
		ActivityLevel:    level,
		LastMovementTime: t.lastMotion,
		LastBreakTime:    t.lastBreak,
		LightLevel:       t.light,
		LightKnown:       t.lightKnown,
		HourOfDay:        now.Hour(),
		Sleeping:         t.sleeping,
	}

	if t.postureFresh(now) {
		s.PostureKnown = true
		s.PostureQuality = t.postureScore
	}

	if present {
		s.InactivityDuration = nonNegative(now.Sub(t.lastMotion))
		s.IsUserMoving = t.movingNow
		s.IsUserStanding = level >= constants.MovingActivityThreshold
		s.IsUserSitting = !s.IsUserStanding
		s.SessionStartTime = t.sessionStart
		s.SessionDuration = t.workSession(now)
	}

	if t.expect != nil {
		if v, ok := t.expect(s.HourOfDay); ok {
			s.ExpectedActivity = v
			s.PatternKnown = true
		}
	}

	s.TookBreak = within(t.tookBreakAt, now, t.cfg.PositiveWindow)
	s.ImprovedPosture = within(t.improvedPostureAt, now, t.cfg.PositiveWindow)
	s.GotUpAndMoved = within(t.movedAt, now, t.cfg.PositiveWindow)
	s.HasPositiveBehavior = s.TookBreak || s.ImprovedPosture || s.GotUpAndMoved

	if present {
		s.EstimatedStress = t.stress(s)
	}

	if !t.sleeping {
		s.NeedsHydration = t.ReminderDue(NeedHydration, now)
		s.NeedsMovement = t.ReminderDue(NeedMovement, now)
		s.NeedsPostureAdjustment = t.ReminderDue(NeedPosture, now)
		s.NeedsBreak = t.ReminderDue(NeedBreak, now)
		s.NeedsSupport = s.EstimatedStress >= t.cfg.StressThreshold || s.HasAnyNeed()
	}
	return s
}

// workSession is the time since the later of session start and last break.
func (t *Tracker) workSession(now time.Time) time.Duration {
	from := t.sessionStart
	if t.lastBreak.After(from) {
		from = t.lastBreak
	}
	return nonNegative(now.Sub(from))
}

func (t *Tracker) stress(s models.BehaviorSnapshot) float64 {
	inactivity := 0.0
	if t.cfg.UrgentThreshold > 0 {
		inactivity = math.Min(1, float64(s.InactivityDuration)/float64(t.cfg.UrgentThreshold))
	}

	posture := 0.0
	if s.PostureKnown {
		posture = 1 - s.PostureQuality
	}

	ref := t.cfg.MinHealthyActivity
	if s.PatternKnown {
		ref = s.ExpectedActivity
	}
	deficit := 0.0
	if ref > 0 && s.ActivityLevel < ref {
		deficit = (ref - s.ActivityLevel) / ref
	}

	return clamp01(constants.StressInactivityWeight*inactivity +
		constants.StressPostureWeight*posture +
		constants.StressActivityWeight*deficit)
}

// ReminderDue reports whether need should be reminded at now. Sleep, absence,
// an active snooze or a recent reminder for the same need all suppress it.
func (t *Tracker) ReminderDue(need Need, now time.Time) bool {
	if !need.Valid() || t.sleeping || !t.Present(now) {
		return false
	}
	if now.Before(t.snoozeUntil) {
		return false
	}
	if last := t.lastReminded[need]; !last.IsZero() && now.Sub(last) < t.cfg.ReminderCooldown {
		return false
	}

	switch need {
	case NeedBreak:
		return t.workSession(now) > t.cfg.BreakInterval
	case NeedPosture:
		if !t.postureFresh(now) || t.postureScore >= t.cfg.GoodPosture {
			return false
		}
	}
	return now.Sub(t.lastReset[need]) >= t.cfg.interval(need)
}

// ResetTimer marks need as satisfied at now. Resetting the break need starts
// a new work session.
func (t *Tracker) ResetTimer(need Need, now time.Time) {
	if !need.Valid() {
		return
	}
	t.lastReset[need] = now
	if need == NeedBreak {
		t.lastBreak = now
	}
}

// MarkReminded starts the reminder cooldown for need.
func (t *Tracker) MarkReminded(need Need, now time.Time) {
	if need.Valid() {
		t.lastReminded[need] = now
	}
}

// Snooze suppresses every reminder until now+d.
func (t *Tracker) Snooze(d time.Duration, now time.Time) {
	if d <= 0 {
		t.snoozeUntil = time.Time{}
		return
	}
	t.snoozeUntil = now.Add(d)
}

// SetSleeping turns sleep mode on or off. Tracking continues while asleep.
func (t *Tracker) SetSleeping(sleeping bool) { t.sleeping = sleeping }

// Sleeping reports whether sleep mode is on.
func (t *Tracker) Sleeping() bool { return t.sleeping }

// BreaksToday returns the number of breaks detected on now's calendar day.
func (t *Tracker) BreaksToday(now time.Time) int {
	if !sameDay(t.breakDay, now) {
		return 0
	}
	return t.breaksToday
}

func (t *Tracker) postureFresh(now time.Time) bool {
	return t.postureKnown && now.Sub(t.postureAt) <= t.cfg.PresenceTimeout
}

func within(at, now time.Time, window time.Duration) bool {
	if at.IsZero() || now.Before(at) {
		return false
	}
	return now.Sub(at) < window
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
