// Package monitor assesses user behavior from sensor observations. It owns
// the activity tracker, the hourly pattern learner and the user profile,
// and produces one behavior snapshot per tick.
//
// Sensor setters only buffer readings; Update consumes them. A Monitor is not
// safe for concurrent use.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/nvandessel/pixelplant/internal/activity"
	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/learning"
	"github.com/nvandessel/pixelplant/internal/logging"
	"github.com/nvandessel/pixelplant/internal/models"
	"github.com/nvandessel/pixelplant/internal/store"
)

// Config holds the monitor settings.
type Config struct {
	Activity activity.Config

	LearningEnabled bool
	LearningRate    float64
	LearnInterval   time.Duration

	WorkStartHour int
	WorkEndHour   int

	// AutoWake leaves sleep mode when motion is detected.
	AutoWake bool

	// ResponseWindow is how long after a reminder motion still counts as the
	// user responding to it.
	ResponseWindow time.Duration
}

// DefaultConfig returns the default monitor settings.
func DefaultConfig() Config {
	return Config{
		Activity:        activity.DefaultConfig(),
		LearningEnabled: true,
		LearningRate:    constants.DefaultLearningRate,
		LearnInterval:   constants.LearnInterval,
		WorkStartHour:   constants.DefaultWorkStartHour,
		WorkEndHour:     constants.DefaultWorkEndHour,
		AutoWake:        true,
		ResponseWindow:  constants.PresenceTimeout,
	}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDecisionLogger sets the JSONL decision trace.
func WithDecisionLogger(dl *logging.DecisionLogger) Option {
	return func(m *Monitor) { m.decisions = dl }
}

// WithClock replaces the wall clock used by query methods.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithProfileStore sets where SaveUserProfile and LoadUserProfile persist.
func WithProfileStore(s store.ProfileStore) Option {
	return func(m *Monitor) { m.store = s }
}

// Monitor turns sensor observations into behavior snapshots.
type Monitor struct {
	cfg       Config
	logger    *slog.Logger
	decisions *logging.DecisionLogger
	now       func() time.Time
	store     store.ProfileStore

	tracker *activity.Tracker
	learner *learning.PatternLearner
	profile *models.UserProfile
	events  *models.EventBuffer

	current     models.BehaviorSnapshot
	lastLearn   time.Time
	lastBreak   time.Time
	lastRemind  time.Time
	wakePending bool
	initialized bool
}

// New creates a monitor. Call Initialize before the first Update.
func New(cfg Config, opts ...Option) *Monitor {
	if cfg.LearnInterval <= 0 {
		cfg.LearnInterval = constants.LearnInterval
	}
	if cfg.ResponseWindow <= 0 {
		cfg.ResponseWindow = constants.PresenceTimeout
	}
	m := &Monitor{
		cfg:    cfg,
		logger: logging.Discard(),
		now:    time.Now,
		events: models.NewEventBuffer(constants.MaxPendingEvents),
	}
	for _, opt := range opts {
		opt(m)
	}

	start := m.now()
	m.tracker = activity.NewTracker(cfg.Activity, start)
	m.learner = learning.NewPatternLearner(cfg.LearningRate, cfg.WorkStartHour, cfg.WorkEndHour)
	m.tracker.SetExpectation(m.learner.Expected)

	ws, we := m.learner.WorkingHours()
	m.profile = models.NewUserProfile(ws, we, start)
	m.syncProfileIntervals()
	return m
}

// Initialize takes the first snapshot. It always succeeds.
func (m *Monitor) Initialize() bool {
	m.current = m.tracker.Snapshot(m.now())
	m.lastBreak = m.current.LastBreakTime
	m.initialized = true
	ws, we := m.learner.WorkingHours()
	m.logger.Info("behavior monitor initialized", "work_start", ws, "work_end", we, "learning", m.cfg.LearningEnabled)
	return true
}

// Update consumes buffered readings and recomputes the snapshot at now.
// Calling it again with no new readings yields the same snapshot.
func (m *Monitor) Update(now time.Time) models.BehaviorSnapshot {
	if m.wakePending {
		m.wakePending = false
		m.setSleep(false, "motion")
	}

	s := m.tracker.Tick(now)
	m.current = s

	if s.TookBreak && s.LastBreakTime.After(m.lastBreak) {
		m.lastBreak = s.LastBreakTime
		m.events.Add(models.Event{Kind: models.EventBreak, Category: models.CategoryBreak, At: s.LastBreakTime})
		m.logger.Debug("break detected", "breaks_today", m.tracker.BreaksToday(now))
	}

	if m.cfg.LearningEnabled && s.IsUserPresent && !s.Sleeping && m.learnDue(now) {
		m.learn(now, s)
		// The new sample may have made this hour's pattern confident.
		s = m.tracker.Snapshot(now)
		m.current = s
	}

	m.logger.Log(context.Background(), logging.LevelTrace, "tick",
		"present", s.IsUserPresent, "activity", s.ActivityLevel, "inactive_min", s.InactivityMinutes(),
		"needs_hydration", s.NeedsHydration, "needs_movement", s.NeedsMovement,
		"needs_posture", s.NeedsPostureAdjustment, "needs_break", s.NeedsBreak)
	return s
}

func (m *Monitor) learnDue(now time.Time) bool {
	return m.lastLearn.IsZero() || now.Sub(m.lastLearn) >= m.cfg.LearnInterval
}

func (m *Monitor) learn(now time.Time, s models.BehaviorSnapshot) {
	m.lastLearn = now
	m.learner.Update(s.HourOfDay, s.ActivityLevel)
	m.events.Add(models.Event{Kind: models.EventActivity, Category: models.CategoryEncouragement, At: now, Activity: s.ActivityLevel})

	conf := m.learner.ConfidenceFor(s.HourOfDay)
	m.decisions.Log(map[string]any{
		"event":      logging.EventPatternLearned,
		"hour":       s.HourOfDay,
		"observed":   s.ActivityLevel,
		"confidence": conf,
	})
}

// ProcessMotionSensor buffers a motion reading. Motion during sleep wakes
// the monitor at the next Update when AutoWake is set.
func (m *Monitor) ProcessMotionSensor(motion bool) {
	m.tracker.Observe(activity.Observation{Motion: motion})
	if motion && m.tracker.Sleeping() && m.cfg.AutoWake {
		m.wakePending = true
	}
}

// ProcessCameraData buffers a camera reading. posture is the posture score
// in [0,1]; NaN means the frame had no usable pose.
func (m *Monitor) ProcessCameraData(faceDetected bool, posture float64) {
	obs := activity.Observation{FaceDetected: faceDetected}
	if !math.IsNaN(posture) {
		p := posture
		obs.PostureScore = &p
	}
	m.tracker.Observe(obs)
}

// ProcessCameraUnavailable records a failed camera read. It clears the
// posture signal and is never treated as absence.
func (m *Monitor) ProcessCameraUnavailable() {
	m.tracker.Observe(activity.Observation{CameraUnavailable: true})
}

// ProcessEnvironmentalData buffers an ambient light reading in [0,1].
func (m *Monitor) ProcessEnvironmentalData(light float64) {
	if math.IsNaN(light) {
		return
	}
	l := light
	m.tracker.Observe(activity.Observation{LightLevel: &l})
}

// CurrentBehavior returns the snapshot of the last Update.
func (m *Monitor) CurrentBehavior() models.BehaviorSnapshot { return m.current }

// IsHydrationReminderDue reports whether a hydration reminder is due now.
func (m *Monitor) IsHydrationReminderDue() bool {
	return m.tracker.ReminderDue(activity.NeedHydration, m.now())
}

// IsMovementReminderDue reports whether a movement reminder is due now.
func (m *Monitor) IsMovementReminderDue() bool {
	return m.tracker.ReminderDue(activity.NeedMovement, m.now())
}

// IsPostureReminderDue reports whether a posture reminder is due now.
func (m *Monitor) IsPostureReminderDue() bool {
	return m.tracker.ReminderDue(activity.NeedPosture, m.now())
}

// IsBreakReminderDue reports whether a break reminder is due now.
func (m *Monitor) IsBreakReminderDue() bool {
	return m.tracker.ReminderDue(activity.NeedBreak, m.now())
}

// NeedsReminder reports whether s carries any reminder-worthy need.
func (m *Monitor) NeedsReminder(s models.BehaviorSnapshot) bool {
	return !s.Sleeping && s.HasAnyNeed()
}

// ResetHydrationTimer marks hydration as satisfied now.
func (m *Monitor) ResetHydrationTimer() { m.tracker.ResetTimer(activity.NeedHydration, m.now()) }

// ResetMovementTimer marks movement as satisfied now.
func (m *Monitor) ResetMovementTimer() { m.tracker.ResetTimer(activity.NeedMovement, m.now()) }

// ResetPostureTimer marks posture as satisfied now.
func (m *Monitor) ResetPostureTimer() { m.tracker.ResetTimer(activity.NeedPosture, m.now()) }

// ResetBreakTimer starts a new work session now.
func (m *Monitor) ResetBreakTimer() { m.tracker.ResetTimer(activity.NeedBreak, m.now()) }

// MarkReminderSent starts the reminder cooldown for need.
func (m *Monitor) MarkReminderSent(need activity.Need) {
	now := m.now()
	m.tracker.MarkReminded(need, now)
	if need.Valid() {
		m.lastRemind = now
	}
}

// HasUserResponded reports whether motion followed the last reminder within
// the response window.
func (m *Monitor) HasUserResponded() bool {
	if m.lastRemind.IsZero() {
		return false
	}
	moved := m.current.LastMovementTime
	return moved.After(m.lastRemind) && moved.Sub(m.lastRemind) <= m.cfg.ResponseWindow
}

// SnoozeReminders suppresses every reminder for d. A non-positive d cancels
// the snooze.
func (m *Monitor) SnoozeReminders(d time.Duration) {
	m.tracker.Snooze(d, m.now())
	m.logger.Info("reminders snoozed", "duration", d)
}

// SetSleepMode turns sleep mode on or off. Tracking continues while asleep
// but no needs are reported.
func (m *Monitor) SetSleepMode(sleeping bool) {
	m.setSleep(sleeping, "manual")
}

// WakeUp leaves sleep mode.
func (m *Monitor) WakeUp() {
	m.wakePending = false
	m.setSleep(false, "manual")
}

// IsSleepMode reports whether sleep mode is on.
func (m *Monitor) IsSleepMode() bool { return m.tracker.Sleeping() }

func (m *Monitor) setSleep(sleeping bool, reason string) {
	if m.tracker.Sleeping() == sleeping {
		return
	}
	m.tracker.SetSleeping(sleeping)
	m.logger.Info("sleep mode changed", "sleeping", sleeping, "reason", reason)
	m.decisions.Log(map[string]any{
		"event":    logging.EventSleepChanged,
		"sleeping": sleeping,
		"reason":   reason,
	})
}

// RecordUserResponse folds a reminder outcome into the profile's
// responsiveness estimate.
func (m *Monitor) RecordUserResponse(positive bool) {
	target := 0.0
	if positive {
		target = 1
	}
	rate := m.cfg.LearningRate
	if rate <= 0 || rate > 1 {
		rate = constants.DefaultLearningRate
	}
	m.profile.ReminderResponsiveness = m.profile.ReminderResponsiveness*(1-rate) + target*rate
	m.profile.UpdatedAt = m.now()
}

// UserProfile returns a copy of the profile with the current patterns.
func (m *Monitor) UserProfile() *models.UserProfile {
	p := m.profile.Clone()
	p.Patterns = m.learner.Patterns()
	p.WorkStartHour, p.WorkEndHour = m.learner.WorkingHours()
	p.LearningConfidence = m.learner.LearningConfidence()
	return p
}

// SetUserProfile replaces the profile, including working hours, reminder
// intervals and learned patterns. A nil profile is ignored.
func (m *Monitor) SetUserProfile(p *models.UserProfile) {
	if p == nil {
		return
	}
	m.profile = p.Clone()
	m.learner.SetWorkingHours(p.WorkStartHour, p.WorkEndHour)
	m.learner.Restore(p.Patterns)
	m.applyProfileIntervals()
}

// PatternConfidence is the mean confidence across all hours.
func (m *Monitor) PatternConfidence() float64 { return m.learner.LearningConfidence() }

// ResetLearning forgets every learned pattern.
func (m *Monitor) ResetLearning() {
	m.learner.Reset()
	m.profile.ReminderResponsiveness = models.NewUserProfile(0, 0, m.now()).ReminderResponsiveness
	m.lastLearn = time.Time{}
	m.logger.Info("pattern learning reset")
}

// EnableLearning turns hourly pattern learning on or off.
func (m *Monitor) EnableLearning(enabled bool) { m.cfg.LearningEnabled = enabled }

// SetWorkingHours changes the working window. Invalid hours are ignored.
func (m *Monitor) SetWorkingHours(start, end int) {
	m.learner.SetWorkingHours(start, end)
	m.profile.WorkStartHour, m.profile.WorkEndHour = m.learner.WorkingHours()
}

// IsInWorkingHours reports whether the current hour is work time.
func (m *Monitor) IsInWorkingHours() bool {
	return m.learner.IsWorkTime(m.now().Hour())
}

// ExpectedActivityLevel returns the learned activity for the current hour
// when it is confident, otherwise the minimum healthy activity level.
func (m *Monitor) ExpectedActivityLevel() float64 {
	if v, ok := m.learner.Expected(m.now().Hour()); ok {
		return v
	}
	return m.tracker.Config().MinHealthyActivity
}

// SetActivityGoals sets the hourly step target and the daily break target.
// Non-positive values leave the current target unchanged.
func (m *Monitor) SetActivityGoals(stepsPerHour, breaksPerDay int) {
	if stepsPerHour > 0 {
		m.profile.TargetStepsPerHour = stepsPerHour
	}
	if breaksPerDay > 0 {
		m.profile.TargetBreaksPerDay = breaksPerDay
	}
}

// ActivityGoalProgress is the mean of activity progress (current level over
// the target level) and break progress (breaks today over the daily
// target), each capped at 1.
func (m *Monitor) ActivityGoalProgress() float64 {
	activityProgress := 1.0
	if t := m.profile.TargetActivityLevel; t > 0 {
		activityProgress = math.Min(1, m.current.ActivityLevel/t)
	}
	breakProgress := 1.0
	if t := m.profile.TargetBreaksPerDay; t > 0 {
		breakProgress = math.Min(1, float64(m.BreaksToday())/float64(t))
	}
	return (activityProgress + breakProgress) / 2
}

// IsActivityGoalMet reports whether both goals are fully met.
func (m *Monitor) IsActivityGoalMet() bool {
	return m.ActivityGoalProgress() >= 1
}

// BreaksToday returns the number of breaks detected today.
func (m *Monitor) BreaksToday() int {
	return m.tracker.BreaksToday(m.now())
}

// StatusString renders a one-line summary of the current snapshot.
func (m *Monitor) StatusString() string {
	s := m.current
	if s.Sleeping {
		return "Sleeping"
	}
	if !s.IsUserPresent {
		return fmt.Sprintf("Away, Breaks: %d", m.BreaksToday())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Present, Activity: %.2f, Inactive: %.0fm", s.ActivityLevel, s.InactivityMinutes())
	if s.PostureKnown {
		fmt.Fprintf(&b, ", Posture: %.2f", s.PostureQuality)
	}
	fmt.Fprintf(&b, ", Session: %.0fm, Breaks: %d, Stress: %.2f",
		s.SessionDuration.Minutes(), m.BreaksToday(), s.EstimatedStress)
	return b.String()
}

// HealthRecommendations lists suggestions for the current snapshot, most
// pressing first.
func (m *Monitor) HealthRecommendations() []string {
	s := m.current
	if s.Sleeping {
		return []string{"Rest well and recharge."}
	}

	var recs []string
	if s.NeedsHydration {
		recs = append(recs, "Drink a glass of water.")
	}
	if s.NeedsMovement {
		recs = append(recs, "Stand up and stretch for a minute.")
	}
	if s.NeedsPostureAdjustment {
		recs = append(recs, "Sit up straight and relax your shoulders.")
	}
	if s.NeedsBreak {
		recs = append(recs, "Take a short break away from the screen.")
	}
	if s.EstimatedStress >= m.tracker.Config().StressThreshold {
		recs = append(recs, "Take a few slow, deep breaths.")
	}
	if s.LightKnown && s.LightLevel < constants.LowLightLevel {
		recs = append(recs, "Turn on more light to rest your eyes.")
	}
	if s.IsUserPresent && s.ActivityLevel < m.ExpectedActivityLevel() && !s.NeedsMovement {
		recs = append(recs, "Try to move a little more this hour.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Keep up the great work!")
	}
	return recs
}

// DrainEvents returns the break and activity events recorded since the last
// drain.
func (m *Monitor) DrainEvents() []models.Event {
	return m.events.Drain()
}

// SaveUserProfile persists the profile to the configured store.
func (m *Monitor) SaveUserProfile(ctx context.Context) error {
	if m.store == nil {
		return fmt.Errorf("no profile store configured")
	}
	p := m.UserProfile()
	p.UpdatedAt = m.now()
	if err := m.store.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("saving user profile: %w", err)
	}
	m.decisions.Log(map[string]any{"event": logging.EventStateSaved, "kind": "profile"})
	return nil
}

// LoadUserProfile restores the learned parts of the profile from the
// configured store: patterns, goals, responsiveness and timestamps. The
// configured working hours and reminder intervals stay in effect. A missing,
// unreadable or damaged profile leaves the defaults and reports false; the
// failure is logged, not returned. Only a done ctx is an error.
func (m *Monitor) LoadUserProfile(ctx context.Context) (bool, error) {
	if m.store == nil {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := m.store.LoadProfile(ctx)
	if err != nil {
		m.logger.Warn("saved user profile unusable, using defaults", "error", err)
		return false, nil
	}
	if p == nil {
		m.logger.Info("no saved user profile, using defaults")
		return false, nil
	}

	m.learner.Restore(p.Patterns)
	if p.TargetStepsPerHour > 0 {
		m.profile.TargetStepsPerHour = p.TargetStepsPerHour
	}
	if p.TargetBreaksPerDay > 0 {
		m.profile.TargetBreaksPerDay = p.TargetBreaksPerDay
	}
	if p.TargetActivityLevel > 0 {
		m.profile.TargetActivityLevel = p.TargetActivityLevel
	}
	if p.MovementSensitivity > 0 {
		m.profile.MovementSensitivity = p.MovementSensitivity
	}
	m.profile.ReminderResponsiveness = clamp01(p.ReminderResponsiveness)
	if !p.CreatedAt.IsZero() {
		m.profile.CreatedAt = p.CreatedAt
	}
	m.profile.UpdatedAt = p.UpdatedAt

	m.logger.Info("user profile loaded", "confidence", m.learner.LearningConfidence())
	m.decisions.Log(map[string]any{
		"event":      logging.EventStateLoaded,
		"kind":       "profile",
		"confidence": m.learner.LearningConfidence(),
	})
	return true, nil
}

// syncProfileIntervals writes the tracker's reminder intervals into the
// profile.
func (m *Monitor) syncProfileIntervals() {
	cfg := m.tracker.Config()
	if mins := cfg.HydrationInterval.Minutes(); mins > 0 {
		m.profile.HydrationFrequency = 60 / mins
	}
	m.profile.PreferredBreakInterval = int(cfg.BreakInterval.Minutes())
}

// applyProfileIntervals pushes the profile's reminder preferences into the
// tracker.
func (m *Monitor) applyProfileIntervals() {
	if f := m.profile.HydrationFrequency; f > 0 {
		m.tracker.SetInterval(activity.NeedHydration, time.Duration(float64(time.Hour)/f))
	}
	if mins := m.profile.PreferredBreakInterval; mins > 0 {
		m.tracker.SetInterval(activity.NeedBreak, time.Duration(mins)*time.Minute)
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
