// Package personality owns the plant's expressed mood, its care level, the
// message bank and the user-adaptive preferences, and turns behavior
// snapshots into caring messages.
//
// An Engine is not safe for concurrent use. Hosts that call it from more
// than one goroutine must serialize access.
package personality

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/learning"
	"github.com/nvandessel/pixelplant/internal/logging"
	"github.com/nvandessel/pixelplant/internal/messages"
	"github.com/nvandessel/pixelplant/internal/models"
	"github.com/nvandessel/pixelplant/internal/mood"
	"github.com/nvandessel/pixelplant/internal/ranking"
	"github.com/nvandessel/pixelplant/internal/sanitize"
	"github.com/nvandessel/pixelplant/internal/store"
)

// Config holds the personality settings.
type Config struct {
	UserName         string
	ResponseCooldown time.Duration
	AdaptationRate   float64
	LearningEnabled  bool
	ResponsesEnabled bool
	QueueCapacity    int
	Warmth           float64
	Thresholds       mood.Thresholds
	Scorer           ranking.ScorerConfig

	// CelebrationGap is the minimum time between two celebrations chosen by
	// Observe. Zero celebrates on every eligible snapshot.
	CelebrationGap time.Duration
}

// DefaultConfig returns the default personality settings.
func DefaultConfig() Config {
	return Config{
		UserName:         constants.DefaultUserName,
		ResponseCooldown: constants.DefaultResponseCooldown,
		AdaptationRate:   constants.DefaultAdaptationRate,
		LearningEnabled:  true,
		ResponsesEnabled: true,
		QueueCapacity:    constants.DefaultQueueCapacity,
		Warmth:           constants.DefaultWarmth,
		Thresholds:       mood.DefaultThresholds(),
		Scorer:           ranking.DefaultScorerConfig(),
		CelebrationGap:   constants.PositiveWindow,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDecisionLogger sets the JSONL decision trace.
func WithDecisionLogger(dl *logging.DecisionLogger) Option {
	return func(e *Engine) { e.decisions = dl }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithBank installs a message bank instead of the built-in one.
func WithBank(b *messages.Bank) Option {
	return func(e *Engine) { e.bank = b }
}

// WithStateStore sets where SaveState and LoadState persist.
func WithStateStore(s store.StateStore) Option {
	return func(e *Engine) { e.store = s }
}

// Engine generates caring messages and adapts to the user's reactions.
type Engine struct {
	cfg       Config
	logger    *slog.Logger
	decisions *logging.DecisionLogger
	now       func() time.Time
	store     store.StateStore

	bank    *messages.Bank
	scorer  *ranking.MessageScorer
	learner *learning.InteractionLearner
	queue   *messages.Queue
	events  *models.EventBuffer

	mood            models.Mood
	care            models.CareLevel
	urgency         float64
	lastMessage     time.Time
	lastCelebration time.Time
	initialized     bool
}

// New creates an engine. Call Initialize before generating messages.
func New(cfg Config, opts ...Option) *Engine {
	if cfg.ResponseCooldown < 0 {
		cfg.ResponseCooldown = 0
	}
	if cfg.CelebrationGap < 0 {
		cfg.CelebrationGap = 0
	}
	if cfg.Warmth <= 0 || cfg.Warmth > 1 {
		cfg.Warmth = constants.DefaultWarmth
	}
	if cfg.Thresholds == (mood.Thresholds{}) {
		cfg.Thresholds = mood.DefaultThresholds()
	}
	if cfg.Scorer == (ranking.ScorerConfig{}) {
		cfg.Scorer = ranking.DefaultScorerConfig()
	}
	if name := sanitize.UserName(cfg.UserName); name != "" {
		cfg.UserName = name
	} else {
		cfg.UserName = constants.DefaultUserName
	}

	e := &Engine{
		cfg:     cfg,
		logger:  logging.Discard(),
		now:     time.Now,
		scorer:  ranking.NewMessageScorer(cfg.Scorer),
		learner: learning.NewInteractionLearner(cfg.AdaptationRate),
		queue:   messages.NewQueue(cfg.QueueCapacity),
		events:  models.NewEventBuffer(constants.MaxPendingEvents),
		mood:    models.MoodHappy,
		care:    models.CareGentle,
	}
	e.learner.SetEnabled(cfg.LearningEnabled)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize loads the built-in message bank unless one was supplied, and
// stamps every message as used at the current time. It always succeeds.
func (e *Engine) Initialize() bool {
	now := e.now()
	if e.bank == nil {
		e.bank = messages.DefaultBank(now)
	} else {
		e.bank.ResetUsage(now)
	}
	e.initialized = true
	e.logger.Info("personality engine initialized",
		"messages", e.bank.Total(), "user", e.cfg.UserName)
	return true
}

// Bank returns the message bank, creating the default one if needed.
func (e *Engine) Bank() *messages.Bank {
	if e.bank == nil {
		e.bank = messages.DefaultBank(e.now())
	}
	return e.bank
}

// SetBank replaces the message bank, for example after the custom message
// file changed. Usage counters start over. A nil bank is ignored.
func (e *Engine) SetBank(b *messages.Bank) {
	if b == nil {
		return
	}
	e.bank = b
	e.logger.Info("message bank replaced", "messages", b.Total())
}

// UpdateMood derives the mood from s and moves the care level at most one
// step according to the snapshot's urgency.
func (e *Engine) UpdateMood(s models.BehaviorSnapshot) {
	e.RefreshMood(s)
	e.setCare(mood.Step(e.care, e.urgency), "urgency")
}

// RefreshMood derives the mood and urgency from s but leaves the care level
// alone. Hosts use it when the care level already moved in the same tick.
func (e *Engine) RefreshMood(s models.BehaviorSnapshot) {
	e.urgency = mood.Urgency(s, e.cfg.Thresholds)
	e.setMood(mood.Derive(s, e.cfg.Thresholds), "snapshot")
}

// Urgency returns the urgency computed by the last UpdateMood.
func (e *Engine) Urgency() float64 { return e.urgency }

// Observe updates the mood from s and returns the message the plant wants to
// say for it, or "" when there is nothing to say or the cooldown is active.
// A latched positive behavior is celebrated at most once per CelebrationGap.
func (e *Engine) Observe(s models.BehaviorSnapshot) string {
	e.UpdateMood(s)
	switch {
	case s.Sleeping:
		return ""
	case s.HasPositiveBehavior && e.celebrationAllowed(e.now()):
		text := e.GenerateCelebration("")
		if text != "" {
			e.lastCelebration = e.now()
		}
		return text
	case s.HasAnyNeed() || s.NeedsSupport:
		return e.GenerateContextual(s)
	default:
		return ""
	}
}

func (e *Engine) celebrationAllowed(now time.Time) bool {
	return e.lastCelebration.IsZero() || now.Sub(e.lastCelebration) >= e.cfg.CelebrationGap
}

// Mood returns the current mood.
func (e *Engine) Mood() models.Mood { return e.mood }

// CareLevel returns the current care level.
func (e *Engine) CareLevel() models.CareLevel { return e.care }

// SetCareLevel forces the care level. Invalid levels are ignored.
func (e *Engine) SetCareLevel(level models.CareLevel) {
	if !level.Valid() {
		return
	}
	e.setCare(level, "manual")
}

// SetMood forces the mood. Invalid moods are ignored.
func (e *Engine) SetMood(m models.Mood) {
	if !m.Valid() {
		return
	}
	e.setMood(m, "manual")
}

// SelectBestMessage returns the highest-scoring candidate in cat, or nil for
// unknown or empty categories. The returned message is live: selecting it
// through Generate updates its usage metadata.
func (e *Engine) SelectBestMessage(cat models.Category) *models.PersonalityMessage {
	i := e.selectIndex(cat)
	if i < 0 {
		return nil
	}
	return &e.Bank().Candidates(cat)[i]
}

func (e *Engine) selectIndex(cat models.Category) int {
	best, ok := e.scorer.Best(e.Bank().Candidates(cat), e.mood, e.care, e.now())
	if !ok {
		return -1
	}
	return best.Index
}

// Generate returns a personalized message from cat, or "" while the
// cooldown is active or responses are disabled. Categories with no messages
// yield the fallback message, which still consumes the cooldown.
func (e *Engine) Generate(cat models.Category) string {
	now := e.now()
	if !e.canRespondAt(now) {
		return ""
	}
	e.lastMessage = now

	i := e.selectIndex(cat)
	if i < 0 {
		e.logger.Debug("no messages for category, using fallback", "category", cat.String())
		return constants.FallbackMessage
	}

	e.bank.Touch(cat, i, now)
	e.learner.NoteSent(cat, now)
	msg, _ := e.bank.Message(cat, i)
	text := e.personalize(msg.Text)

	e.logger.Debug("message selected", "category", cat.String(), "index", i, "mood", e.mood.String(), "care", e.care.String())
	e.decisions.Log(map[string]any{
		"event":     logging.EventMessageSelected,
		"category":  cat.String(),
		"index":     i,
		"mood":      e.mood.String(),
		"care":      e.care.String(),
		"use_count": msg.UseCount,
	})
	if isReminder(cat) {
		e.events.Add(models.Event{Kind: models.EventReminder, Category: cat, At: now})
	}
	return text
}

// GenerateCaring returns an encouragement message.
func (e *Engine) GenerateCaring() string {
	return e.Generate(models.CategoryEncouragement)
}

// GenerateContextual picks the category for the most pressing need in s:
// hydration, then movement, posture, break, then encouragement.
func (e *Engine) GenerateContextual(s models.BehaviorSnapshot) string {
	switch {
	case s.NeedsHydration:
		return e.Generate(models.CategoryHydration)
	case s.NeedsMovement:
		return e.Generate(models.CategoryMovement)
	case s.NeedsPostureAdjustment:
		return e.Generate(models.CategoryPosture)
	case s.NeedsBreak:
		return e.Generate(models.CategoryBreak)
	default:
		return e.Generate(models.CategoryEncouragement)
	}
}

// GenerateUrgent escalates the care level one step and returns a concern
// message.
func (e *Engine) GenerateUrgent() string {
	e.setCare(e.care.Next(), "urgent")
	return e.Generate(models.CategoryConcern)
}

// GenerateCelebration returns a celebration message, mentioning achievement
// when one is given.
func (e *Engine) GenerateCelebration(achievement string) string {
	text := e.Generate(models.CategoryCelebration)
	achievement = sanitize.MessageText(achievement)
	if text == "" || achievement == "" {
		return text
	}
	return text + " " + achievement + "! 🎉"
}

// GenerateGreeting returns a greeting.
func (e *Engine) GenerateGreeting() string {
	return e.Generate(models.CategoryGreeting)
}

// GenerateGoodNight returns a goodnight message.
func (e *Engine) GenerateGoodNight() string {
	return e.Generate(models.CategoryGoodnight)
}

// QueueMessage enqueues text for the renderer. It reports false when text is
// empty or the queue is full.
func (e *Engine) QueueMessage(text string) bool {
	return e.queue.Push(text)
}

// QueueCategory generates a message from cat and enqueues it.
func (e *Engine) QueueCategory(cat models.Category) bool {
	text := e.Generate(cat)
	if text == "" {
		return false
	}
	return e.queue.Push(text)
}

// NextMessage pops the oldest queued message.
func (e *Engine) NextMessage() (string, bool) {
	return e.queue.Pop()
}

// PendingMessages returns the number of queued messages.
func (e *Engine) PendingMessages() int { return e.queue.Len() }

// ClearQueue drops every queued message.
func (e *Engine) ClearQueue() { e.queue.Clear() }

// RecordUserResponse records a reaction to a message of cat. An effective
// reaction de-escalates the care level one step. Invalid categories are
// rejected and report false.
func (e *Engine) RecordUserResponse(cat models.Category, effective bool) bool {
	if !cat.Valid() {
		return false
	}
	now := e.now()
	last := e.learner.History()
	d := e.learner.RecordResponse(cat, effective)

	e.logger.Debug("user responded", "category", d.Category.String(), "effective", effective, "preference", d.Preference)
	e.decisions.Log(map[string]any{
		"event":      logging.EventUserResponse,
		"category":   d.Category.String(),
		"responded":  true,
		"effective":  effective,
		"preference": d.Preference,
	})
	ev := models.Event{Kind: models.EventResponse, Category: d.Category, At: now, Effective: effective}
	if !last.LastResponseTime.IsZero() && now.After(last.LastResponseTime) {
		ev.ResponseTime = now.Sub(last.LastResponseTime)
	}
	e.events.Add(ev)

	if d.Change == learning.CareDeescalate {
		e.setCare(e.care.Previous(), "user_response")
	}
	return true
}

// RecordUserIgnored records that a message of cat went unanswered. Every
// third consecutive ignore escalates the care level one step. Invalid
// categories are rejected and report false.
func (e *Engine) RecordUserIgnored(cat models.Category) bool {
	if !cat.Valid() {
		return false
	}
	d := e.learner.RecordIgnored(cat)

	e.logger.Debug("user ignored message", "category", d.Category.String(), "consecutive", e.learner.ConsecutiveIgnored())
	e.decisions.Log(map[string]any{
		"event":       logging.EventUserResponse,
		"category":    d.Category.String(),
		"responded":   false,
		"consecutive": e.learner.ConsecutiveIgnored(),
		"preference":  d.Preference,
	})
	e.events.Add(models.Event{Kind: models.EventIgnored, Category: d.Category, At: e.now()})

	if d.Change == learning.CareEscalate {
		e.setCare(e.care.Next(), "ignored")
	}
	return true
}

// AdaptToUser moves the preference for cat toward effectiveness.
func (e *Engine) AdaptToUser(cat models.Category, effectiveness float64) {
	e.learner.Adapt(cat, effectiveness)
}

// ResetLearning restores neutral preferences and a fresh history.
func (e *Engine) ResetLearning() {
	e.learner.Reset()
	e.logger.Info("personality learning reset")
}

// EnableLearning turns preference adaptation on or off.
func (e *Engine) EnableLearning(enabled bool) {
	e.cfg.LearningEnabled = enabled
	e.learner.SetEnabled(enabled)
}

// SetAdaptationRate sets the preference EMA rate.
func (e *Engine) SetAdaptationRate(rate float64) {
	e.learner.SetRate(rate)
	e.cfg.AdaptationRate = e.learner.Rate()
}

// SetResponseCooldown sets the minimum gap between generated messages.
func (e *Engine) SetResponseCooldown(d time.Duration) {
	if d < 0 {
		d = 0
	}
	e.cfg.ResponseCooldown = d
}

// EnableResponses turns message generation on or off.
func (e *Engine) EnableResponses(enabled bool) {
	e.cfg.ResponsesEnabled = enabled
}

// CanRespondNow reports whether Generate would produce a message right now.
func (e *Engine) CanRespondNow() bool {
	return e.canRespondAt(e.now())
}

func (e *Engine) canRespondAt(now time.Time) bool {
	if !e.cfg.ResponsesEnabled {
		return false
	}
	if e.lastMessage.IsZero() {
		return true
	}
	return now.Sub(e.lastMessage) > e.cfg.ResponseCooldown
}

// SetUserName sets the name substituted for {name}. Names that sanitize to
// nothing fall back to the default.
func (e *Engine) SetUserName(name string) {
	name = sanitize.UserName(name)
	if name == "" {
		name = constants.DefaultUserName
	}
	e.cfg.UserName = name
}

// UserName returns the sanitized user name.
func (e *Engine) UserName() string { return e.cfg.UserName }

// Config returns the current settings.
func (e *Engine) Config() Config { return e.cfg }

// Status renders a one-line summary of the personality.
func (e *Engine) Status() string {
	return fmt.Sprintf("Mood: %s, Care Level: %s, Warmth: %.2f, Ignored: %d",
		e.mood, e.care, e.cfg.Warmth, e.learner.ConsecutiveIgnored())
}

// Effectiveness returns the learned preference for cat.
func (e *Engine) Effectiveness(cat models.Category) float64 {
	return e.learner.Preference(cat)
}

// Preferences returns every learned preference.
func (e *Engine) Preferences() [models.NumCategories]float64 {
	return e.learner.Preferences()
}

// History returns the interaction history.
func (e *Engine) History() models.InteractionHistory {
	return e.learner.History()
}

// ConsecutiveIgnored returns the current ignored streak.
func (e *Engine) ConsecutiveIgnored() int {
	return e.learner.ConsecutiveIgnored()
}

// DrainEvents returns the interaction events recorded since the last drain.
func (e *Engine) DrainEvents() []models.Event {
	return e.events.Drain()
}

// State captures the persisted part of the engine.
func (e *Engine) State() *models.PersonalityState {
	return &models.PersonalityState{
		Mood:        e.mood,
		CareLevel:   e.care,
		Preferences: e.learner.Preferences(),
		History:     e.learner.History(),
		SavedAt:     e.now(),
	}
}

// Restore replaces mood, care level, preferences and history from st. The
// configured user name is kept. Invalid mood or care values keep their current value. A nil st is a
// no-op.
func (e *Engine) Restore(st *models.PersonalityState) {
	if st == nil {
		return
	}
	if st.Mood.Valid() {
		e.mood = st.Mood
	}
	if st.CareLevel.Valid() {
		e.care = st.CareLevel
	}
	e.learner.Restore(st.Preferences, st.History)
}

// SaveState persists the engine state to the configured store.
func (e *Engine) SaveState(ctx context.Context) error {
	if e.store == nil {
		return fmt.Errorf("no state store configured")
	}
	st := e.State()
	if err := e.store.SaveState(ctx, st); err != nil {
		return fmt.Errorf("saving personality state: %w", err)
	}
	e.decisions.Log(map[string]any{"event": logging.EventStateSaved, "kind": "personality"})
	return nil
}

// LoadState restores the engine from the configured store. A missing,
// unreadable or damaged state leaves the defaults in place and reports
// false; the failure is logged, not returned. Only a done ctx is an error.
func (e *Engine) LoadState(ctx context.Context) (bool, error) {
	if e.store == nil {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	st, err := e.store.LoadState(ctx)
	if err != nil {
		e.logger.Warn("saved personality state unusable, using defaults", "error", err)
		return false, nil
	}
	if st == nil {
		e.logger.Info("no saved personality state, using defaults")
		return false, nil
	}
	e.Restore(st)
	e.logger.Info("personality state loaded", "mood", e.mood.String(), "care", e.care.String())
	e.decisions.Log(map[string]any{
		"event":    logging.EventStateLoaded,
		"kind":     "personality",
		"saved_at": st.SavedAt,
	})
	return true, nil
}

func (e *Engine) setMood(m models.Mood, reason string) {
	if m == e.mood {
		return
	}
	e.logger.Info("mood changed", "from", e.mood.String(), "to", m.String(), "reason", reason)
	e.decisions.Log(map[string]any{
		"event":   logging.EventMoodChanged,
		"from":    e.mood.String(),
		"to":      m.String(),
		"reason":  reason,
		"urgency": e.urgency,
	})
	e.mood = m
}

func (e *Engine) setCare(level models.CareLevel, reason string) {
	if level == e.care {
		return
	}
	e.logger.Info("care level changed", "from", e.care.String(), "to", level.String(), "reason", reason)
	e.decisions.Log(map[string]any{
		"event":   logging.EventCareLevelChanged,
		"from":    e.care.String(),
		"to":      level.String(),
		"reason":  reason,
		"urgency": e.urgency,
	})
	e.care = level
}

func (e *Engine) personalize(text string) string {
	return strings.ReplaceAll(text, models.NamePlaceholder, e.cfg.UserName)
}

func isReminder(cat models.Category) bool {
	switch cat {
	case models.CategoryHydration, models.CategoryMovement, models.CategoryPosture, models.CategoryBreak,
		models.CategoryConcern, models.CategoryUrgent:
		return true
	}
	return false
}
