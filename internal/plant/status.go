package plant

// Status is a point-in-time summary of the plant for CLI and MCP output.
type Status struct {
	Mood            string   `json:"mood"`
	Care            string   `json:"care"`
	Urgency         float64  `json:"urgency"`
	Sleeping        bool     `json:"sleeping"`
	Present         bool     `json:"present"`
	ActivityLevel   float64  `json:"activity_level"`
	InactiveMinutes float64  `json:"inactive_minutes"`
	PostureQuality  *float64 `json:"posture_quality,omitempty"`
	Needs           []string `json:"needs"`
	BreaksToday     int      `json:"breaks_today"`
	GoalProgress    float64  `json:"goal_progress"`
	GoalMet         bool     `json:"goal_met"`
	InWorkingHours  bool     `json:"in_working_hours"`

	PatternConfidence float64 `json:"pattern_confidence"`
	Responsiveness    float64 `json:"responsiveness"`

	PendingReminder string   `json:"pending_reminder,omitempty"`
	QueuedMessages  int      `json:"queued_messages"`
	Summary         string   `json:"summary"`
	Engine          string   `json:"engine"`
	Recommendations []string `json:"recommendations"`
}

// Status reports the current assessment without updating it.
func (p *Plant) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.monitor.CurrentBehavior()
	st := Status{
		Mood:              p.engine.Mood().String(),
		Care:              p.engine.CareLevel().String(),
		Urgency:           p.engine.Urgency(),
		Sleeping:          s.Sleeping,
		Present:           s.IsUserPresent,
		ActivityLevel:     s.ActivityLevel,
		InactiveMinutes:   s.InactivityMinutes(),
		Needs:             []string{},
		BreaksToday:       p.monitor.BreaksToday(),
		GoalProgress:      p.monitor.ActivityGoalProgress(),
		GoalMet:           p.monitor.IsActivityGoalMet(),
		InWorkingHours:    p.monitor.IsInWorkingHours(),
		PatternConfidence: p.monitor.PatternConfidence(),
		Responsiveness:    p.monitor.UserProfile().ReminderResponsiveness,
		QueuedMessages:    p.engine.PendingMessages(),
		Summary:           p.monitor.StatusString(),
		Engine:            p.engine.Status(),
		Recommendations:   p.monitor.HealthRecommendations(),
	}
	if s.PostureKnown {
		q := s.PostureQuality
		st.PostureQuality = &q
	}
	for _, n := range []struct {
		name string
		due  bool
	}{
		{"hydration", s.NeedsHydration},
		{"movement", s.NeedsMovement},
		{"posture", s.NeedsPostureAdjustment},
		{"break", s.NeedsBreak},
		{"support", s.NeedsSupport},
	} {
		if n.due {
			st.Needs = append(st.Needs, n.name)
		}
	}
	if p.pending != nil {
		st.PendingReminder = p.pending.category.String()
	}
	return st
}
