package mcp

// StatusInput defines the input for the pixelplant_status tool.
type StatusInput struct {
	Recommendations bool `json:"recommendations,omitempty" jsonschema:"Include health recommendations"`
}

// StatusOutput defines the output for the pixelplant_status tool.
type StatusOutput struct {
	Mood            string   `json:"mood" jsonschema:"Current mood of the plant"`
	Care            string   `json:"care" jsonschema:"Current care level: gentle, concerned, urgent or worried"`
	Urgency         float64  `json:"urgency" jsonschema:"Urgency from 0 to 1"`
	Sleeping        bool     `json:"sleeping"`
	Present         bool     `json:"present" jsonschema:"Whether the user is at the desk"`
	ActivityLevel   float64  `json:"activity_level"`
	InactiveMinutes float64  `json:"inactive_minutes"`
	PostureQuality  *float64 `json:"posture_quality,omitempty"`
	Needs           []string `json:"needs" jsonschema:"Outstanding needs such as hydration or movement"`
	BreaksToday     int      `json:"breaks_today"`
	GoalProgress    float64  `json:"goal_progress"`
	PendingReminder string   `json:"pending_reminder,omitempty" jsonschema:"Category of the reminder awaiting a reaction"`
	QueuedMessages  int      `json:"queued_messages"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// MessageInput defines the input for the pixelplant_message tool.
type MessageInput struct {
	Category string `json:"category,omitempty" jsonschema:"Message category to generate; leave empty to take the oldest queued message"`
}

// MessageOutput defines the output for the pixelplant_message tool.
type MessageOutput struct {
	Text      string `json:"text"`
	Category  string `json:"category,omitempty"`
	Mood      string `json:"mood,omitempty"`
	Care      string `json:"care,omitempty"`
	Delivered bool   `json:"delivered" jsonschema:"False when the cooldown is active or the queue is empty"`
	Remaining int    `json:"remaining" jsonschema:"Messages still queued"`
}

// FeedbackInput defines the input for the pixelplant_feedback tool.
type FeedbackInput struct {
	Effective bool `json:"effective" jsonschema:"Whether the last reminder helped"`
}

// FeedbackOutput defines the output for the pixelplant_feedback tool.
type FeedbackOutput struct {
	Category       string  `json:"category,omitempty" jsonschema:"Category of the reminder the feedback resolved"`
	Responsiveness float64 `json:"responsiveness"`
	Message        string  `json:"message"`
}

// ObserveInput defines the input for the pixelplant_observe tool.
type ObserveInput struct {
	Motion            *bool    `json:"motion,omitempty" jsonschema:"Motion sensor state"`
	Face              *bool    `json:"face,omitempty" jsonschema:"Whether the camera sees a face"`
	Posture           *float64 `json:"posture,omitempty" jsonschema:"Posture score from 0 (poor) to 1 (good)"`
	CameraUnavailable bool     `json:"camera_unavailable,omitempty"`
	Light             *float64 `json:"light,omitempty" jsonschema:"Ambient light from 0 to 1"`
	Sleep             *bool    `json:"sleep,omitempty" jsonschema:"Turn sleep mode on or off"`
	SnoozeMinutes     int      `json:"snooze_minutes,omitempty" jsonschema:"Suppress reminders for this many minutes"`
}

// ObserveOutput defines the output for the pixelplant_observe tool.
type ObserveOutput struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}
