package logging

// Decision event names written to the JSONL trace.
const (
	EventMoodChanged      = "mood_changed"
	EventCareLevelChanged = "care_level_changed"
	EventMessageSelected  = "message_selected"
	EventUserResponse     = "user_response"
	EventPatternLearned   = "pattern_learned"
	EventStateLoaded      = "state_loaded"
	EventStateSaved       = "state_saved"
	EventSleepChanged     = "sleep_changed"
	EventSessionStarted   = "session_started"
	EventSessionEnded     = "session_ended"
)
