package ranking

import (
	"sort"
	"time"

	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/models"
)

// ScorerConfig configures the message scorer
type ScorerConfig struct {
	// Bonus when the message care level equals the current care level
	CareMatchWeight float64

	// Bonus when the message mood equals the current mood
	MoodMatchWeight float64

	// Bonus per minute since the message was last used. Uncapped.
	RecencyPerMinute float64

	// FrequencyWeight * FrequencyNumerator / (useCount+1)
	FrequencyWeight    float64
	FrequencyNumerator float64
}

// DefaultScorerConfig returns the default scoring configuration
// Weights: care 0.4, mood 0.3, recency 0.2/min, frequency 0.1*10/(n+1)
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		CareMatchWeight:    constants.CareMatchWeight,
		MoodMatchWeight:    constants.MoodMatchWeight,
		RecencyPerMinute:   constants.RecencyPerMinute,
		FrequencyWeight:    constants.FrequencyWeight,
		FrequencyNumerator: constants.FrequencyNumerator,
	}
}

// MessageScorer calculates selection scores for candidate messages
type MessageScorer struct {
	config ScorerConfig
}

// NewMessageScorer creates a new message scorer with the given config
func NewMessageScorer(config ScorerConfig) *MessageScorer {
	return &MessageScorer{config: config}
}

// Config returns the scorer configuration.
func (s *MessageScorer) Config() ScorerConfig {
	return s.config
}

// ScoredMessage is a candidate with its score breakdown.
type ScoredMessage struct {
	Index          int                        `json:"index"`
	Message        *models.PersonalityMessage `json:"-"`
	Score          float64                    `json:"score"`
	CareScore      float64                    `json:"care_score"`
	MoodScore      float64                    `json:"mood_score"`
	RecencyScore   float64                    `json:"recency_score"`
	FrequencyScore float64                    `json:"frequency_score"`
}

// Score computes the score of msg for the current mood and care level at now.
func (s *MessageScorer) Score(msg *models.PersonalityMessage, mood models.Mood, care models.CareLevel, now time.Time) ScoredMessage {
	if msg == nil {
		return ScoredMessage{Index: -1}
	}

	r := ScoredMessage{Index: -1, Message: msg}
	if msg.CareLevel == care {
		r.CareScore = s.config.CareMatchWeight
	}
	if msg.Mood == mood {
		r.MoodScore = s.config.MoodMatchWeight
	}
	if !msg.LastUsed.IsZero() && now.After(msg.LastUsed) {
		r.RecencyScore = now.Sub(msg.LastUsed).Minutes() * s.config.RecencyPerMinute
	}
	uses := msg.UseCount
	if uses < 0 {
		uses = 0
	}
	r.FrequencyScore = s.config.FrequencyNumerator / float64(uses+1) * s.config.FrequencyWeight

	r.Score = r.CareScore + r.MoodScore + r.RecencyScore + r.FrequencyScore
	return r
}

// Best returns the highest scoring candidate. Ties go to the earliest
// candidate; ok is false when msgs is empty.
func (s *MessageScorer) Best(msgs []models.PersonalityMessage, mood models.Mood, care models.CareLevel, now time.Time) (ScoredMessage, bool) {
	best := ScoredMessage{Index: -1}
	for i := range msgs {
		r := s.Score(&msgs[i], mood, care, now)
		r.Index = i
		if best.Index < 0 || r.Score > best.Score {
			best = r
		}
	}
	return best, best.Index >= 0
}

// Rank scores every candidate and returns them sorted by score descending,
// preserving bank order among equal scores.
func (s *MessageScorer) Rank(msgs []models.PersonalityMessage, mood models.Mood, care models.CareLevel, now time.Time) []ScoredMessage {
	results := make([]ScoredMessage, len(msgs))
	for i := range msgs {
		results[i] = s.Score(&msgs[i], mood, care, now)
		results[i].Index = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
