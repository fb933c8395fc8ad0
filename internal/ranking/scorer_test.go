package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/nvandessel/pixelplant/internal/models"
)

var loadTime = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

func TestMessageScorer_Score_Breakdown(t *testing.T) {
	scorer := NewMessageScorer(DefaultScorerConfig())
	msg := &models.PersonalityMessage{
		Text:      "drink up",
		Mood:      models.MoodCaring,
		CareLevel: models.CareGentle,
		LastUsed:  loadTime,
		UseCount:  1,
	}

	r := scorer.Score(msg, models.MoodCaring, models.CareGentle, loadTime.Add(3*time.Minute))

	if r.CareScore != 0.4 {
		t.Errorf("CareScore = %v, want 0.4", r.CareScore)
	}
	if r.MoodScore != 0.3 {
		t.Errorf("MoodScore = %v, want 0.3", r.MoodScore)
	}
	if math.Abs(r.RecencyScore-0.6) > 1e-9 {
		t.Errorf("RecencyScore = %v, want 0.6", r.RecencyScore)
	}
	if math.Abs(r.FrequencyScore-0.5) > 1e-9 {
		t.Errorf("FrequencyScore = %v, want 0.5", r.FrequencyScore)
	}
	if math.Abs(r.Score-1.8) > 1e-9 {
		t.Errorf("Score = %v, want 1.8", r.Score)
	}
}

func TestMessageScorer_Score_Nil(t *testing.T) {
	scorer := NewMessageScorer(DefaultScorerConfig())
	if r := scorer.Score(nil, models.MoodHappy, models.CareGentle, loadTime); r.Score != 0 || r.Index != -1 {
		t.Errorf("Score(nil) = %+v", r)
	}
}

func TestMessageScorer_Best_TieGoesToFirst(t *testing.T) {
	scorer := NewMessageScorer(DefaultScorerConfig())
	msgs := []models.PersonalityMessage{
		{Text: "a", Mood: models.MoodHappy, CareLevel: models.CareGentle, LastUsed: loadTime},
		{Text: "b", Mood: models.MoodHappy, CareLevel: models.CareGentle, LastUsed: loadTime},
		{Text: "c", Mood: models.MoodHappy, CareLevel: models.CareGentle, LastUsed: loadTime},
	}

	for i := 0; i < 3; i++ {
		best, ok := scorer.Best(msgs, models.MoodHappy, models.CareGentle, loadTime)
		if !ok {
			t.Fatal("Best() ok = false")
		}
		if best.Index != 0 {
			t.Errorf("call %d: Best().Index = %d, want 0", i, best.Index)
		}
	}
}

func TestMessageScorer_Best_PrefersMatches(t *testing.T) {
	scorer := NewMessageScorer(DefaultScorerConfig())
	msgs := []models.PersonalityMessage{
		{Text: "happy gentle", Mood: models.MoodHappy, CareLevel: models.CareGentle, LastUsed: loadTime},
		{Text: "worried urgent", Mood: models.MoodWorried, CareLevel: models.CareWorried, LastUsed: loadTime},
		{Text: "worried mood only", Mood: models.MoodWorried, CareLevel: models.CareGentle, LastUsed: loadTime},
	}

	best, _ := scorer.Best(msgs, models.MoodWorried, models.CareWorried, loadTime)
	if best.Index != 1 {
		t.Errorf("Best().Index = %d, want 1", best.Index)
	}
}

func TestMessageScorer_RecencyEventuallyWins(t *testing.T) {
	scorer := NewMessageScorer(DefaultScorerConfig())
	now := loadTime.Add(24 * time.Hour)
	msgs := []models.PersonalityMessage{
		// Perfect match, but used seconds ago.
		{Text: "fresh", Mood: models.MoodCaring, CareLevel: models.CareConcerned, LastUsed: now.Add(-3 * time.Second), UseCount: 0},
		// No match at all, unused for long.
		{Text: "stale", Mood: models.MoodHappy, CareLevel: models.CareGentle, LastUsed: loadTime, UseCount: 40},
	}

	best, _ := scorer.Best(msgs, models.MoodCaring, models.CareConcerned, now)
	if best.Index != 1 {
		t.Errorf("Best().Index = %d, want the long-unused message", best.Index)
	}
}

func TestMessageScorer_Best_Empty(t *testing.T) {
	scorer := NewMessageScorer(DefaultScorerConfig())
	if _, ok := scorer.Best(nil, models.MoodHappy, models.CareGentle, loadTime); ok {
		t.Error("Best(nil) ok = true")
	}
}

func TestMessageScorer_Rank_StableOrder(t *testing.T) {
	scorer := NewMessageScorer(DefaultScorerConfig())
	msgs := []models.PersonalityMessage{
		{Text: "a", Mood: models.MoodHappy, CareLevel: models.CareWorried, LastUsed: loadTime},
		{Text: "b", Mood: models.MoodHappy, CareLevel: models.CareGentle, LastUsed: loadTime},
		{Text: "c", Mood: models.MoodHappy, CareLevel: models.CareWorried, LastUsed: loadTime},
	}

	ranked := scorer.Rank(msgs, models.MoodHappy, models.CareGentle, loadTime)
	want := []int{1, 0, 2}
	for i, r := range ranked {
		if r.Index != want[i] {
			t.Errorf("ranked[%d].Index = %d, want %d", i, r.Index, want[i])
		}
	}
}

func TestMessageScorer_FutureLastUsedGivesNoRecency(t *testing.T) {
	scorer := NewMessageScorer(DefaultScorerConfig())
	msg := &models.PersonalityMessage{LastUsed: loadTime.Add(time.Hour)}
	if r := scorer.Score(msg, models.MoodHappy, models.CareGentle, loadTime); r.RecencyScore != 0 {
		t.Errorf("RecencyScore = %v for future timestamp, want 0", r.RecencyScore)
	}
}
