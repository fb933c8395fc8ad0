package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/models"
	"github.com/nvandessel/pixelplant/internal/monitor"
	"github.com/nvandessel/pixelplant/internal/personality"
	"github.com/nvandessel/pixelplant/internal/plant"
	"github.com/nvandessel/pixelplant/internal/session"
)

// profileView is the learned profile as shown by status.
type profileView struct {
	WorkStartHour      int      `json:"work_start_hour"`
	WorkEndHour        int      `json:"work_end_hour"`
	LearningConfidence float64  `json:"learning_confidence"`
	Responsiveness     float64  `json:"responsiveness"`
	ConfidentHours     []int    `json:"confident_hours"`
	PreferredMessages  []string `json:"preferred_messages,omitempty"` // above neutral preference
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what the plant has learned and how the last session went",
		Long: `Show the saved mood and care level, the learned profile and the counters
of the current or last session.

Examples:
  pixelplant status
  pixelplant status --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			env, err := openEnv(cmd, io.Discard)
			if err != nil {
				return err
			}
			defer env.Close()

			p, err := env.newPlant(cmd.Context())
			if err != nil {
				return err
			}
			st, prof := inspectPlant(p)

			sum, err := session.LoadState(env.dataDir)
			if err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"mood":    st.Mood,
					"care":    st.Care,
					"profile": prof,
					"session": sum,
				})
			}
			writeStatus(cmd.OutOrStdout(), st, prof, sum, time.Now())
			return nil
		},
	}
}

// inspectPlant reads the restored mood and profile without running the plant.
func inspectPlant(p *plant.Plant) (plant.Status, profileView) {
	var prof profileView
	p.Inspect(func(m *monitor.Monitor, e *personality.Engine) {
		up := m.UserProfile()
		prof = profileView{
			WorkStartHour:      up.WorkStartHour,
			WorkEndHour:        up.WorkEndHour,
			LearningConfidence: up.LearningConfidence,
			Responsiveness:     up.ReminderResponsiveness,
			ConfidentHours:     []int{},
		}
		for _, pat := range up.Patterns {
			if pat.Confidence >= constants.PatternConfidenceMin {
				prof.ConfidentHours = append(prof.ConfidentHours, pat.Hour)
			}
		}
		for cat, pref := range e.Preferences() {
			if pref > constants.NeutralPreference {
				prof.PreferredMessages = append(prof.PreferredMessages, models.Category(cat).String())
			}
		}
	})
	return p.Status(), prof
}

func writeStatus(w io.Writer, st plant.Status, prof profileView, sum *session.Summary, now time.Time) {
	fmt.Fprintf(w, "Mood: %s  Care: %s\n\n", st.Mood, st.Care)

	fmt.Fprintln(w, "Profile:")
	fmt.Fprintf(w, "  Working hours:       %02d:00-%02d:00\n", prof.WorkStartHour, prof.WorkEndHour)
	fmt.Fprintf(w, "  Learning confidence: %.0f%%\n", prof.LearningConfidence*100)
	fmt.Fprintf(w, "  Responsiveness:      %.2f\n", prof.Responsiveness)
	if len(prof.ConfidentHours) > 0 {
		hours := make([]string, len(prof.ConfidentHours))
		for i, h := range prof.ConfidentHours {
			hours[i] = fmt.Sprintf("%02d:00", h)
		}
		fmt.Fprintf(w, "  Known active hours:  %s\n", strings.Join(hours, ", "))
	}
	if len(prof.PreferredMessages) > 0 {
		fmt.Fprintf(w, "  Works best:          %s\n", strings.Join(prof.PreferredMessages, ", "))
	}

	fmt.Fprintln(w)
	if sum == nil {
		fmt.Fprintln(w, "No session recorded yet. Run 'pixelplant run' to start one.")
		return
	}
	state := "ended"
	if sum.Running() {
		state = fmt.Sprintf("running, last tick %s ago", now.Sub(sum.LastTick).Round(time.Second))
	}
	fmt.Fprintf(w, "Session %s (%s):\n", sum.ID, state)
	fmt.Fprintf(w, "  Started:   %s\n", sum.StartedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  Messages:  %d  Reminders: %d  Breaks: %d\n", sum.Messages(), sum.Reminders, sum.Breaks)
	fmt.Fprintf(w, "  Responses: %d  Ignored: %d  (%.0f%% response rate)\n", sum.Responses, sum.Ignored, sum.ResponseRate()*100)
	if sum.LastMessage != "" {
		fmt.Fprintf(w, "  Last said: %q (%s)\n", sum.LastMessage, sum.LastCategory)
	}
}
