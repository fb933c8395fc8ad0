package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pixelplant/internal/insights"
)

func newInsightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Analyze which reminders work and when you are active",
		Long: `Analyze the interaction log: the response rate of each kind of reminder,
the most and least active hours, the busiest day for breaks and suggested
reminder times.

Examples:
  pixelplant insights              # Last 7 days
  pixelplant insights --days 30
  pixelplant insights --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			days, _ := cmd.Flags().GetInt("days")
			if days <= 0 {
				return fmt.Errorf("--days must be positive, got %d", days)
			}

			env, err := openEnv(cmd, io.Discard)
			if err != nil {
				return err
			}
			defer env.Close()

			now := time.Now()
			since := now.AddDate(0, 0, -days)
			report, err := insights.Generate(cmd.Context(), env.store, since, now)
			if err != nil {
				return fmt.Errorf("failed to analyze: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(report)
			}
			return report.WriteText(cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int("days", 7, "Number of days to analyze")

	return cmd
}
