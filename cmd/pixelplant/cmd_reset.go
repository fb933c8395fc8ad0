package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pixelplant/internal/session"
)

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget everything the plant has learned",
		Long: `Delete the learned profile, the personality state, the interaction log and
the last session summary. The config file and backups are kept.

Take a backup first if you may want the data back:
  pixelplant backup
  pixelplant reset --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("reset deletes all learned data; pass --yes to confirm")
			}

			env, err := openEnv(cmd, io.Discard)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.store.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("failed to reset store: %w", err)
			}
			if err := session.RemoveState(env.dataDir); err != nil {
				return fmt.Errorf("failed to remove session state: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status":   "reset",
					"data_dir": env.dataDir,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", env.dataDir)
			return nil
		},
	}

	cmd.Flags().Bool("yes", false, "Confirm the reset")

	return cmd
}
