package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Set via ldflags at build time by goreleaser.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// PIXELPLANT_* overrides may live in a .env next to the user's setup.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pixelplant",
		Short: "A desk companion that keeps an eye on your wellbeing",
		Long: `pixelplant is a small pixel-art plant that sits on your desk.

It watches presence, motion and posture readings, works out whether you
need water, movement, a posture fix or a break, and tells you so in its
own words. It learns when you are usually active and which reminders you
actually respond to.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.pixelplant/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (overrides storage.data_dir)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newConfigCmd(),
		newRunCmd(),
		newSimulateCmd(),
		newStatusCmd(),
		newInsightsCmd(),
		newResetCmd(),
		newBackupCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}
