package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pixelplant/internal/backup"
	"github.com/nvandessel/pixelplant/internal/config"
	"github.com/nvandessel/pixelplant/internal/store"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the data directory and a default config",
		Long: `Create ~/.pixelplant/ with a default config.yaml and a backups directory.

An existing config file is left alone unless --force is given.

Examples:
  pixelplant init                       # Initialize with defaults
  pixelplant init --name Ada            # Set the name the plant uses
  pixelplant init --backend sqlite      # Store data in SQLite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			force, _ := cmd.Flags().GetBool("force")
			name, _ := cmd.Flags().GetString("name")
			backend, _ := cmd.Flags().GetString("backend")
			dataDirFlag, _ := cmd.Flags().GetString("data-dir")

			path, err := configPath(cmd)
			if err != nil {
				return fmt.Errorf("failed to get config path: %w", err)
			}

			cfg := config.Default()
			if name != "" {
				cfg.User.Name = name
			}
			if backend != "" {
				cfg.Storage.Backend = backend
			}
			if dataDirFlag != "" {
				cfg.Storage.DataDir = dataDirFlag
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			dataDir, err := cfg.DataDir()
			if err != nil {
				return err
			}
			if err := store.EnsureDir(dataDir); err != nil {
				return err
			}
			if err := store.EnsureDir(backup.Dir(dataDir)); err != nil {
				return err
			}

			created := false
			if _, statErr := os.Stat(path); os.IsNotExist(statErr) || force {
				if err := cfg.Save(path); err != nil {
					return fmt.Errorf("failed to write config: %w", err)
				}
				created = true
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status":         "initialized",
					"data_dir":       dataDir,
					"config":         path,
					"config_written": created,
					"backend":        cfg.Storage.Backend,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s\n", dataDir)
			if created {
				fmt.Fprintf(out, "Wrote %s\n", path)
			} else {
				fmt.Fprintf(out, "Kept existing %s (use --force to overwrite)\n", filepath.Base(path))
			}
			fmt.Fprintln(out, "\nRun 'pixelplant run' to start the plant.")
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	cmd.Flags().String("name", "", "Name the plant calls you")
	cmd.Flags().String("backend", "", "Storage backend: memory, file or sqlite")

	return cmd
}
