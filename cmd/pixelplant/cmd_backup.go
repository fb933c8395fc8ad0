package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pixelplant/internal/backup"
	"github.com/nvandessel/pixelplant/internal/config"
	"github.com/nvandessel/pixelplant/internal/store"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the learned profile, state and interaction log",
		Long: `Write everything the plant has learned to a compressed, checksummed file.

Default location: ~/.pixelplant/backups/pixelplant-backup-YYYYMMDD-HHMMSS-mmm.json.gz
Backups beyond storage.max_backups are deleted, oldest first, unless they are
younger than storage.max_backup_age.

Examples:
  pixelplant backup                                    # Backup to default location
  pixelplant backup --output ~/.pixelplant/backups/before-reset.json.gz
  pixelplant backup list                               # List all backups
  pixelplant backup verify <file>                      # Verify backup integrity
  pixelplant backup restore <file>                     # Replace current data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			outputPath, _ := cmd.Flags().GetString("output")

			env, err := openEnv(cmd, io.Discard)
			if err != nil {
				return err
			}
			defer env.Close()

			dir := backup.Dir(env.dataDir)
			if err := store.EnsureDir(dir); err != nil {
				return err
			}
			if outputPath == "" {
				outputPath = backup.GenerateBackupPath(dir, time.Now())
			} else if err := backup.CheckPath(outputPath, dir); err != nil {
				return fmt.Errorf("backup path rejected: %w", err)
			}

			h, err := backup.Create(cmd.Context(), env.store, outputPath, time.Now())
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			var deleted []string
			if policy, ok := retentionPolicy(env.cfg); ok {
				deleted, err = backup.ApplyRetention(dir, policy)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to apply retention: %v\n", err)
				}
			}

			if jsonOut {
				var sizeBytes int64
				if info, err := os.Stat(outputPath); err == nil {
					sizeBytes = info.Size()
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"path":        outputPath,
					"id":          h.ID,
					"has_profile": h.HasProfile,
					"has_state":   h.HasState,
					"event_count": h.EventCount,
					"size_bytes":  sizeBytes,
					"deleted":     deleted,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backup created: %d events (profile: %v, state: %v)\n", h.EventCount, h.HasProfile, h.HasState)
			fmt.Fprintf(out, "  Path: %s\n", outputPath)
			if len(deleted) > 0 {
				fmt.Fprintf(out, "  Removed %d old backup(s)\n", len(deleted))
			}
			return nil
		},
	}

	cmd.Flags().String("output", "", "Output file path inside the backups directory")

	cmd.AddCommand(
		newBackupListCmd(),
		newBackupVerifyCmd(),
		newBackupRestoreCmd(),
	)

	return cmd
}

// retentionPolicy keeps the newest storage.max_backups backups plus any
// younger than storage.max_backup_age. It reports false when neither is set.
func retentionPolicy(cfg *config.PlantConfig) (backup.RetentionPolicy, bool) {
	var policies []backup.RetentionPolicy
	if cfg.Storage.MaxBackups > 0 {
		policies = append(policies, &backup.CountPolicy{MaxCount: cfg.Storage.MaxBackups})
	}
	if cfg.Storage.MaxBackupAge != "" {
		if age, err := backup.ParseDuration(cfg.Storage.MaxBackupAge); err == nil && age > 0 {
			policies = append(policies, &backup.AgePolicy{MaxAge: age})
		}
	}

	switch len(policies) {
	case 0:
		return nil, false
	case 1:
		return policies[0], true
	default:
		return &backup.CompositePolicy{Policies: policies}, true
	}
}

// backupDir resolves the backups directory without opening the store.
func backupDir(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	dataDir, err := cfg.DataDir()
	if err != nil {
		return "", err
	}
	return backup.Dir(dataDir), nil
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all backups with metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			dir, err := backupDir(cmd)
			if err != nil {
				return err
			}
			backups, err := backup.ListBackups(dir)
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}

			if jsonOut {
				if backups == nil {
					backups = []backup.BackupInfo{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"backups":     backups,
					"total_count": len(backups),
					"directory":   dir,
				})
			}

			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintf(out, "No backups found in %s\n", dir)
				return nil
			}

			fmt.Fprintf(out, "Backups in %s:\n", dir)
			var totalSize int64
			for _, b := range backups {
				totalSize += b.Size
				status := ""
				if !b.Valid {
					status = "  (unreadable header)"
				}
				fmt.Fprintf(out, "  %s  %8s  %5d events  %s%s\n",
					b.CreatedAt.Local().Format("2006-01-02 15:04"),
					formatBytes(b.Size),
					b.EventCount,
					filepath.Base(b.Path),
					status,
				)
			}
			fmt.Fprintf(out, "Total: %d backups, %s\n", len(backups), formatBytes(totalSize))
			return nil
		},
	}
}

func newBackupVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify backup file integrity",
		Long: `Verify the integrity of a backup file by checking its SHA-256 checksum.

Examples:
  pixelplant backup verify ~/.pixelplant/backups/pixelplant-backup-20260406-120000-000.json.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			jsonOut, _ := cmd.Flags().GetBool("json")

			err := backup.VerifyChecksum(filePath)
			if jsonOut {
				result := map[string]interface{}{
					"file":  filePath,
					"valid": err == nil,
				}
				if err != nil {
					result["error"] = err.Error()
				}
				if encErr := json.NewEncoder(cmd.OutOrStdout()).Encode(result); encErr != nil {
					return encErr
				}
				if err != nil {
					return fmt.Errorf("checksum verification failed")
				}
				return nil
			}

			out := cmd.OutOrStdout()
			if err != nil {
				fmt.Fprintf(out, "FAILED: %v\n", err)
				fmt.Fprintf(out, "  File: %s\n", filePath)
				return fmt.Errorf("checksum verification failed")
			}
			fmt.Fprintln(out, "OK: checksum verified")
			fmt.Fprintf(out, "  File: %s\n", filePath)
			return nil
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the current data with a backup",
		Long: `Restore the profile, personality state and interaction log from a backup.
The checksum is verified before anything is replaced. Only files inside the
backups directory are accepted.

Examples:
  pixelplant backup restore ~/.pixelplant/backups/pixelplant-backup-20260406-120000-000.json.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			jsonOut, _ := cmd.Flags().GetBool("json")

			env, err := openEnv(cmd, io.Discard)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := backup.CheckPath(inputPath, backup.Dir(env.dataDir)); err != nil {
				return fmt.Errorf("restore path rejected: %w", err)
			}

			result, err := backup.Restore(cmd.Context(), env.store, inputPath)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Restore complete (backup %s)\n", result.ID)
			fmt.Fprintf(out, "  Profile: %v  State: %v  Events: %d\n", result.ProfileRestored, result.StateRestored, result.EventsRestored)
			return nil
		},
	}
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1fGB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1fMB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1fKB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%dB", b)
	}
}
