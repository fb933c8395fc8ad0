package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/pixelplant/internal/runner"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the plant on sensor readings",
		Long: `Run the plant until interrupted, printing what it says.

Sensor readings are JSON lines, one per sample:

  {"motion": true}
  {"face": true, "posture": 0.42}
  {"camera_unavailable": true}
  {"light": 0.1}
  {"sleep": true}

With --input the plant stops once the file is consumed, unless --follow is
set. Without --input it runs on its own clock until interrupted. Edits to
messages.file are picked up while running.

Examples:
  pixelplant run --input readings.jsonl
  sensor-bridge | pixelplant run --input - --follow
  pixelplant run --json                  # One JSON object per message`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			input, _ := cmd.Flags().GetString("input")
			follow, _ := cmd.Flags().GetBool("follow")

			env, err := openEnv(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			p, err := env.newPlant(ctx)
			if err != nil {
				return err
			}

			var src runner.Source
			if input != "" {
				in, err := openInput(cmd, input)
				if err != nil {
					return err
				}
				defer in.Close()
				src = runner.NewJSONLSource(in)
			}

			r := runner.New(runner.Config{
				TickInterval:     env.cfg.Runner.TickInterval,
				AutosaveInterval: env.cfg.Runner.AutosaveInterval,
				StopOnEOF:        input != "" && !follow,
				SessionDir:       env.dataDir,
			}, p, src,
				runner.WithLogger(env.logger),
				runner.WithDecisionLogger(env.decisions),
				runner.WithEventLog(env.store),
				runner.WithSink(runner.NewWriterSink(cmd.OutOrStdout(), jsonOut)),
			)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(runWithCancel(cancel, func() error { return r.Run(gctx) }))
			g.Go(func() error { return env.watchMessages(gctx, p) })
			if err := g.Wait(); err != nil {
				return fmt.Errorf("plant stopped: %w", err)
			}

			if !jsonOut {
				sum := r.Session()
				fmt.Fprintf(cmd.ErrOrStderr(), "\nSession %s: %d messages, %d reminders, %d responses, %d ignored, %d breaks\n",
					sum.ID, sum.Messages(), sum.Reminders, sum.Responses, sum.Ignored, sum.Breaks)
			}
			return nil
		},
	}

	cmd.Flags().String("input", "", "JSONL sensor readings file, or - for stdin")
	cmd.Flags().Bool("follow", false, "Keep running after the input is consumed")

	return cmd
}

// openInput opens path for reading, with "-" meaning the command's stdin.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}
