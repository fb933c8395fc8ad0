package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/pixelplant/internal/mcp"
	"github.com/nvandessel/pixelplant/internal/runner"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the plant behind an MCP server on stdio",
		Long: `Run the plant and expose it to AI assistants over the Model Context Protocol.

The plant keeps ticking in the background. Assistants feed it sensor
readings with pixelplant_observe, read its state with pixelplant_status,
take what it says with pixelplant_message and report how a reminder landed
with pixelplant_feedback. Tool calls are audited to <data dir>/audit.jsonl.

Add to your assistant's MCP config:
  {"mcpServers": {"pixelplant": {"command": "pixelplant", "args": ["mcp-server"]}}}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout belongs to the protocol.
			env, err := openEnv(cmd, os.Stderr)
			if err != nil {
				return err
			}
			defer env.Close()

			return serveMCP(cmd.Context(), env)
		},
	}
}

// runWithCancel runs fn and cancels once it returns, so the peer goroutine
// in an errgroup stops with it.
func runWithCancel(cancel context.CancelFunc, fn func() error) func() error {
	return func() error {
		defer cancel()
		return fn()
	}
}

// serveMCP ticks a plant and serves it over stdio until the client leaves
// or the process is interrupted.
func serveMCP(parent context.Context, env *appEnv) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	p, err := env.newPlant(ctx)
	if err != nil {
		return err
	}

	srv, err := mcp.NewServer(&mcp.Config{
		Name:     "pixelplant",
		Version:  version,
		AuditDir: env.dataDir,
		Logger:   env.logger,
	}, p)
	if err != nil {
		return err
	}
	defer srv.Close()

	r := runner.New(runner.Config{
		TickInterval:     env.cfg.Runner.TickInterval,
		AutosaveInterval: env.cfg.Runner.AutosaveInterval,
		SessionDir:       env.dataDir,
	}, p, nil,
		runner.WithLogger(env.logger),
		runner.WithDecisionLogger(env.decisions),
		runner.WithEventLog(env.store),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(runWithCancel(cancel, func() error { return r.Run(gctx) }))
	g.Go(runWithCancel(cancel, func() error { return srv.Run(gctx) }))
	g.Go(func() error { return env.watchMessages(gctx, p) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
