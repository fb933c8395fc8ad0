package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pixelplant/internal/config"
	"github.com/nvandessel/pixelplant/internal/logging"
	"github.com/nvandessel/pixelplant/internal/messages"
	"github.com/nvandessel/pixelplant/internal/monitor"
	"github.com/nvandessel/pixelplant/internal/personality"
	"github.com/nvandessel/pixelplant/internal/plant"
	"github.com/nvandessel/pixelplant/internal/store"
)

// configPath returns the --config flag or the default location.
func configPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

// loadConfig loads and validates the configuration, applying --config and
// --data-dir.
func loadConfig(cmd *cobra.Command) (*config.PlantConfig, error) {
	var (
		cfg *config.PlantConfig
		err error
	)
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		cfg, err = config.LoadFromFile(p)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.Storage.DataDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore opens the configured backend under dataDir.
func openStore(cfg *config.PlantConfig, dataDir string) (store.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendSQLite:
		return store.NewSQLiteStore(dataDir)
	default:
		return store.NewFileStore(dataDir)
	}
}

// appEnv is everything a command needs to host or inspect a plant.
type appEnv struct {
	cfg       *config.PlantConfig
	dataDir   string
	store     store.Store
	logger    *slog.Logger
	decisions *logging.DecisionLogger
}

// openEnv loads the config, ensures the data dir and opens the store.
// Operational logs go to logOut.
func openEnv(cmd *cobra.Command, logOut io.Writer) (*appEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	if err := store.EnsureDir(dataDir); err != nil {
		return nil, err
	}
	st, err := openStore(cfg, dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}
	return &appEnv{
		cfg:       cfg,
		dataDir:   dataDir,
		store:     st,
		logger:    logging.NewLogger(cfg.Logging.Level, logOut),
		decisions: logging.NewDecisionLogger(dataDir, cfg.Logging.Level),
	}, nil
}

// Close releases the store and the decision log.
func (e *appEnv) Close() error {
	e.decisions.Close()
	return e.store.Close()
}

// loadBank builds the built-in messages plus the custom message file, if
// one is configured.
func (e *appEnv) loadBank(now time.Time) (*messages.Bank, error) {
	bank := messages.DefaultBank(now)
	if e.cfg.Messages.File == "" {
		return bank, nil
	}
	n, err := bank.LoadFile(e.cfg.Messages.File, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	e.logger.Info("custom messages loaded", "file", e.cfg.Messages.File, "count", n)
	return bank, nil
}

// newPlant builds a plant over the env's store and restores saved state.
func (e *appEnv) newPlant(ctx context.Context) (*plant.Plant, error) {
	bank, err := e.loadBank(time.Now())
	if err != nil {
		return nil, err
	}

	m := monitor.New(e.cfg.MonitorConfig(),
		monitor.WithLogger(e.logger),
		monitor.WithDecisionLogger(e.decisions),
		monitor.WithProfileStore(e.store),
	)
	eng := personality.New(e.cfg.EngineConfig(),
		personality.WithLogger(e.logger),
		personality.WithDecisionLogger(e.decisions),
		personality.WithStateStore(e.store),
		personality.WithBank(bank),
	)
	p := plant.New(e.cfg.PlantConfig(), m, eng, plant.WithLogger(e.logger))
	if err := p.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore state: %w", err)
	}
	return p, nil
}

// watchMessages reloads the custom message file into p whenever it changes,
// until ctx is done. A broken file keeps the previous messages. Watch
// failures are logged, never returned, so the plant keeps running.
func (e *appEnv) watchMessages(ctx context.Context, p *plant.Plant) error {
	if e.cfg.Messages.File == "" {
		return nil
	}
	w := messages.NewWatcher(e.cfg.Messages.File, func(string) {
		bank, err := e.loadBank(time.Now())
		if err != nil {
			e.logger.Warn("keeping previous messages", "error", err)
			return
		}
		p.SetBank(bank)
	}, e.logger)
	if err := w.Run(ctx); err != nil {
		e.logger.Warn("message file not watched", "error", err)
	}
	return nil
}

// signalContext returns a context cancelled on interrupt.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
