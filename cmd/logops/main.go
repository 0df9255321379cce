package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/logops-io/logops/internal/analyze"
	"github.com/logops-io/logops/internal/config"
	"github.com/logops-io/logops/internal/logfile"
	"github.com/logops-io/logops/internal/resolver"
	"github.com/logops-io/logops/internal/search"
	"github.com/logops-io/logops/internal/server"
	"github.com/logops-io/logops/internal/synth"
)

// seedSkipThreshold: an index already holding more documents than this is
// considered seeded
const seedSkipThreshold = 100

// CLI defines the command tree
type CLI struct {
	Config string `short:"c" help:"Path to config file (overrides the default search chain)"`

	Serve ServeCmd `cmd:"" default:"1" help:"Run the LogOps HTTP service"`
	Seed  SeedCmd  `cmd:"" help:"Seed the search store with the demo log corpus"`
}

// Globals carries the loaded configuration and logger into commands
type Globals struct {
	Config *config.Config
	Logger *zap.Logger
}

// ServeCmd runs the HTTP service
type ServeCmd struct {
	Address string `short:"l" help:"Listen address (overrides config)"`
}

// Run starts the service and blocks until interrupted
func (s *ServeCmd) Run(g *Globals) error {
	cfg := g.Config
	if s.Address != "" {
		cfg.Server.Address = s.Address
	}

	store := search.NewClient(search.Config{
		URL:    cfg.Store.URL,
		APIKey: cfg.Store.APIKey,
		Index:  cfg.Store.Index,
	}, g.Logger)

	files := logfile.NewStore(cfg.Logs.Dir, g.Logger)
	res := resolver.New(store, files, g.Logger)

	remoteCfg := analyze.RemoteConfig{
		URL:    cfg.Model.URL,
		APIKey: cfg.Model.APIKey,
		Model:  cfg.Model.Name,
	}
	var strategies []analyze.Strategy
	if remoteCfg.Configured() {
		strategies = append(strategies, analyze.NewRemoteModel(remoteCfg, g.Logger))
	} else {
		g.Logger.Info("remote model not configured, analysis runs locally only")
	}
	strategies = append(strategies, analyze.NewLocalHeuristic())
	engine := analyze.NewEngine(g.Logger, strategies...)

	srv := server.New(res, engine, store, remoteCfg.Configured(), g.Logger)

	httpSrv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		g.Logger.Info("listening", zap.String("address", cfg.Server.Address))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	g.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// SeedCmd populates the search store with the demo corpus
type SeedCmd struct {
	Force bool `help:"Seed even when the index already holds documents"`
}

// Run generates and bulk-indexes the demo matrix
func (s *SeedCmd) Run(g *Globals) error {
	cfg := g.Config
	store := search.NewClient(search.Config{
		URL:    cfg.Store.URL,
		APIKey: cfg.Store.APIKey,
		Index:  cfg.Store.Index,
	}, g.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !store.Ping(ctx) {
		return fmt.Errorf("search store at %s is not reachable", cfg.Store.URL)
	}

	if !s.Force {
		count, err := store.Count(ctx)
		if err != nil {
			return fmt.Errorf("count documents: %w", err)
		}
		if count > seedSkipThreshold {
			g.Logger.Info("index already seeded, skipping",
				zap.String("index", store.Index()), zap.Int("documents", count))
			return nil
		}
	}

	entries := synth.NewGenerator().SeedCorpus()
	g.Logger.Info("seeding demo corpus",
		zap.String("index", store.Index()), zap.Int("entries", len(entries)))

	report, err := store.BulkIndex(ctx, entries)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	g.Logger.Info("seed complete",
		zap.Int("indexed", report.Indexed), zap.Int("errors", report.Errors))
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func main() {
	var c CLI
	ctx := kong.Parse(&c,
		kong.Name("logops"),
		kong.Description("LogOps: tiered log resolution and analysis service"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)

	var cfg *config.Config
	var err error
	if c.Config != "" {
		cfg, err = config.LoadFromFile(c.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := ctx.Run(&Globals{Config: cfg, Logger: logger}); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
