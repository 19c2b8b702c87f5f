package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rewired-gh/pollsight/internal/cache"
	"github.com/rewired-gh/pollsight/internal/config"
	"github.com/rewired-gh/pollsight/internal/insight"
	"github.com/rewired-gh/pollsight/internal/logger"
	"github.com/rewired-gh/pollsight/internal/metrics"
	"github.com/rewired-gh/pollsight/internal/service"
	"github.com/rewired-gh/pollsight/internal/storage"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "pollsight",
	Short: "Poll response aggregation and insight generation",
	Long: `pollsight stores poll responses, aggregates them into distributions and
summary statistics, and turns those into short human-readable insights.

Configuration is read from a YAML file and POLLSIGHT_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before configuration")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the components shared by every command.
type app struct {
	cfg     *config.Config
	store   *storage.Storage
	cache   *cache.Cache
	metrics *metrics.Metrics
	gen     *insight.Generator
	svc     *service.Service
}

func newApp() (*app, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if configPath != "" {
		logger.Info("Configuration loaded from %s", configPath)
	}

	store, err := storage.New(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	c := cache.New(cfg.Cache.FilePath)
	if err := c.Load(); err != nil {
		logger.Warn("Failed to load response cache, starting empty: %v", err)
	}

	m := metrics.New()
	gen := &insight.Generator{
		Estimator:            insight.NewJitterEstimator(cfg.Insights.JitterSeed),
		GlobalMinResponses:   cfg.Insights.GlobalMinResponses,
		PersonalMinResponses: cfg.Insights.PersonalMinResponses,
		MaxInsights:          cfg.Insights.MaxInsights,
	}
	svc := service.New(store, c, gen, m, service.Options{Concurrency: cfg.Digest.Concurrency})

	return &app{cfg: cfg, store: store, cache: c, metrics: m, gen: gen, svc: svc}, nil
}

func (a *app) close() {
	if err := a.cache.Persist(); err != nil {
		logger.Error("Failed to persist response cache: %v", err)
	}
	if err := a.store.Close(); err != nil {
		logger.Error("Failed to close storage: %v", err)
	}
	logger.Sync()
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			logger.Info("Shutdown signal received, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
