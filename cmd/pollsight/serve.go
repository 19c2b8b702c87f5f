package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/pollsight/internal/api"
	"github.com/rewired-gh/pollsight/internal/digest"
	"github.com/rewired-gh/pollsight/internal/logger"
	"github.com/rewired-gh/pollsight/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when enabled, the periodic digest",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	var d *digest.Digest
	if a.cfg.Digest.Enabled {
		if d, err = newDigest(a); err != nil {
			return err
		}
	} else {
		logger.Debug("Digest disabled")
	}

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      api.NewServer(a.svc, a.metrics, api.Options{CORSOrigins: a.cfg.Server.CORSOrigins}).Handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if d != nil {
		g.Go(func() error { return d.Run(gctx) })
	}

	err = g.Wait()
	logger.Info("Service stopped")
	return err
}

func newDigest(a *app) (*digest.Digest, error) {
	var sender digest.Sender
	if a.cfg.Telegram.Enabled {
		client, err := telegram.NewClient(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID,
			a.cfg.Telegram.MaxRetries, a.cfg.Telegram.RetryDelayBase)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		logger.Info("Telegram client initialized successfully")
		sender = client
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	return digest.New(a.svc, sender, a.metrics, digest.Options{
		Interval:     a.cfg.Digest.Interval,
		TopK:         a.cfg.Digest.TopK,
		MinResponses: a.cfg.Digest.MinResponses,
		Cooldown:     a.cfg.Digest.Cooldown,
		Concurrency:  a.cfg.Digest.Concurrency,
	}), nil
}
