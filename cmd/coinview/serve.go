package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/coinview/internal/api"
	"github.com/newthinker/coinview/internal/api/handler/web"
	"github.com/newthinker/coinview/internal/metrics"
	"github.com/newthinker/coinview/internal/storage/coin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the coinview server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting coinview server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("archive", cfg.Storage.Archive.Type),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	store := coin.NewMemoryStore(cfg.Cache.TTL, cfg.Cache.MaxSize)
	store.StartCleanupRoutine(ctx, cfg.Cache.TTL)

	svc, err := newService(cfg, log, store, reg)
	if err != nil {
		return err
	}

	// Create API server
	server, err := api.NewServer(api.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		APIKey:         cfg.Server.APIKey,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}, api.Dependencies{
		Fetcher: svc,
		Builder: newBuilder(cfg),
		Web: web.Options{
			TemplatesDir: cfg.Server.TemplatesDir,
			RenderWait:   cfg.Server.RenderWait,
			Featured:     cfg.View.Featured,
		},
		Metrics: reg,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down coinview server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}
