package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/radarip/radarip/internal/api"
	"github.com/radarip/radarip/internal/auth"
	"github.com/radarip/radarip/internal/credentials"
	"github.com/radarip/radarip/internal/database"
	"github.com/radarip/radarip/internal/discovery"
	"github.com/radarip/radarip/internal/probe"
	"github.com/radarip/radarip/internal/radar"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				a.cfg.Server.Host = host
			}
			if port != 0 {
				a.cfg.Server.Port = port
			}
			return runServe(cmd.Context(), a)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen address (default 127.0.0.1)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default 8080)")

	return cmd
}

func runServe(parent context.Context, a *app) error {
	cfg, logger := a.cfg, a.logger

	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	logger.Info("Starting radarip server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"transport", cfg.SSH.Transport,
	)

	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize authentication service
	authService, err := auth.NewService(
		cfg.Auth.JWTSecret,
		cfg.Auth.AdminUsername,
		cfg.Auth.AdminPassword,
		cfg.Auth.GetJWTExpiry(),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize auth service: %w", err)
	}

	var (
		recorder discovery.Recorder
		history  api.HistoryReader
		pinger   api.Pinger
	)
	if cfg.Database.Enabled {
		pool, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("DB init failed: %w", err)
		}
		defer pool.Close()

		// Run embedded migrations (compiled into the binary)
		if err := database.RunMigrations(ctx, pool); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}

		store := database.NewHistoryStore(pool)
		recorder, history, pinger = store, store, pool
		logger.Info("Scan history enabled")
	}

	hub := discovery.NewHub(logger)
	go hub.Run(ctx)

	worker := discovery.NewWorker(cfg.Scanner.QueueSize, recorder, logger)
	worker.SetRetention(cfg.Scanner.JobRetention)
	worker.SetNotifier(hub)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Scan worker error", "error", err)
		}
	}()

	deps := &api.Dependencies{
		Auth:     authService,
		Planner:  radar.NewPlanner(cfg, credentials.NewService(), logger),
		Scans:    worker,
		Profiles: cfg.Profiles,
		Registry: probe.GetRegistry(),
		History:  history,
		Events:   hub,
		Logger:   logger,
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(deps, pinger),
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		cancel()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	<-workerDone

	logger.Info("Server stopped gracefully")
	return nil
}
