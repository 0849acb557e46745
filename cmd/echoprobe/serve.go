package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/echoprobe/internal/config"
	"github.com/hazz-dev/echoprobe/internal/listener"
	"github.com/hazz-dev/echoprobe/internal/resultlog"
	"github.com/hazz-dev/echoprobe/internal/server"
)

func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Serve the /api/health echo endpoint probes target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := slog.Default()
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return serveUntilSignal(cfg.Listener.Address, listener.Router(logger), logger)
		},
	}
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the probe history dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := slog.Default()
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := cfg.ValidateDashboard(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			store, err := resultlog.Open(cfg.Storage.Backend, cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("opening result log: %w", err)
			}
			srv := server.New(store, nil, logger)
			return serveUntilSignal(cfg.Dashboard.Address, srv.Router(), logger)
		},
	}
}

// serveUntilSignal runs handler on addr until SIGINT or SIGTERM, then shuts
// the server down gracefully.
func serveUntilSignal(addr string, handler http.Handler, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
