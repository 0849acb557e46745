package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/echoprobe/internal/config"
	"github.com/hazz-dev/echoprobe/internal/logging"
	"github.com/hazz-dev/echoprobe/internal/resultlog"
	"github.com/hazz-dev/echoprobe/internal/version"
)

var (
	cfgFile  string
	logLevel string
	logDir   string

	logCloser io.Closer = io.NopCloser(nil)
)

func main() {
	err := rootCmd().Execute()
	logCloser.Close()
	if err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "echoprobe",
		Short:             "Challenge/response uptime pinger with a history dashboard",
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file path")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logDir, "log-dir", "", "directory for rotated JSON log files (stderr only when empty)")

	root.AddCommand(versionCmd())
	root.AddCommand(pingCmd())
	root.AddCommand(listenCmd())
	root.AddCommand(dashboardCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(initLogCmd())

	return root
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(cmd.ErrOrStderr(), level, logDir)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	logCloser = closer
	slog.SetDefault(logger)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "echoprobe %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

func initLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-log",
		Short: "Create an empty result log if none exists",
		RunE:  runInitLog,
	}
}

func runInitLog(cmd *cobra.Command, _ []string) error {
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
	if err := store.Init(cmd.Context()); err != nil {
		return fmt.Errorf("initialising result log: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Result log ready at %s\n", cfg.Storage.Path)
	return nil
}
