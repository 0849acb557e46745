package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/echoprobe/internal/checker"
	"github.com/hazz-dev/echoprobe/internal/config"
	"github.com/hazz-dev/echoprobe/internal/notify"
	"github.com/hazz-dev/echoprobe/internal/pinger"
	"github.com/hazz-dev/echoprobe/internal/resultlog"
)

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Run one challenge/response probe and record the result",
		Long: `Sends a fresh challenge token to the target's /api/health endpoint,
emails an alert if the echo is missing or wrong, and appends the outcome
to the result log. Run it from cron or a systemd timer.`,
		RunE: runPing,
	}
}

func runPing(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidatePinger(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	email, err := notify.NewEmail(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("creating notifier: %w", err)
	}

	store, err := resultlog.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening result log: %w", err)
	}

	c := checker.NewHealthChecker(cfg.Target.BaseURL, cfg.Target.Timeout.Duration)
	runner := pinger.New(c, email, store, cfg.Email.To, logger)

	return executePing(cmd, runner)
}

type cycleRunner interface {
	Run(ctx context.Context) (resultlog.Entry, error)
}

// executePing runs a single cycle. A failed probe is reported but is not an
// error; only a failure to record the outcome is.
func executePing(cmd *cobra.Command, r cycleRunner) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	entry, err := r.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if entry.PingResult == resultlog.PingSuccess {
		fmt.Fprintf(out, "%s %s\n", entry.PingResult, entry.PingedURL)
		return nil
	}
	fmt.Fprintf(out, "%s %s: %s\n", entry.PingResult, entry.PingedURL, entry.PingError)
	if entry.EmailError != "" {
		fmt.Fprintf(out, "email %s: %s\n", entry.EmailResult, entry.EmailError)
	} else {
		fmt.Fprintf(out, "email %s\n", entry.EmailResult)
	}
	return nil
}
