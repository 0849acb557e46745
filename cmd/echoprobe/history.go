package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/echoprobe/internal/config"
	"github.com/hazz-dev/echoprobe/internal/history"
	"github.com/hazz-dev/echoprobe/internal/resultlog"
)

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recorded probe results, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			return executeHistory(cmd, store, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many rows (0 for all)")
	return cmd
}

type historyStore interface {
	LoadAll(ctx context.Context) ([]resultlog.Entry, error)
}

func executeHistory(cmd *cobra.Command, store historyStore, limit int) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	entries, err := store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading result log: %w", err)
	}

	view := history.Reconcile(entries)
	if !view.ShowTable {
		fmt.Fprintln(out, "No check history. Run 'echoprobe ping' first.")
		return nil
	}

	rows := view.Rows
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSTATE\tPING\tPING ERROR\tEMAIL\tEMAIL ERROR")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Time,
			r.RequestState,
			r.PingResult,
			r.PingError,
			r.EmailResult,
			r.EmailError,
		)
	}
	w.Flush()
	return nil
}
