package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/pfrederiksen/wahlumfragen/internal/logger"
	"github.com/pfrederiksen/wahlumfragen/internal/server"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var statusAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for new surveys and post them until interrupted",
		Long: `Check the data source immediately and then once per poll interval
(10h by default). Whenever the source reports new data, the latest matching
survey is posted to every configured channel.

The watcher runs until interrupted (Ctrl+C) or it receives SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, statusAddr)
		},
	}

	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "Serve /healthz, /status and /metrics on this address (e.g. :8080)")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *globalOptions, statusAddr string) error {
	w, cfg, err := newWatcher(cmd, opts, false, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("status-addr") {
		cfg.StatusAddr = statusAddr
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.StatusAddr != "" {
		srv := server.New(cfg.StatusAddr, w, logger.DefaultMetrics(), logger.Default())
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("starting status server: %w", err)
		}
	}

	logger.Info("starting watcher", logger.Fields{
		"source":   cfg.Source,
		"interval": cfg.PollInterval.Duration().String(),
		"dry_run":  opts.dryRun,
	})

	return w.Run(ctx)
}

// cmdContext returns the command's context, or Background when run outside Execute
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
