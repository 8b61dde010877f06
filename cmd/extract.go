package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/app"
	"github.com/JakeFAU/orgextract/internal/config"
	"github.com/JakeFAU/orgextract/internal/extractor"
	"github.com/JakeFAU/orgextract/internal/orchestrator"
)

// runner is the part of app.App the extract command drives.
type runner interface {
	Run(ctx context.Context, targets []extractor.Target) (orchestrator.Summary, error)
	Close()
}

// newRunner is a variable so tests can swap in a fake.
var newRunner = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (runner, error) {
	return app.New(ctx, cfg, logger)
}

func newExtractCmd() *cobra.Command {
	var (
		targetFlags []string
		targetsFile string
		quiet       bool
	)
	cmd := &cobra.Command{
		Use:   "extract [target-url...]",
		Short: "Extract one record per organization page",
		Long: `Logs in once, then visits every target in order and appends one record per
target to the configured sinks. Targets come from arguments, --target flags,
--targets-file and the targets config key.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}
			targets, err := collectTargets(args, targetFlags, targetsFile, rt.cfg.Targets)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			r, err := newRunner(ctx, rt.cfg, rt.logger)
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}
			defer r.Close()

			rt.logger.Info("extraction starting", zap.Int("targets", len(targets)))
			summary, runErr := r.Run(ctx, targets)
			if !quiet {
				renderSummary(cmd.OutOrStdout(), summary)
			}
			switch {
			case runErr == nil:
				return nil
			case errors.Is(runErr, context.Canceled):
				rt.logger.Warn("extraction interrupted", zap.Int("processed", summary.Processed))
				return nil
			default:
				return fmt.Errorf("extraction: %w", runErr)
			}
		},
	}
	cmd.Flags().StringArrayVar(&targetFlags, "target", nil, "organization page URL (repeatable)")
	cmd.Flags().StringVar(&targetsFile, "targets-file", "", "file with one target URL per line")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the summary table")
	return cmd
}

func renderSummary(w io.Writer, s orchestrator.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("run %s", s.RunID))
	t.AppendHeader(table.Row{"#", "Target", "Company", "Written", "Error"})
	for i, row := range s.Rows {
		t.AppendRow(table.Row{i + 1, row.Target, row.Name, row.Written, row.Error})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d processed", s.Processed), fmt.Sprintf("%d failed", s.Failed()), fmt.Sprintf("%d written", s.Written), fmt.Sprintf("%d sink failures", s.SinkFailures)})
	t.Render()
}
