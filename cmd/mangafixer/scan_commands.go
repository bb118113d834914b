package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mangafixer/internal/archive"
	"mangafixer/internal/logging"
	"mangafixer/internal/scan"
)

type scanMode int

const (
	modeRun scanMode = iota
	modeBootstrap
	modeFix
	modeWatch
)

func newScanCommands(ctx *commandContext) []*cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Bootstrap the tracking store if missing, then fix new archives (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, ctx, modeRun, false)
		},
	}

	var rebuild bool
	bootstrapCmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Process the whole library and build the tracking store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, ctx, modeBootstrap, rebuild)
		},
	}
	bootstrapCmd.Flags().BoolVar(&rebuild, "rebuild", false, "Discard every tracking record before scanning")

	fixCmd := &cobra.Command{
		Use:   "fix",
		Short: "Process archives the tracking store has not seen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, ctx, modeFix, false)
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Fix new archives on an interval and when the library changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, ctx, modeWatch, false)
		},
	}

	return []*cobra.Command{runCmd, bootstrapCmd, fixCmd, watchCmd}
}

func runScan(cmd *cobra.Command, cmdCtx *commandContext, mode scanMode, rebuild bool) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close()

	logger := logging.NewComponentLogger(s.logger, "cli")
	runner := scan.NewRunner(cfg.Paths.LibraryDir, s.store, archive.NewMutator(s.logger), scan.Options{
		BatchSize:     cfg.Scan.BatchSize,
		BatchInterval: cfg.BatchInterval(),
		ProgressEvery: cfg.Scan.ProgressEvery,
		Output:        cmd.ErrOrStderr(),
	}, s.logger)
	out := cmd.OutOrStdout()

	err = executeMode(ctx, out, s, runner, mode, rebuild)
	if errors.Is(err, context.Canceled) {
		logging.WarnWithContext(logging.WithContext(ctx, logger), "run interrupted", "run_interrupted",
			logging.String(logging.FieldImpact, "remaining archives are handled on the next run"),
		)
		fmt.Fprintln(out, "Interrupted; progress so far has been saved.")
		return nil
	}
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(ctx, logger), "run aborted", errorKind(err),
			logging.Error(err),
			logging.Alert("run_aborted"),
			logging.String(logging.FieldErrorHint, "fix the cause and rerun; archives already recorded are not processed again"),
		)
	}
	return err
}

// errorKind returns the ErrorKind of the first classified error in err's chain.
func errorKind(err error) string {
	var classified interface{ ErrorKind() string }
	if errors.As(err, &classified) {
		return classified.ErrorKind()
	}
	return "run_failed"
}

func executeMode(ctx context.Context, out io.Writer, s *session, runner *scan.Runner, mode scanMode, rebuild bool) error {
	switch mode {
	case modeBootstrap:
		if rebuild {
			removed, err := s.store.Reset(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Discarded %d tracking records\n", removed)
		}
		return runPass(ctx, out, "Bootstrap", runner.Bootstrap)
	case modeFix:
		return runPass(ctx, out, "Fix", runner.Fix)
	case modeWatch:
		if s.fresh {
			if err := runPass(ctx, out, "Bootstrap", runner.Bootstrap); err != nil {
				return err
			}
		}
		watcher := scan.NewWatcher(runner, s.cfg.WatchInterval(), s.logger)
		watcher.AfterPass = func(summary scan.Summary) {
			if summary.Tagged > 0 || summary.AlreadyTagged > 0 || summary.Errors > 0 {
				printSummary(out, "Fix", summary)
			}
		}
		return watcher.Run(ctx)
	default:
		if s.fresh {
			if err := runPass(ctx, out, "Bootstrap", runner.Bootstrap); err != nil {
				return err
			}
		}
		return runPass(ctx, out, "Fix", runner.Fix)
	}
}

func runPass(ctx context.Context, out io.Writer, label string, pass func(context.Context) (scan.Summary, error)) error {
	summary, err := pass(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			printSummary(out, label, summary)
		}
		return err
	}
	printSummary(out, label, summary)
	return nil
}

func printSummary(out io.Writer, label string, summary scan.Summary) {
	fmt.Fprintf(out, "%s: %d archives, %d tagged, %d already tagged, %d skipped, %d errors (%s)\n",
		label,
		summary.Total,
		summary.Tagged,
		summary.AlreadyTagged,
		summary.Skipped,
		summary.Errors,
		summary.Duration.Round(time.Millisecond),
	)
}
