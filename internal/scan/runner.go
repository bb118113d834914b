package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"mangafixer/internal/archive"
	"mangafixer/internal/logging"
	"mangafixer/internal/tracking"
)

// Store is the subset of the tracking store the scan loop needs.
type Store interface {
	IsProcessed(ctx context.Context, path string) (bool, error)
	MarkProcessed(ctx context.Context, path string, outcome tracking.Outcome) error
	MarkProcessedBatch(ctx context.Context, marks []tracking.Mark) error
}

// Processor tags one archive.
type Processor interface {
	Process(path string) archive.Result
}

// Options tunes a Runner.
type Options struct {
	// BatchSize flushes bootstrap records after this many recordable files.
	BatchSize int
	// BatchInterval flushes bootstrap records when this much time has passed
	// since the last flush.
	BatchInterval time.Duration
	// ProgressEvery is how often, in files, progress is considered for output.
	ProgressEvery int
	// Output receives the progress bar when it is a terminal.
	Output io.Writer
}

// Summary counts what one pass did.
type Summary struct {
	Total         int
	Tagged        int
	AlreadyTagged int
	Skipped       int
	Errors        int
	Duration      time.Duration
}

// Runner executes scan passes over one library root.
type Runner struct {
	root      string
	store     Store
	processor Processor
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// NewRunner constructs a Runner. Zero options fall back to the defaults.
func NewRunner(root string, store Store, processor Processor, opts Options, logger *slog.Logger) *Runner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.BatchInterval <= 0 {
		opts.BatchInterval = 30 * time.Second
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 10
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return &Runner{
		root:      root,
		store:     store,
		processor: processor,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "scan"),
		now:       time.Now,
	}
}

// Root returns the library root the runner scans.
func (r *Runner) Root() string {
	return r.root
}

// Bootstrap processes every archive under the root without consulting the
// store and commits records in batches. On cancellation the pending batch is
// flushed before returning the context error.
func (r *Runner) Bootstrap(ctx context.Context) (Summary, error) {
	ctx = logging.WithPhase(ctx, "bootstrap")
	logger := logging.WithContext(ctx, r.logger)
	start := r.now()

	paths, err := Enumerate(ctx, r.root, logger)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Total: len(paths)}
	logger.Info("bootstrap scan started", logging.Int("total", len(paths)), logging.String("library_root", r.root))

	reporter := NewReporter(r.opts.Output, len(paths), r.opts.ProgressEvery, logger)
	defer reporter.Finish()

	pending := make([]tracking.Mark, 0, r.opts.BatchSize)
	lastFlush := r.now()
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		// Records already tagged on disk must reach the store even when the
		// pass is being cancelled.
		if err := r.store.MarkProcessedBatch(context.WithoutCancel(ctx), pending); err != nil {
			return fmt.Errorf("commit bootstrap batch: %w", err)
		}
		logger.Debug("bootstrap batch committed", logging.Int("records", len(pending)))
		pending = pending[:0]
		lastFlush = r.now()
		return nil
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		result := r.processor.Process(path)
		r.tally(logger, &summary, result)
		if result.Recordable() {
			pending = append(pending, tracking.Mark{Path: path, Outcome: recordOutcome(result.Outcome)})
		}
		if len(pending) >= r.opts.BatchSize || r.now().Sub(lastFlush) >= r.opts.BatchInterval {
			if err := flush(); err != nil {
				return r.finish(summary, start), err
			}
		}
		reporter.Advance()
	}
	if err := flush(); err != nil {
		return r.finish(summary, start), err
	}

	summary = r.finish(summary, start)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	r.logSummary(logger, "bootstrap scan finished", summary)
	return summary, nil
}

// Fix processes archives the store does not know yet, committing each record
// as soon as its archive is handled. Known archives are skipped without
// touching them.
func (r *Runner) Fix(ctx context.Context) (Summary, error) {
	ctx = logging.WithPhase(ctx, "fix")
	logger := logging.WithContext(ctx, r.logger)
	start := r.now()

	paths, err := Enumerate(ctx, r.root, logger)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Total: len(paths)}
	logger.Debug("fix scan started", logging.Int("total", len(paths)))

	reporter := NewReporter(r.opts.Output, len(paths), r.opts.ProgressEvery, logger)
	defer reporter.Finish()

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return r.finish(summary, start), err
		}
		processed, err := r.store.IsProcessed(ctx, path)
		if err != nil {
			return r.finish(summary, start), fmt.Errorf("check tracking store: %w", err)
		}
		if processed {
			summary.Skipped++
			reporter.Advance()
			continue
		}

		result := r.processor.Process(path)
		r.tally(logger, &summary, result)
		if result.Recordable() {
			if err := r.store.MarkProcessed(context.WithoutCancel(ctx), path, recordOutcome(result.Outcome)); err != nil {
				return r.finish(summary, start), fmt.Errorf("record %s: %w", path, err)
			}
		}
		reporter.Advance()
	}

	summary = r.finish(summary, start)
	r.logSummary(logger, "fix scan finished", summary)
	return summary, nil
}

func (r *Runner) finish(summary Summary, start time.Time) Summary {
	summary.Duration = r.now().Sub(start)
	return summary
}

func (r *Runner) tally(logger *slog.Logger, summary *Summary, result archive.Result) {
	switch result.Outcome {
	case archive.OutcomeTagged:
		summary.Tagged++
		logger.Info("added ComicInfo.xml",
			logging.String(logging.FieldPath, result.Path),
			logging.String(logging.FieldOutcome, result.Outcome.String()),
		)
	case archive.OutcomeAlreadyTagged:
		summary.AlreadyTagged++
		logger.Debug("archive already tagged", logging.String(logging.FieldPath, result.Path))
	default:
		summary.Errors++
		logging.WarnWithContext(logger, "archive skipped; will retry next run", skipEventType(result.Err),
			logging.String(logging.FieldPath, result.Path),
			logging.String(logging.FieldOutcome, result.Outcome.String()),
			logging.Error(result.Err),
			logging.String(logging.FieldErrorHint, "check that the file is a valid zip and the directory is writable"),
			logging.String(logging.FieldImpact, "archive left without ComicInfo.xml"),
		)
	}
}

func (r *Runner) logSummary(logger *slog.Logger, msg string, summary Summary) {
	logger.Info(msg,
		logging.Int("total", summary.Total),
		logging.Int("tagged", summary.Tagged),
		logging.Int("already_tagged", summary.AlreadyTagged),
		logging.Int("skipped", summary.Skipped),
		logging.Int("errors", summary.Errors),
		logging.Duration("duration", summary.Duration),
	)
}

func recordOutcome(outcome archive.Outcome) tracking.Outcome {
	if outcome == archive.OutcomeAlreadyTagged {
		return tracking.OutcomeAlreadyTagged
	}
	return tracking.OutcomeTagged
}

func skipEventType(err error) string {
	var classifier interface{ ErrorKind() string }
	if errors.As(err, &classifier) {
		return classifier.ErrorKind() + "_failed"
	}
	return "archive_skipped"
}
