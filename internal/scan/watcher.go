package scan

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"mangafixer/internal/archive"
	"mangafixer/internal/logging"
)

const defaultSettleDelay = 15 * time.Second

// Watcher repeats Fix passes until its context is cancelled. A pass starts
// after Interval has elapsed or once the library has been quiet for
// SettleDelay after a change, whichever comes first.
type Watcher struct {
	runner      *Runner
	interval    time.Duration
	settleDelay time.Duration
	logger      *slog.Logger
	watcher     *fsnotify.Watcher

	// AfterPass, when set, observes every completed pass.
	AfterPass func(Summary)
}

// NewWatcher constructs a Watcher around runner.
func NewWatcher(runner *Runner, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Watcher{
		runner:      runner,
		interval:    interval,
		settleDelay: defaultSettleDelay,
		logger:      logging.NewComponentLogger(logger, "watch"),
	}
}

// SetSettleDelay overrides how long the library must be quiet after a change
// before a pass starts.
func (w *Watcher) SetSettleDelay(d time.Duration) {
	if d > 0 {
		w.settleDelay = d
	}
}

// Run blocks until ctx is cancelled or a pass fails fatally. Cancellation is
// not an error.
func (w *Watcher) Run(ctx context.Context) error {
	ctx = logging.WithPhase(ctx, "watch")
	logger := logging.WithContext(ctx, w.logger)

	events, errs, closeFn := w.subscribe(logger)
	defer closeFn()

	logger.Info("watching library",
		logging.String("library_root", w.runner.Root()),
		logging.Duration("interval", w.interval),
	)

	for {
		summary, err := w.runner.Fix(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if w.AfterPass != nil {
			w.AfterPass(summary)
		}
		if !w.wait(ctx, logger, events, errs) {
			return nil
		}
	}
}

// wait returns false when ctx is cancelled.
func (w *Watcher) wait(ctx context.Context, logger *slog.Logger, events <-chan fsnotify.Event, errs <-chan error) bool {
	interval := time.NewTimer(w.interval)
	defer interval.Stop()
	var settle *time.Timer
	var settleC <-chan time.Time
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-interval.C:
			return true
		case <-settleC:
			logger.Debug("library changed; starting pass")
			return true
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !w.relevant(logger, event) {
				continue
			}
			if settle == nil {
				settle = time.NewTimer(w.settleDelay)
				settleC = settle.C
			} else {
				settle.Reset(w.settleDelay)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logging.WarnWithContext(logger, "filesystem watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "raise fs.inotify.max_user_watches if the library is large"),
				logging.String(logging.FieldImpact, "changes are picked up on the next interval"),
			)
		}
	}
}

func (w *Watcher) relevant(logger *slog.Logger, event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if archive.IsTempArtifact(name) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if w.addTree(logger, event.Name) {
			return true
		}
	}
	if !IsArchiveName(name) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)
}

func (w *Watcher) subscribe(logger *slog.Logger) (<-chan fsnotify.Event, <-chan error, func()) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		logging.WarnWithContext(logger, "filesystem notifications unavailable", "watch_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "library is rescanned on the interval only"),
		)
		return nil, nil, func() {}
	}
	w.watcher = fw
	w.addTree(logger, w.runner.Root()+string(filepath.Separator))
	return fw.Events, fw.Errors, func() {
		_ = fw.Close()
		w.watcher = nil
	}
}

// addTree watches dir and every directory below it. It reports whether path
// was a directory.
func (w *Watcher) addTree(logger *slog.Logger, path string) bool {
	if w.watcher == nil {
		return false
	}
	isDir := false
	_ = filepath.WalkDir(path, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		isDir = true
		if addErr := w.watcher.Add(p); addErr != nil && !errors.Is(addErr, fsnotify.ErrClosed) {
			logger.Debug("watch add failed", logging.String(logging.FieldPath, p), logging.Error(addErr))
		}
		return nil
	})
	return isDir
}
