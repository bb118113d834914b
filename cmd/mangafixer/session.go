package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"mangafixer/internal/config"
	"mangafixer/internal/logging"
	"mangafixer/internal/preflight"
	"mangafixer/internal/runlock"
	"mangafixer/internal/staging"
	"mangafixer/internal/tracking"
)

// session holds everything a scanning command needs for one run.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *tracking.Store
	lock   *runlock.Lock
	runID  string
	// fresh is true when no tracking store existed before this run.
	fresh bool
}

// openSession performs the startup sequence shared by every scanning command:
// preflight, run lock, log rotation, temp sweep and store recovery.
func openSession(ctx context.Context, cfg *config.Config) (context.Context, *session, error) {
	results := preflight.RunAll(cfg)
	if blocking, ok := preflight.FirstBlocking(results); ok {
		if blocking.Err != nil {
			return ctx, nil, blocking.Err
		}
		return ctx, nil, fmt.Errorf("%s: %s", blocking.Name, blocking.Detail)
	}

	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		return ctx, nil, err
	}
	s := &session{cfg: cfg, lock: lock, runID: uuid.NewString()}

	rotated, rotateErr := logging.RotateIfOversized(cfg.LogPath(), cfg.LogMaxBytes())

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		s.close()
		return ctx, nil, fmt.Errorf("init logger: %w", err)
	}
	ctx = logging.WithRunID(ctx, s.runID)
	s.logger = logger
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "session"))

	if rotateErr != nil {
		logging.WarnWithContext(logger, "process log rotation failed", "log_rotation_failed",
			logging.String("log_path", cfg.LogPath()),
			logging.Error(rotateErr),
			logging.String(logging.FieldImpact, "log file keeps growing"),
		)
	} else if rotated {
		logger.Info("process log truncated", logging.String("log_path", cfg.LogPath()))
	}

	for _, result := range results {
		if result.Passed {
			logger.Debug("preflight passed", logging.String("check", result.Name), logging.String("detail", result.Detail))
			continue
		}
		logging.WarnWithContext(logger, "preflight warning", "preflight_warning",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "archive rewrites may fail"),
			logging.String(logging.FieldErrorHint, "free space on the library volume"),
		)
	}

	swept := staging.CleanStale(ctx, cfg.Paths.LibraryDir, 0, logger)
	if len(swept.Removed) > 0 {
		logger.Info("removed temporary archives from an interrupted run",
			logging.Int("removed", len(swept.Removed)),
		)
	}
	for _, failure := range swept.Errors {
		logging.WarnWithContext(logger, "temporary archive cleanup failed", "temp_cleanup_failed",
			logging.String(logging.FieldPath, failure.Path),
			logging.Error(failure.Error),
		)
	}

	exists, err := tracking.Exists(cfg.Paths.DataDir)
	if err != nil {
		s.close()
		return ctx, nil, err
	}
	s.fresh = !exists

	store, err := tracking.Open(ctx, cfg.Paths.DataDir)
	if err != nil {
		s.close()
		return ctx, nil, err
	}
	s.store = store
	if recovered := store.Recovered(); len(recovered) > 0 {
		logging.WarnWithContext(logger, "recovered stale tracking store artifacts", "store_recovered",
			logging.Int("artifacts", len(recovered)),
			logging.String("db_path", store.Path()),
			logging.String(logging.FieldImpact, "a previous run ended abruptly; unrecorded archives are handled again"),
		)
	}

	logger.Info("mangafixer starting",
		logging.String("library_dir", cfg.Paths.LibraryDir),
		logging.String("data_dir", cfg.Paths.DataDir),
		logging.Bool("fresh_store", s.fresh),
	)
	return ctx, s, nil
}

func (s *session) close() {
	if s == nil {
		return
	}
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
		s.store = nil
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Release())
		s.lock = nil
	}
	if err := errors.Join(errs...); err != nil && s.logger != nil {
		logging.WarnWithContext(s.logger, "session shutdown incomplete", "session_close_failed", logging.Error(err))
	}
}
