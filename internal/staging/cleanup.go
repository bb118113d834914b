package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mangafixer/internal/archive"
	"mangafixer/internal/logging"
)

// CleanStaleResult contains the outcome of a temp artifact sweep.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes temporary archives left under libraryRoot by an
// interrupted run when they are older than maxAge. A zero maxAge removes every
// artifact; callers hold the run lock, so no live rewrite can own one.
func CleanStale(ctx context.Context, libraryRoot string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	libraryRoot = strings.TrimSpace(libraryRoot)
	if libraryRoot == "" {
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	walkErr := filepath.WalkDir(libraryRoot, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == libraryRoot && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !entry.Type().IsRegular() || !archive.IsTempArtifact(entry.Name()) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			return nil
		}
		if maxAge > 0 && !info.ModTime().Before(cutoff) {
			return nil
		}

		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			logging.WarnWithContext(logger, "failed to remove temporary archive", "temp_cleanup_failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check library directory permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			return nil
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Info("removed temporary archive from interrupted run",
				logging.String(logging.FieldPath, path),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.Int64("size_bytes", info.Size()),
				logging.String(logging.FieldEventType, "temp_cleanup"),
			)
		}
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, filepath.SkipAll) {
		result.Errors = append(result.Errors, CleanupError{Path: libraryRoot, Error: walkErr})
	}
	return result
}

// ArtifactInfo describes one leftover temporary archive.
type ArtifactInfo struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// ListArtifacts returns every temporary archive under libraryRoot without
// removing anything. Unreadable subdirectories are skipped.
func ListArtifacts(libraryRoot string) ([]ArtifactInfo, error) {
	libraryRoot = strings.TrimSpace(libraryRoot)
	if libraryRoot == "" {
		return nil, nil
	}

	var artifacts []ArtifactInfo
	err := filepath.WalkDir(libraryRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == libraryRoot {
				return err
			}
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !archive.IsTempArtifact(entry.Name()) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		artifacts = append(artifacts, ArtifactInfo{Path: path, ModTime: info.ModTime(), Size: info.Size()})
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return artifacts, nil
}
