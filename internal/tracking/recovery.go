package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// isArtifactName reports whether name is a SQLite side file of the store,
// such as processed_files.db-journal, -wal or -shm.
func isArtifactName(name string) bool {
	if name == FileName || !strings.HasPrefix(name, FileName) {
		return false
	}
	rest := name[len(FileName):]
	return strings.HasPrefix(rest, "-") || strings.HasPrefix(rest, ".")
}

func listArtifacts(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !isArtifactName(entry.Name()) {
			continue
		}
		out = append(out, filepath.Join(dataDir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// recoverArtifacts clears side files left by an unclean shutdown. When the
// main database exists SQLite replays or rolls back the journal first so
// committed batches survive; whatever remains afterwards is removed. It
// returns the paths that were deleted.
func recoverArtifacts(ctx context.Context, dataDir string) ([]string, error) {
	artifacts, err := listArtifacts(dataDir)
	if err != nil {
		return nil, fmt.Errorf("list data directory: %w", err)
	}
	if len(artifacts) == 0 {
		return nil, nil
	}

	mainPath := filepath.Join(dataDir, FileName)
	if _, statErr := os.Stat(mainPath); statErr == nil {
		// Best effort: a journal that cannot be replayed is discarded below.
		_ = replayJournal(ctx, mainPath)
		if artifacts, err = listArtifacts(dataDir); err != nil {
			return nil, fmt.Errorf("list data directory: %w", err)
		}
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat tracking store: %w", statErr)
	}

	removed := make([]string, 0, len(artifacts))
	for _, path := range artifacts {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", filepath.Base(path), err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

func replayJournal(ctx context.Context, mainPath string) error {
	db, err := sql.Open("sqlite", mainPath)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	var tables int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(1) FROM sqlite_master").Scan(&tables); err != nil {
		return err
	}
	var busy, logFrames, checkpointed int
	// Not in WAL mode means there is nothing to checkpoint.
	_ = db.QueryRowContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)").Scan(&busy, &logFrames, &checkpointed)
	return nil
}
