package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the tracking database file inside the data directory.
const FileName = "processed_files.db"

// Store manages tracking persistence backed by SQLite.
type Store struct {
	db        *sql.DB
	path      string
	recovered []string
	now       func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Exists reports whether the main store file is present in dataDir. Its
// absence is the signal to run the bootstrap scanner.
func Exists(dataDir string) (bool, error) {
	info, err := os.Stat(filepath.Join(dataDir, FileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat tracking store: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("tracking store %q is a directory", filepath.Join(dataDir, FileName))
	}
	return true, nil
}

// Open initializes or connects to the tracking database in dataDir.
func Open(ctx context.Context, dataDir string) (*Store, error) {
	ctx = ensureContext(ctx)
	dbPath := filepath.Join(dataDir, FileName)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, &StoreOpenError{Path: dbPath, Op: "create data directory", Err: err}
	}

	recovered, err := recoverArtifacts(ctx, dataDir)
	if err != nil {
		return nil, &StoreOpenError{Path: dbPath, Op: "recover stale artifacts", Err: err}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &StoreOpenError{Path: dbPath, Op: "open sqlite db", Err: err}
	}
	// One connection keeps the pragmas below in force for every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, &StoreOpenError{Path: dbPath, Op: fmt.Sprintf("apply pragma %q", pragma), Err: execErr}
		}
	}

	store := &Store{db: db, path: dbPath, recovered: recovered, now: time.Now}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, &StoreOpenError{Path: dbPath, Op: "initialize schema", Err: err}
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Recovered lists the stale side files removed while opening the store.
func (s *Store) Recovered() []string {
	out := make([]string, len(s.recovered))
	copy(out, s.recovered)
	return out
}

// IsProcessed reports whether path has a tracking record.
func (s *Store) IsProcessed(ctx context.Context, path string) (bool, error) {
	key, err := normalizePath(path)
	if err != nil {
		return false, err
	}
	var exists int
	err = s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM processed_files WHERE path = ? AND status = ?`, key, statusProcessed,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", key, err)
	}
	return exists > 0, nil
}

// Get returns the record for path, or nil when there is none.
func (s *Store) Get(ctx context.Context, path string) (*Record, error) {
	key, err := normalizePath(path)
	if err != nil {
		return nil, err
	}
	var (
		record      Record
		outcome     sql.NullString
		firstSeen   string
		processedAt sql.NullString
	)
	err = s.db.QueryRowContext(ensureContext(ctx),
		`SELECT path, status, outcome, first_seen, processed_at FROM processed_files WHERE path = ?`, key,
	).Scan(&record.Path, &record.Status, &outcome, &firstSeen, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	record.Outcome = Outcome(outcome.String)
	record.FirstSeen = parseTime(firstSeen)
	if processedAt.Valid {
		record.ProcessedAt = parseTime(processedAt.String)
	}
	return &record, nil
}

const upsertSQL = `INSERT INTO processed_files (path, status, outcome, first_seen, processed_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
    status = excluded.status,
    outcome = excluded.outcome,
    processed_at = excluded.processed_at`

// MarkProcessed upserts a processed record for path and commits it.
func (s *Store) MarkProcessed(ctx context.Context, path string, outcome Outcome) error {
	key, err := normalizePath(path)
	if err != nil {
		return err
	}
	stamp := formatTime(s.now())
	if err := s.execWithoutResultRetry(ctx, upsertSQL, key, statusProcessed, string(outcome), stamp, stamp); err != nil {
		return fmt.Errorf("mark %s processed: %w", key, err)
	}
	return nil
}

// MarkProcessedBatch upserts every mark in a single transaction. An empty
// batch is a no-op.
func (s *Store) MarkProcessedBatch(ctx context.Context, marks []Mark) error {
	if len(marks) == 0 {
		return nil
	}
	keys := make([]string, len(marks))
	for i, mark := range marks {
		key, err := normalizePath(mark.Path)
		if err != nil {
			return err
		}
		keys[i] = key
	}

	ctx = ensureContext(ctx)
	stamp := formatTime(s.now())
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, upsertSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, mark := range marks {
			if _, err := stmt.ExecContext(ctx, keys[i], statusProcessed, string(mark.Outcome), stamp, stamp); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("mark batch of %d processed: %w", len(marks), err)
	}
	return nil
}

// Forget removes the record for path so the next run retries it.
func (s *Store) Forget(ctx context.Context, path string) (bool, error) {
	key, err := normalizePath(path)
	if err != nil {
		return false, err
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM processed_files WHERE path = ?`, key)
	if err != nil {
		return false, fmt.Errorf("forget %s: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Reset removes every record and returns how many were deleted.
func (s *Store) Reset(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM processed_files`)
	if err != nil {
		return 0, fmt.Errorf("reset tracking store: %w", err)
	}
	return res.RowsAffected()
}

func normalizePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("tracking path is empty")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", trimmed, err)
	}
	return abs, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
