package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// RotateIfOversized truncates the log at path once it exceeds limit bytes.
// A non-positive limit disables rotation. Missing files are not an error.
func RotateIfOversized(path string, limit int64) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() || info.Size() <= limit {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("remove oversized log: %w", err)
	}
	return true, nil
}

// cappedFile is an append-only log file that truncates itself before a write
// once it has grown past limit bytes.
type cappedFile struct {
	mu    sync.Mutex
	file  *os.File
	limit int64
}

func openCappedFile(path string, limit int64) (*cappedFile, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return &cappedFile{file: file, limit: limit}, nil
}

func (c *cappedFile) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.limit > 0 {
		if info, err := c.file.Stat(); err == nil && info.Size() > c.limit {
			if err := c.file.Truncate(0); err != nil {
				return 0, fmt.Errorf("truncate oversized log: %w", err)
			}
		}
	}
	return c.file.Write(p)
}
