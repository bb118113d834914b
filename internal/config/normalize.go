package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	envLibraryDir = "MANGA_DIR"
	envDataDir    = "DATA_DIR"
	envLogLevel   = "MANGAFIXER_LOG_LEVEL"
	envLogFormat  = "MANGAFIXER_LOG_FORMAT"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := lookupEnv(envLibraryDir); ok {
		c.Paths.LibraryDir = value
	}
	if value, ok := lookupEnv(envDataDir); ok {
		c.Paths.DataDir = value
	}

	var err error
	if c.Paths.LibraryDir, err = expandPath(strings.TrimSpace(c.Paths.LibraryDir)); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() {
	if c.Scan.BatchSize <= 0 {
		c.Scan.BatchSize = defaultBatchSize
	}
	if c.Scan.BatchIntervalSeconds <= 0 {
		c.Scan.BatchIntervalSeconds = defaultBatchIntervalSeconds
	}
	if c.Scan.ProgressEvery <= 0 {
		c.Scan.ProgressEvery = defaultProgressEvery
	}
	if c.Scan.WatchIntervalSeconds <= 0 {
		c.Scan.WatchIntervalSeconds = defaultWatchIntervalSeconds
	}
	if c.Scan.MinFreeMB < 0 {
		c.Scan.MinFreeMB = 0
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := lookupEnv(envLogFormat); ok {
		c.Logging.Format = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := lookupEnv(envLogLevel); ok {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB < 0 {
		c.Logging.MaxSizeMB = 0
	}
}

// lookupEnv returns a trimmed, non-empty environment value.
func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
