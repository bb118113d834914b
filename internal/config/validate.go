package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return fmt.Errorf("paths.library_dir must be set (or export %s)", envLibraryDir)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("paths.data_dir must be set (or export %s)", envDataDir)
	}
	rel, err := filepath.Rel(c.Paths.LibraryDir, c.Paths.DataDir)
	if err == nil && rel == "." {
		return errors.New("paths.data_dir must differ from paths.library_dir")
	}
	return nil
}

func (c *Config) validateScan() error {
	return ensurePositiveMap(map[string]int{
		"scan.batch_size":             c.Scan.BatchSize,
		"scan.batch_interval_seconds": c.Scan.BatchIntervalSeconds,
		"scan.progress_every":         c.Scan.ProgressEvery,
		"scan.watch_interval_seconds": c.Scan.WatchIntervalSeconds,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q (use debug, info, warn, or error)", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
