package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(envLibraryDir, "")
	t.Setenv(envDataDir, "")
	t.Setenv(envLogLevel, "")
	t.Setenv(envLogFormat, "")
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	isolateEnv(t)

	cfg, path, exists, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatalf("expected no config file, got %q", path)
	}
	if cfg.Paths.LibraryDir != "/manga" {
		t.Fatalf("unexpected library dir %q", cfg.Paths.LibraryDir)
	}
	if cfg.Paths.DataDir != "/data" {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Scan.BatchSize != 500 {
		t.Fatalf("unexpected batch size %d", cfg.Scan.BatchSize)
	}
	if cfg.WatchInterval() != 5*time.Minute {
		t.Fatalf("unexpected watch interval %s", cfg.WatchInterval())
	}
	if cfg.LogMaxBytes() != 50*1024*1024 {
		t.Fatalf("unexpected log max bytes %d", cfg.LogMaxBytes())
	}
	if cfg.LogPath() != "/data/process_log.txt" {
		t.Fatalf("unexpected log path %q", cfg.LogPath())
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := `[paths]
library_dir = "/srv/from-file"
data_dir = "/srv/state"

[logging]
level = "debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	library := filepath.Join(dir, "library")
	t.Setenv(envLibraryDir, library)
	t.Setenv(envLogLevel, "WARN")

	cfg, resolved, exists, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config %q to be used, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.LibraryDir != library {
		t.Fatalf("expected env library dir %q, got %q", library, cfg.Paths.LibraryDir)
	}
	if cfg.Paths.DataDir != "/srv/state" {
		t.Fatalf("expected file data dir, got %q", cfg.Paths.DataDir)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected env log level, got %q", cfg.Logging.Level)
	}
}

func TestLoadEmptyEnvironmentFallsBackToDefault(t *testing.T) {
	isolateEnv(t)
	t.Setenv(envDataDir, "   ")

	cfg, _, _, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataDir != "/data" {
		t.Fatalf("expected default data dir, got %q", cfg.Paths.DataDir)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	isolateEnv(t)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	library := filepath.Join(cwd, "comics")
	t.Setenv(envLibraryDir, "")
	os.Unsetenv(envLibraryDir)
	if err := os.WriteFile(filepath.Join(cwd, ".env"), []byte("MANGA_DIR="+library+"\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.LibraryDir != library {
		t.Fatalf("expected .env library dir %q, got %q", library, cfg.Paths.LibraryDir)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[scan]\nbatch = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestLoadProjectFileFallback(t *testing.T) {
	isolateEnv(t)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	projectPath := filepath.Join(cwd, "mangafixer.toml")
	if err := os.WriteFile(projectPath, []byte("[scan]\nbatch_size = 25\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, resolved, exists, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != projectPath {
		t.Fatalf("expected project config, got %q (exists=%v)", resolved, exists)
	}
	if cfg.Scan.BatchSize != 25 {
		t.Fatalf("expected batch size 25, got %d", cfg.Scan.BatchSize)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty library", func(c *Config) { c.Paths.LibraryDir = "" }, "paths.library_dir"},
		{"empty data", func(c *Config) { c.Paths.DataDir = "" }, "paths.data_dir"},
		{"same dirs", func(c *Config) { c.Paths.DataDir = c.Paths.LibraryDir }, "must differ"},
		{"zero batch", func(c *Config) { c.Scan.BatchSize = 0 }, "scan.batch_size"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNormalizeLoggingFormat(t *testing.T) {
	isolateEnv(t)
	cfg := Default()
	cfg.Logging.Format = " JSON "
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json, got %q", cfg.Logging.Format)
	}
	cfg.Logging.Format = "xml"
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected fallback to console, got %q", cfg.Logging.Format)
	}
}

func TestExpandPathHome(t *testing.T) {
	home := isolateEnv(t)
	got, err := ExpandPath("~/mangafixer")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "mangafixer") {
		t.Fatalf("unexpected expansion %q", got)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Scan.ProgressEvery != 10 {
		t.Fatalf("unexpected progress_every %d", cfg.Scan.ProgressEvery)
	}
}

func TestEnsureDirectoriesCreatesDataOnly(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.DataDir); err != nil {
		t.Fatalf("data dir missing: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.LibraryDir); !os.IsNotExist(err) {
		t.Fatalf("library dir should not be created, stat err=%v", err)
	}
}
