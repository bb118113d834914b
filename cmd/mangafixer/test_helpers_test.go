package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mangafixer/internal/archive"
	"mangafixer/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	libraryDir string
	dataDir    string
	configPath string
	vol1       string
	vol2       string
}

// setupCLITestEnv builds a library with one untagged and one tagged archive.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"MANGA_DIR", "DATA_DIR", "MANGAFIXER_LOG_LEVEL", "MANGAFIXER_LOG_FORMAT"} {
		t.Setenv(key, "")
	}
	t.Chdir(base)

	env := &cliTestEnv{
		baseDir:    base,
		libraryDir: filepath.Join(base, "library"),
		dataDir:    filepath.Join(base, "data"),
		configPath: filepath.Join(base, "config.toml"),
	}
	env.vol1 = filepath.Join(env.libraryDir, "Series A", "Vol 1.cbz")
	env.vol2 = filepath.Join(env.libraryDir, "Series A", "Vol 2.cbz")
	testsupport.WriteCBZ(t, env.vol1, testsupport.Pages(2))
	tagged := testsupport.Pages(2)
	tagged[archive.DescriptorName] = []byte("<ComicInfo><Series>Keep</Series></ComicInfo>")
	testsupport.WriteCBZ(t, env.vol2, tagged)

	writeTestConfig(t, env.configPath, env.libraryDir, env.dataDir)
	return env
}

func writeTestConfig(t *testing.T, path, libraryDir, dataDir string) {
	t.Helper()
	content := fmt.Sprintf("[paths]\nlibrary_dir = %q\ndata_dir = %q\n\n[scan]\nmin_free_mb = 0\n\n[logging]\nlevel = \"error\"\n", libraryDir, dataDir)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
