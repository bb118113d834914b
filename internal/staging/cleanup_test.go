package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mangafixer/internal/logging"
)

const testTempID = "1d2c3b4a-5e6f-4a7b-8c9d-0e1f2a3b4c5d"

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("partial zip"), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, 0, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q, got %#v", dir, result)
		}
	}
}

func TestCleanStaleRemovesTempArchivesOnly(t *testing.T) {
	root := t.TempDir()
	temp := filepath.Join(root, "Series A", ".Vol 1.cbz.mangafixer-"+testTempID+".tmp")
	archivePath := filepath.Join(root, "Series A", "Vol 1.cbz")
	hidden := filepath.Join(root, "Series A", ".DS_Store")
	writeFile(t, temp)
	writeFile(t, archivePath)
	writeFile(t, hidden)

	result := CleanStale(context.Background(), root, 0, logging.NewNop())

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors %#v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != temp {
		t.Fatalf("unexpected removed list %v", result.Removed)
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Error("temp archive should have been removed")
	}
	for _, kept := range []string{archivePath, hidden} {
		if _, err := os.Stat(kept); err != nil {
			t.Errorf("%s should still exist: %v", kept, err)
		}
	}
}

func TestCleanStaleHonorsMaxAge(t *testing.T) {
	root := t.TempDir()
	oldTemp := filepath.Join(root, ".old.cbz.mangafixer-"+testTempID+".tmp")
	recentTemp := filepath.Join(root, "nested", ".new.cbz.mangafixer-"+testTempID+".tmp")
	writeFile(t, oldTemp)
	writeFile(t, recentTemp)
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldTemp, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	result := CleanStale(context.Background(), root, time.Hour, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != oldTemp {
		t.Fatalf("unexpected removed list %v", result.Removed)
	}
	if _, err := os.Stat(recentTemp); err != nil {
		t.Error("recent temp archive should still exist")
	}
}

func TestCleanStaleStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	temp := filepath.Join(root, ".a.cbz.mangafixer-"+testTempID+".tmp")
	writeFile(t, temp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := CleanStale(ctx, root, 0, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Fatalf("expected nothing removed after cancel, got %v", result.Removed)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected cancellation error, got %#v", result.Errors)
	}
}

func TestListArtifacts(t *testing.T) {
	root := t.TempDir()
	temp := filepath.Join(root, "x", ".b.cbz.mangafixer-"+testTempID+".tmp")
	writeFile(t, temp)
	writeFile(t, filepath.Join(root, "x", "b.cbz"))

	artifacts, err := ListArtifacts(root)
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(artifacts) != 1 || artifacts[0].Path != temp || artifacts[0].Size != int64(len("partial zip")) {
		t.Fatalf("unexpected artifacts %#v", artifacts)
	}

	missing, err := ListArtifacts(filepath.Join(root, "absent"))
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing root, got %v err=%v", missing, err)
	}
}
