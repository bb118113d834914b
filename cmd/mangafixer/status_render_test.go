package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"mangafixer/internal/preflight"
	"mangafixer/internal/tracking"
)

func TestStatusPrinterCheckKinds(t *testing.T) {
	var buf bytes.Buffer
	printer := newStatusPrinter(&buf)
	printer.check(preflight.Result{Name: "Library directory", Passed: true, Detail: "/library"})
	printer.check(preflight.Result{Name: "Library free space", Advisory: true, Detail: "12 MB free"})
	printer.check(preflight.Result{Name: "Data directory", Detail: "not writable"})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", buf.String())
	}
	for i, want := range []string{"[OK] /library", "[WARN] 12 MB free", "[ERROR] not writable"} {
		requireContains(t, lines[i], want)
	}
	requireNotContains(t, buf.String(), ansiReset)
}

func TestStatusPrinterStoreHealth(t *testing.T) {
	var buf bytes.Buffer
	printer := newStatusPrinter(&buf)
	printer.storeHealth("/data/processed_files.db", tracking.Health{SchemaVersion: 1, MissingColumns: []string{"outcome"}})
	printer.lastProcessed(time.Time{})

	out := buf.String()
	requireContains(t, out, "[OK] /data/processed_files.db")
	requireContains(t, out, "[ERROR] 1 (missing columns: outcome)")
	requireContains(t, out, "Integrity check:")
	requireContains(t, out, "[ERROR] failed")
	requireContains(t, out, "[INFO] never")
}

func TestStatusPrinterSeparatesSections(t *testing.T) {
	var buf bytes.Buffer
	printer := newStatusPrinter(&buf)
	printer.section("System")
	printer.section("Tracking Store")

	want := "== System ==\n------------\n\n== Tracking Store ==\n--------------------\n"
	if buf.String() != want {
		t.Fatalf("unexpected section output %q", buf.String())
	}
}
