package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"mangafixer/internal/preflight"
	"mangafixer/internal/tracking"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var statusStyles = map[statusKind]struct {
	tag   string
	color string
}{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

const statusLabelWidth = 20

// statusPrinter writes the sections of the status report. Colors are only
// used when the destination is a terminal.
type statusPrinter struct {
	out      io.Writer
	colorize bool
	sections int
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, colorize: isTerminal(out)}
}

func (p *statusPrinter) section(title string) {
	if p.sections > 0 {
		fmt.Fprintln(p.out)
	}
	p.sections++
	heading := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(heading))
	fmt.Fprintln(p.out, p.paint(ansiBlue, heading))
	fmt.Fprintln(p.out, p.paint(ansiBlue, rule))
}

func (p *statusPrinter) line(label string, kind statusKind, message string) {
	fmt.Fprintln(p.out, formatStatusLine(label, kind, message, p.colorize))
}

// config reports which configuration file the run would use.
func (p *statusPrinter) config(path string, exists bool) {
	if !exists {
		p.line("Config", statusInfo, "defaults (no config file)")
		return
	}
	p.line("Config", statusInfo, path)
}

// check reports a preflight result. Advisory failures warn; the rest block a run.
func (p *statusPrinter) check(result preflight.Result) {
	kind := statusError
	switch {
	case result.Passed:
		kind = statusOK
	case result.Advisory:
		kind = statusWarn
	}
	p.line(result.Name, kind, result.Detail)
}

// storeHealth reports schema and integrity findings for an open store.
func (p *statusPrinter) storeHealth(dbPath string, health tracking.Health) {
	p.line("Database", statusOK, dbPath)

	schemaKind := statusOK
	schema := strconv.Itoa(health.SchemaVersion)
	if health.SchemaVersion == 0 || len(health.MissingColumns) > 0 {
		schemaKind = statusError
	}
	if len(health.MissingColumns) > 0 {
		schema += " (missing columns: " + strings.Join(health.MissingColumns, ", ") + ")"
	}
	p.line("Schema version", schemaKind, schema)

	if health.IntegrityCheck {
		p.line("Integrity check", statusOK, "ok")
	} else {
		p.line("Integrity check", statusError, "failed")
	}
}

func (p *statusPrinter) lastProcessed(at time.Time) {
	if at.IsZero() {
		p.line("Last processed", statusInfo, "never")
		return
	}
	p.line("Last processed", statusInfo, fmt.Sprintf("%s (%s)", humanize.Time(at), at.Local().Format(time.DateTime)))
}

func (p *statusPrinter) paint(color, text string) string {
	if !p.colorize {
		return text
	}
	return color + text + ansiReset
}

func formatStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	text := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", style.tag)
	if message != "" {
		text += " " + message
	}
	if colorize {
		return style.color + text + ansiReset
	}
	return text
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
