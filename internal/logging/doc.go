// Package logging assembles structured slog loggers and formatting helpers used
// across mangafixer.
//
// It owns the configurable console/JSON handlers, fans output to stdout and the
// process log in the data directory, and exposes context-aware helpers so scan
// code can tag lines with the run identifier and scan phase. The package also
// provides a no-op logger for tests, a progress sampler for non-interactive
// progress reporting, and size-based rotation of the process log.
package logging
