package preflight

import (
	"mangafixer/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Advisory failures are reported but do not block a run.
	Advisory bool
	Err      error
}

// Blocking reports whether the result should stop a run.
func (r Result) Blocking() bool {
	return !r.Passed && !r.Advisory
}

// RunAll executes the preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckLibraryRoot("Library directory", cfg.Paths.LibraryDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}
	if results[0].Passed {
		results = append(results, CheckFreeSpace("Library free space", cfg.Paths.LibraryDir, cfg.MinFreeBytes()))
	}
	return results
}

// FirstBlocking returns the first blocking result, if any.
func FirstBlocking(results []Result) (Result, bool) {
	for _, r := range results {
		if r.Blocking() {
			return r, true
		}
	}
	return Result{}, false
}
