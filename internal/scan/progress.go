package scan

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"mangafixer/internal/logging"
)

// Reporter observes scan progress. It never influences control flow.
type Reporter interface {
	// Advance records that one more file has been handled.
	Advance()
	// Finish closes the indicator.
	Finish()
}

// NewReporter picks a terminal progress bar when w is an interactive terminal
// and milestone log lines otherwise. every controls how often, in files, the
// log reporter checks for a new 10% milestone.
func NewReporter(w io.Writer, total, every int, logger *slog.Logger) Reporter {
	if total <= 0 {
		return nopReporter{}
	}
	if isTerminal(w) {
		return newBarReporter(w, total)
	}
	return newLogReporter(total, every, logger)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type nopReporter struct{}

func (nopReporter) Advance() {}
func (nopReporter) Finish()  {}

type barReporter struct {
	bar *progressbar.ProgressBar
}

func newBarReporter(w io.Writer, total int) *barReporter {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: "-",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
	return &barReporter{bar: bar}
}

func (r *barReporter) Advance() { _ = r.bar.Add(1) }

func (r *barReporter) Finish() { _ = r.bar.Finish() }

type logReporter struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	total   int
	every   int
	current int
}

func newLogReporter(total, every int, logger *slog.Logger) *logReporter {
	if every <= 0 {
		every = 1
	}
	sampler := logging.NewProgressSampler(10)
	// Consume the 0% bucket so the first line appears at 10%.
	sampler.ShouldLog(0)
	return &logReporter{
		logger:  logger,
		sampler: sampler,
		total:   total,
		every:   every,
	}
}

func (r *logReporter) Advance() {
	r.current++
	if r.current%r.every != 0 && r.current != r.total {
		return
	}
	percent := float64(r.current) * 100 / float64(r.total)
	if !r.sampler.ShouldLog(percent) || r.logger == nil {
		return
	}
	r.logger.Info(FormatProgress(r.current, r.total),
		logging.Int("processed", r.current),
		logging.Int("total", r.total),
	)
}

func (r *logReporter) Finish() {}

// FormatProgress renders the milestone line, e.g. "Progress: 40% (40/100)".
func FormatProgress(current, total int) string {
	percent := 0
	if total > 0 {
		percent = current * 100 / total
	}
	return fmt.Sprintf("Progress: %d%% (%d/%d)", percent, current, total)
}
