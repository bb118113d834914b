package scan

import "time"

// SetClockForTest replaces the runner clock.
func SetClockForTest(r *Runner, now func() time.Time) {
	r.now = now
}
