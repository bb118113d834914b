// Package logs reads the process log for `mangafixer logs`.
//
// It returns the last N lines with bounded memory, then follows appended
// lines by polling. The process log is truncated by rotation between runs, so
// a follower whose offset is past the end starts over from the beginning.
package logs
