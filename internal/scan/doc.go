// Package scan drives the enumerate, decide, mutate, record pipeline over a
// library of .cbz archives.
//
// Runner.Bootstrap processes every archive and commits tracking records in
// batches; Runner.Fix consults the tracking store first and commits one record
// per archive. Per-file failures are logged and counted, never fatal: the file
// stays unrecorded and is retried on the next pass. Store failures and an
// inaccessible library root abort the pass. Watcher repeats Fix on an interval
// and whenever the library changes.
package scan
