// Package main hosts the mangafixer CLI entrypoint and command graph.
//
// The default command walks the library, injects ComicInfo.xml into archives
// that lack one and records every handled archive in the tracking store.
// Subcommands expose the individual passes (bootstrap, fix, watch) plus
// read-only diagnostics (status, check) and store maintenance (forget).
//
// Keep this package lean: scanning, mutation and persistence live in the
// internal packages; commands here only resolve configuration, take the run
// lock and wire those pieces together.
package main
