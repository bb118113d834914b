// Package preflight provides readiness checks for the filesystem paths
// mangafixer depends on.
//
// These checks run in two contexts:
//   - Every scanning command calls RunAll before opening the tracking store.
//     A failed library check aborts the run; low free space only warns.
//   - The CLI "mangafixer status" command renders the same results as a table.
package preflight
