// Package tracking persists which library archives have been handled in a
// SQLite database at {DATA_DIR}/processed_files.db.
//
// The Store is the only durable state mangafixer keeps. A path with a record
// is never handed to the archive mutator again until the store is rebuilt.
// Open recovers journal and WAL side files left by an unclean shutdown before
// the database is used, and every failure to open is fatal: there is no mode
// that runs without tracking.
//
// Schema changes bump schemaVersion; users delete the database (or run
// `mangafixer bootstrap --rebuild`) to adopt the new schema.
package tracking
