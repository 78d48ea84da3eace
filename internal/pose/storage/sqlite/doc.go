// Package sqlite contains the SQLite repository for recorded squat sessions.
//
// All database reads and writes for sessions and repetitions belong here
// rather than in the pipeline, which reports through its RepSink hook. This
// keeps the per-frame path free of SQL and makes storage optional.
//
// The schema is owned by the embedded migrations directory and applied with
// golang-migrate on Open.
package sqlite
