// Package jobs persists transcription jobs in SQLite.
//
// The Store manages the database connection, schema initialization, and the
// lifecycle columns the workflow manager updates while a provider transcript
// is in flight: status, progress, the provider job identifier, and the
// finished captions and SRT document.
//
// The database is treated as working storage for recent jobs rather than a
// long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package jobs
