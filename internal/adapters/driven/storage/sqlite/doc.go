// Package sqlite provides a SQLite-based implementation of the record stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. One database connection backs every store:
//
//   - DocumentStore: report records with their ingestion status and index paths
//   - CompanyStore: companies owning the reports
//   - QueryStore: stored evaluation questions
//   - EvaluationStore: one row per evaluated data point
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.reportrag/data/records.db
package sqlite
