// Package queue persists alert records in SQLite and exposes the atomic
// operations that drive their lifecycle.
//
// The Store owns three externally visible operations: Enqueue (insert with
// race-free duplicate suppression), ClaimBatch (atomic pending-to-processing
// handoff ordered by priority then schedule), and MarkSent/MarkFailed
// (outcome reporting with the retry ladder and dead-letter routing). Several
// worker processes may share one database; ClaimBatch is the only mutual
// exclusion point and is implemented as a single UPDATE ... RETURNING so two
// workers can never claim the same record.
//
// Records are never deleted here; retention of terminal rows is an external
// concern. Treat this package as the single source of truth for queue
// semantics; when you add statuses or columns, update schema.sql and bump
// schemaVersion.
package queue
