// Package ledger provides the per-business append-only learning ledger.
//
// # Invariants
//
// Append-only: entries are never rewritten or removed. Corrections are new
// entries carrying supersedes_entry_id.
//
// Idempotent: an entry whose entry_id is already present is not written
// again. Replaying a readout is always safe.
//
// Ordering: queries return entries sorted by created_at ascending. The sort
// is stable, so entries with equal timestamps keep their storage order.
//
// The ordering, dedup and supersede rules live in entries.go as pure
// functions; backends only load and persist entries.
//
// # Backends
//
//   - FileBackend: JSON lines at {root}/{business}/learning-ledger.jsonl,
//     rewritten by temp-file and rename on every append
//   - SQLiteBackend: one table shared by all businesses (WAL mode)
//   - MemoryBackend: for tests
package ledger
