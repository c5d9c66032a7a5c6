// Package snapshot writes copy-on-write snapshots of prior artifacts.
//
// A snapshot is the source artifact with its machine block rewritten after
// applying one ledger entry's deltas. The source is never modified. The
// snapshot path depends only on the source path and the entry id, so
// re-running an entry targets the same file; an existing file there must
// hash-match the content about to be written or the apply fails with an
// IntegrityError.
package snapshot
