// Package ir provides the canonical record types shared by every stage of the
// prior ledger: priors, manifest pointers, experiment readouts, prior deltas
// and learning entries.
//
// This package contains type definitions, canonical serialization and
// content-addressed identity only. All other internal packages import ir; ir
// imports nothing internal.
//
// Key design constraints:
//   - All JSON tags use snake_case and match the on-disk artifact formats
//   - Identifiers (readout digest, entry id) are pure functions of semantic
//     fields; never of wall-clock time or filesystem location
//   - Readouts are validated once at the boundary (ValidateReadout); downstream
//     code treats Verdict and ConfidenceLevel as closed enums
package ir
