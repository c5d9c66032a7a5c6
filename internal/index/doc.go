// Package index builds the prior lookup used to route experiment readouts.
//
// An Index is derived and in-memory only. Entries follow manifest pointer
// order, then per-artifact prior order; nothing is sorted or shuffled, so two
// builds over the same inputs are identical.
//
// Bare prior ids may collide across artifacts. The builder never rejects
// that; ValidateNoDuplicateBareIDs is an opt-in strictness check, and routing
// falls back to qualified refs ("scope#id") when an id is ambiguous.
package index
