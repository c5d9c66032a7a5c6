// Package compiler turns one experiment readout into a ledger entry and the
// confidence deltas it implies.
//
// Compilation is pure: the same readout over the same index always yields
// the same entry id, digest and deltas. Routing problems (unknown refs,
// ambiguous keyword matches) never fail compilation; they are reported as
// mapping diagnostics alongside whatever deltas could be produced.
package compiler
