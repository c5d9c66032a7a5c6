// Package hook runs the learning pipeline for one experiment readout.
//
// Run sequences index build, compilation, ledger append, the prior-deltas
// artifact, supersede inversion, snapshot writes, the manifest next_seed
// update and the stage result. Anything that fails before or at the ledger
// append yields StatusError and nothing after it runs. Failures after the
// append never roll the ledger back; they become warnings and StatusPartial.
package hook
