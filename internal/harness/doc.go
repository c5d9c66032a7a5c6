// Package harness runs learning scenarios end to end.
//
// A scenario lays out baseline artifacts and a run manifest in a scratch
// workspace, feeds a sequence of experiment readouts through the learning
// hook, and checks the resulting ledger, manifest and snapshots.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: pass_then_supersede
//	description: "A FAIL readout corrects an earlier PASS"
//	business: ACME
//	run_id: run-001
//	artifacts:
//	  - scope: forecast
//	    path: docs/business-os/startup-baselines/ACME/baseline-forecast.md
//	    file: artifacts/forecast.md
//	steps:
//	  - readout:
//	      experiment_id: booking-flow-test
//	      verdict: PASS
//	      confidence: HIGH
//	      prior_refs: [forecast#target.orders]
//	    expect:
//	      status: success
//	  - advance: 1h
//	    supersedes_step: 0
//	    readout: { ... }
//	assertions:
//	  - type: ledger_count
//	    view: effective
//	    count: 1
//	  - type: prior_confidence
//	    scope: forecast
//	    prior: target.orders
//	    confidence: 0.3
//
// Artifact files are resolved relative to the scenario file. An artifact may
// give its markdown inline under content instead.
//
// # Assertion Types
//
//   - ledger_count: number of entries in the all or effective view
//   - prior_confidence: confidence of a prior in the scope's current seed
//     (next_seed when set, otherwise the source artifact)
//   - next_seed: the scope's next_seed names the snapshot written by a step
//   - supersedes: a step's entry supersedes another step's entry
//
// # Deterministic Testing
//
// Every scenario runs with testutil.FixedClock starting at
// testutil.DefaultTime, so created_at values and snapshot markers are
// reproducible and golden traces compare byte for byte.
package harness
