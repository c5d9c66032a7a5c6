// Package priors reads and writes the machine-readable priors block embedded
// in markdown artifacts.
//
// An artifact carries exactly one section of the form:
//
//	## Priors (Machine)
//
//	Last updated: 2026-02-13 12:00 UTC
//
//	```json
//	[ ...priors... ]
//	```
//
// Everything outside that section (frontmatter, narrative prose, other
// headings) is opaque and preserved byte-for-byte by ReplaceMachineBlock.
// All functions in this package are pure text transforms; no I/O.
package priors
