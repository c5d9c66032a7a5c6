package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainReadout = "priorledger/readout/v1"
	DomainEntry   = "priorledger/entry/v1"
)

// ShortIDLength is the number of hex characters used in derived file names.
const ShortIDLength = 8

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash returns the SHA-256 hex digest of raw file content.
// Used for snapshot integrity checks, where the hash must be reproducible
// with standard tools (sha256sum).
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ReadoutDigest computes the semantic digest of a readout.
//
// Only confidence, experiment_id, metrics, prior_refs and verdict are hashed.
// ReadoutPath and any timestamp are EXCLUDED: relocating or re-timestamping a
// readout must not change its identity. Absent metrics hash as {} and absent
// refs as [], so omitted and empty are the same readout.
func ReadoutDigest(r ExperimentReadout) (string, error) {
	metrics := r.Metrics
	if metrics == nil {
		metrics = map[string]float64{}
	}
	refs := r.PriorRefs
	if refs == nil {
		refs = []string{}
	}

	payload := map[string]any{
		"confidence":    string(r.Confidence),
		"experiment_id": r.ExperimentID,
		"metrics":       metrics,
		"prior_refs":    refs,
		"verdict":       string(r.Verdict),
	}

	canonical, err := MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("ReadoutDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainReadout, canonical), nil
}

// EntryID computes the ledger identity of a compiled readout.
// Same run, experiment and digest always produce the same id; this is the
// ledger's dedup key.
func EntryID(runID, experimentID, readoutDigest string) (string, error) {
	payload := map[string]any{
		"run_id":         runID,
		"experiment_id":  experimentID,
		"readout_digest": readoutDigest,
	}

	canonical, err := MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("EntryID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEntry, canonical), nil
}

// ShortID returns the first ShortIDLength characters of id, or all of id when
// it is shorter. A "-suffix" after the hex part is kept, so derived ids such
// as "<id>-inv" stay distinct from id.
func ShortID(id string) string {
	head, suffix := id, ""
	if i := strings.IndexByte(id, '-'); i >= 0 {
		head, suffix = id[:i], id[i:]
	}
	if len(head) > ShortIDLength {
		head = head[:ShortIDLength]
	}
	return head + suffix
}

// PriorDeltasFileName names the prior-deltas artifact for an entry.
func PriorDeltasFileName(entryID string) string {
	return fmt.Sprintf("prior-deltas-%s.json", ShortID(entryID))
}

// MustReadoutDigest is like ReadoutDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustReadoutDigest(r ExperimentReadout) string {
	d, err := ReadoutDigest(r)
	if err != nil {
		panic(err)
	}
	return d
}
