package ir

import (
	"bytes"
	"encoding/json"
	"sort"
)

// PriorType classifies what kind of belief a prior records.
type PriorType string

const (
	PriorAssumption PriorType = "assumption"
	PriorConstraint PriorType = "constraint"
	PriorTarget     PriorType = "target"
	PriorPreference PriorType = "preference"
	PriorRisk       PriorType = "risk"
)

// Operator is the comparison a prior's value is held to.
type Operator string

const (
	OpEq  Operator = "eq"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
)

// Prior is a single structured belief stored in an artifact's machine block.
//
// Fields the ledger does not model (for example "range") are kept in Extra and
// written back unchanged, so a snapshot never silently drops authored data.
type Prior struct {
	ID          string    `json:"id"`
	Type        PriorType `json:"type"`
	Statement   string    `json:"statement"`
	Confidence  float64   `json:"confidence"`
	Value       *float64  `json:"value,omitempty"`
	Unit        *string   `json:"unit,omitempty"`
	Operator    *Operator `json:"operator,omitempty"`
	LastUpdated string    `json:"last_updated"`
	Evidence    []string  `json:"evidence"`

	Extra map[string]json.RawMessage `json:"-"`
}

// priorFields lists the JSON names owned by Prior's typed fields.
var priorFields = map[string]bool{
	"id":           true,
	"type":         true,
	"statement":    true,
	"confidence":   true,
	"value":        true,
	"unit":         true,
	"operator":     true,
	"last_updated": true,
	"evidence":     true,
}

// UnmarshalJSON decodes the typed fields and captures everything else in Extra.
func (p *Prior) UnmarshalJSON(data []byte) error {
	type plain Prior
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, msg := range raw {
		if priorFields[k] {
			continue
		}
		if v.Extra == nil {
			v.Extra = make(map[string]json.RawMessage)
		}
		v.Extra[k] = msg
	}

	*p = Prior(v)
	return nil
}

// MarshalJSON writes typed fields in declaration order followed by Extra
// fields in sorted key order. HTML characters are not escaped.
func (p Prior) MarshalJSON() ([]byte, error) {
	type plain Prior
	if p.Evidence == nil {
		p.Evidence = []string{}
	}
	base, err := EncodeJSON(plain(p), "")
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return base, nil
	}

	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		if !priorFields[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	for _, k := range keys {
		keyBytes, err := EncodeJSON(k, "")
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(keyBytes)
		buf.WriteByte(':')
		buf.Write(p.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ManifestPointer identifies one artifact and the logical domain it represents.
type ManifestPointer struct {
	ArtifactScope string `json:"artifact_scope"`
	ArtifactPath  string `json:"artifact_path"`
}

// BaselineManifest lists the artifacts a run seeds from.
// NextSeed maps artifact scope to the snapshot the next run should seed from.
type BaselineManifest struct {
	RunID     string            `json:"run_id"`
	Baselines []ManifestPointer `json:"baselines"`
	NextSeed  map[string]string `json:"next_seed,omitempty"`
}

// PriorIndexEntry locates one prior inside one artifact.
type PriorIndexEntry struct {
	PriorID       string `json:"prior_id"`
	ArtifactScope string `json:"artifact_scope"`
	ArtifactPath  string `json:"artifact_path"`
	QualifiedRef  string `json:"qualified_ref"`
}

// QualifiedRef builds the "{scope}#{prior_id}" reference for a prior.
func QualifiedRef(scope, priorID string) string {
	return scope + "#" + priorID
}

// Verdict is the outcome of an experiment.
type Verdict string

const (
	VerdictPass         Verdict = "PASS"
	VerdictFail         Verdict = "FAIL"
	VerdictInconclusive Verdict = "INCONCLUSIVE"
)

// ValidVerdicts lists verdicts in the order they are reported to users.
var ValidVerdicts = []Verdict{VerdictPass, VerdictFail, VerdictInconclusive}

// ConfidenceLevel is how much an experiment's verdict should be trusted.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// ValidConfidenceLevels lists confidence levels in reporting order.
var ValidConfidenceLevels = []ConfidenceLevel{ConfidenceHigh, ConfidenceMedium, ConfidenceLow}

// Weight scales a verdict's base delta. Unknown levels weigh 0.
func (c ConfidenceLevel) Weight() float64 {
	switch c {
	case ConfidenceHigh:
		return 1.0
	case ConfidenceMedium:
		return 0.5
	case ConfidenceLow:
		return 0.25
	default:
		return 0
	}
}

// ExperimentReadout is the input fact the compiler learns from.
type ExperimentReadout struct {
	ExperimentID string             `json:"experiment_id" validate:"required"`
	RunID        string             `json:"run_id" validate:"required"`
	ReadoutPath  string             `json:"readout_path" validate:"required"`
	Verdict      Verdict            `json:"verdict" validate:"required,oneof=PASS FAIL INCONCLUSIVE"`
	Confidence   ConfidenceLevel    `json:"confidence" validate:"required,oneof=HIGH MEDIUM LOW"`
	PriorRefs    []string           `json:"prior_refs,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// MappingConfidence records how a delta was routed to its prior.
type MappingConfidence string

const (
	MappingExact     MappingConfidence = "exact"
	MappingKeyword   MappingConfidence = "keyword"
	MappingAmbiguous MappingConfidence = "ambiguous"
)

// PriorDelta is one confidence change for one prior.
// Invariant: NewConfidence == clamp(OldConfidence + Delta, 0, 1).
type PriorDelta struct {
	PriorID           string            `json:"prior_id"`
	ArtifactPath      string            `json:"artifact_path"`
	OldConfidence     float64           `json:"old_confidence"`
	NewConfidence     float64           `json:"new_confidence"`
	Delta             float64           `json:"delta"`
	Reason            string            `json:"reason"`
	EvidenceRef       string            `json:"evidence_ref"`
	MappingConfidence MappingConfidence `json:"mapping_confidence"`
}

// LearningEntry is one immutable ledger record.
//
// EntryID and ReadoutDigest depend only on semantic readout fields, so
// recompiling the same readout always yields the same entry.
type LearningEntry struct {
	SchemaVersion     int             `json:"schema_version"`
	EntryID           string          `json:"entry_id"`
	RunID             string          `json:"run_id"`
	ExperimentID      string          `json:"experiment_id"`
	ReadoutPath       string          `json:"readout_path"`
	ReadoutDigest     string          `json:"readout_digest"`
	CreatedAt         string          `json:"created_at"`
	Verdict           Verdict         `json:"verdict"`
	Confidence        ConfidenceLevel `json:"confidence"`
	AffectedPriors    []string        `json:"affected_priors"`
	PriorDeltasPath   string          `json:"prior_deltas_path"`
	SupersedesEntryID string          `json:"supersedes_entry_id,omitempty"`
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
