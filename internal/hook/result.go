package hook

// Status summarizes a Run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// Warning texts with fixed wording.
const (
	WarnDuplicateEntry = "Entry already exists in ledger (idempotent rerun)"
)

// Result is the outcome of one Run.
type Result struct {
	Status              Status   `json:"status"`
	EntryID             string   `json:"entry_id,omitempty"`
	LedgerAppended      bool     `json:"ledger_appended"`
	PriorDeltasPath     string   `json:"prior_deltas_path,omitempty"`
	UpdatedBaselines    []string `json:"updated_baselines"`
	ManifestUpdated     bool     `json:"manifest_updated"`
	CompilerDiagnostics []string `json:"compiler_diagnostics"`
	Warnings            []string `json:"warnings"`
	Error               string   `json:"error,omitempty"`
}

func errorResult(entryID string, diags []string, msg string) Result {
	if diags == nil {
		diags = []string{}
	}
	return Result{
		Status:              StatusError,
		EntryID:             entryID,
		UpdatedBaselines:    []string{},
		CompilerDiagnostics: diags,
		Warnings:            []string{},
		Error:               msg,
	}
}

// StageResult is the stage-result.json artifact.
type StageResult struct {
	LearningLedger      string              `json:"learning_ledger"`
	PriorDeltasPath     string              `json:"prior_deltas_path"`
	UpdatedBaselines    []string            `json:"updated_baselines"`
	CompilerDiagnostics StageDiagnosticsSet `json:"compiler_diagnostics"`
}

// StageDiagnosticsSet groups routing diagnostics and pipeline warnings.
type StageDiagnosticsSet struct {
	MappingDiagnostics []string `json:"mapping_diagnostics"`
	Warnings           []string `json:"warnings"`
}
