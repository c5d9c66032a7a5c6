package ir

// Version constants for persisted records.
const (
	// SchemaVersion is written into every LearningEntry.
	SchemaVersion = 1

	// ToolVersion is the priorledger release reported by the CLI.
	ToolVersion = "0.1.0"
)
