package ir

// Version constants for the pipeline document and engine.
const (
	// DocumentVersion is the pipeline document schema version.
	DocumentVersion = "1"

	// EngineVersion is the taxflow engine version.
	EngineVersion = "0.1.0"
)
