// Package receipt writes one audit record per pipetriage run: who ran what,
// with which catalog, and what the triage concluded.
package receipt

// ReceiptSchemaVersion current
const ReceiptSchemaVersion = "1.0"

// Receipt structure
type Receipt struct {
	SchemaVersion string         `json:"schema_version"`
	OpID          string         `json:"op_id"`
	TsStart       string         `json:"ts_start"`
	TsEnd         string         `json:"ts_end"`
	Command       string         `json:"command"`
	Args          []string       `json:"args"`
	ArgsRedacted  bool           `json:"args_redacted,omitempty"`
	Result        Result         `json:"result"`
	Catalog       *CatalogRef    `json:"catalog,omitempty"`
	Triage        *TriageSummary `json:"triage,omitempty"`
	Drift         *DriftSummary  `json:"drift,omitempty"`
	Policy        *PolicySummary `json:"policy,omitempty"`
}

// Result status
type Result struct {
	Status string `json:"status"` // "success" or "fail"
	Error  string `json:"error,omitempty"`
}

// CatalogRef identifies the rule catalog an evaluation ran against
type CatalogRef struct {
	Name   string `json:"name"`
	Digest string `json:"digest"`
	Path   string `json:"path,omitempty"` // empty for the embedded default
}

// TriageSummary of one report
type TriageSummary struct {
	Parameters int    `json:"parameters"`
	Dominant   string `json:"dominant,omitempty"`
	Normal     int    `json:"normal"`
	Alert      int    `json:"alert"`
	Critical   int    `json:"critical"`

	// Activated lists non-normal mechanisms as "M4:alert"
	Activated []string `json:"activated,omitempty"`
}

// DriftSummary counts by differ severity
type DriftSummary struct {
	Critical int    `json:"critical"`
	Moderate int    `json:"moderate"`
	Info     int    `json:"info"`
	Summary  string `json:"summary,omitempty"`
}

// PolicySummary detail
type PolicySummary struct {
	Preset   string    `json:"preset,omitempty"` // inspection|strict|custom
	Status   string    `json:"status"`           // pass|warn|fail
	RulesHit []RuleHit `json:"rules_hit,omitempty"`
}

// RuleHit detail
type RuleHit struct {
	Name     string `json:"name"`
	Severity string `json:"severity"` // warn|error
}
