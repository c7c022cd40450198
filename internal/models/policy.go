package models

// PolicyMode controls how warn-severity failures are treated
type PolicyMode string

const (
	PolicyModeStrict PolicyMode = "strict" // warnings fail the check
	PolicyModeWarn   PolicyMode = "warn"
)

// PolicySeverity of a single rule
type PolicySeverity string

const (
	PolicySeverityError PolicySeverity = "error"
	PolicySeverityWarn  PolicySeverity = "warn"
)

// PolicyConfig from yaml
type PolicyConfig struct {
	Name  string       `yaml:"name" json:"name"`
	Mode  PolicyMode   `yaml:"mode,omitempty" json:"mode,omitempty"`
	Rules []PolicyRule `yaml:"rules" json:"rules"`
}

// PolicyRule cel rule
type PolicyRule struct {
	Name       string         `yaml:"name" json:"name"`
	Expr       string         `yaml:"expr" json:"expr"`
	FailureMsg string         `yaml:"failure_msg" json:"failure_msg"`
	Severity   PolicySeverity `yaml:"severity,omitempty" json:"severity,omitempty"`
}

// EffectiveSeverity defaults to error
func (r PolicyRule) EffectiveSeverity() PolicySeverity {
	if r.Severity == "" {
		return PolicySeverityError
	}
	return r.Severity
}

// PolicyResult eval result
type PolicyResult struct {
	RuleName   string         `json:"rule"`
	Passed     bool           `json:"passed"`
	Severity   PolicySeverity `json:"severity"`
	FailureMsg string         `json:"failure_msg,omitempty"`
}
