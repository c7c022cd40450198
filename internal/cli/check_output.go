package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pipetriage/pipetriage/internal/differ"
	"github.com/pipetriage/pipetriage/internal/models"
	"github.com/pipetriage/pipetriage/internal/policy"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
)

// FailOnLevel threshold for failure
type FailOnLevel string

const (
	FailOnCritical FailOnLevel = "critical"
	FailOnModerate FailOnLevel = "moderate"
	FailOnInfo     FailOnLevel = "info"
)

// ParseFailOnLevel from string
func ParseFailOnLevel(s string) (FailOnLevel, error) {
	switch strings.ToLower(s) {
	case "critical":
		return FailOnCritical, nil
	case "moderate":
		return FailOnModerate, nil
	case "info":
		return FailOnInfo, nil
	default:
		return "", fmt.Errorf("invalid fail-on level: %s (use critical, moderate, or info)", s)
	}
}

// ShouldFail checks limits
func (f FailOnLevel) ShouldFail(severity differ.SeverityLevel) bool {
	switch f {
	case FailOnCritical:
		return severity == differ.SeverityCritical
	case FailOnModerate:
		return severity >= differ.SeverityModerate
	case FailOnInfo:
		return true // all severities fail
	default:
		return severity == differ.SeverityCritical
	}
}

// CheckResult of comparing two triage reports
type CheckResult struct {
	Baseline         string            `json:"baseline"`
	Current          string            `json:"current"`
	BaselineDominant string            `json:"baselineDominant"`
	CurrentDominant  string            `json:"currentDominant"`
	Summary          CheckSummary      `json:"summary"`
	Drift            []DriftOutputItem `json:"drift"`
	Changes          []string          `json:"changes,omitempty"`
	Policy           *PolicyDecision   `json:"policy,omitempty"`
	FailOn           string            `json:"failOn"`
	Outcome          string            `json:"outcome"` // "PASS" or "FAIL"
}

// CheckSummary by severity
type CheckSummary struct {
	Critical int `json:"critical"`
	Moderate int `json:"moderate"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

// DriftOutputItem detail
type DriftOutputItem struct {
	Type       string `json:"type"`
	Severity   string `json:"severity"`
	Identifier string `json:"identifier"`
	Old        string `json:"old,omitempty"`
	New        string `json:"new,omitempty"`
	Message    string `json:"message"`
}

// PolicyDecision result
type PolicyDecision struct {
	Preset   string   `json:"preset"`
	Decision string   `json:"decision"`
	Passed   bool     `json:"passed"`
	Reasons  []string `json:"reasons,omitempty"`
}

// BuildCheckResult from components
func BuildCheckResult(
	baselinePath string,
	currentPath string,
	baseline, current *models.Report,
	drift *differ.Result,
	changes []string,
	policyConfig *models.PolicyConfig,
	policyResults []models.PolicyResult,
	policyPreset string,
	failOn FailOnLevel,
) *CheckResult {
	result := &CheckResult{
		Baseline:         baselinePath,
		Current:          currentPath,
		BaselineDominant: dominantName(baseline.Dominant),
		CurrentDominant:  dominantName(current.Dominant),
		Drift:            []DriftOutputItem{},
		Changes:          changes,
		FailOn:           string(failOn),
		Outcome:          "PASS",
	}

	if drift != nil {
		for _, d := range drift.Drifts {
			result.Drift = append(result.Drift, DriftOutputItem{
				Type:       string(d.Type),
				Severity:   differ.SeverityString(d.Severity),
				Identifier: d.Identifier,
				Old:        d.Old,
				New:        d.New,
				Message:    d.Message,
			})
		}
	}

	result.Summary = calculateSummary(drift)

	if policyConfig != nil {
		result.Policy = buildPolicyDecision(policyConfig, policyResults, policyPreset)
	}

	if result.Policy != nil && !result.Policy.Passed {
		result.Outcome = "FAIL"
	} else if shouldFailOnDrift(drift, failOn) {
		result.Outcome = "FAIL"
	}

	return result
}

func buildPolicyDecision(config *models.PolicyConfig, results []models.PolicyResult, preset string) *PolicyDecision {
	decision := policy.Decide(config, results)
	pd := &PolicyDecision{
		Preset:   preset,
		Decision: string(decision),
		Passed:   decision != policy.DecisionFail,
	}
	for _, pr := range results {
		if !pr.Passed {
			pd.Reasons = append(pd.Reasons, fmt.Sprintf("[%s] %s: %s", pr.Severity, pr.RuleName, pr.FailureMsg))
		}
	}
	return pd
}

// calculateSummary counts
func calculateSummary(drift *differ.Result) CheckSummary {
	summary := CheckSummary{}
	if drift == nil {
		return summary
	}

	for _, d := range drift.Drifts {
		switch d.Severity {
		case differ.SeverityCritical:
			summary.Critical++
		case differ.SeverityModerate:
			summary.Moderate++
		default:
			summary.Info++
		}
		summary.Total++
	}

	return summary
}

// shouldFailOnDrift checks threshold
func shouldFailOnDrift(drift *differ.Result, failOn FailOnLevel) bool {
	if drift == nil || !drift.HasDrift {
		return false
	}
	return failOn.ShouldFail(drift.MaxSeverity())
}

// FormatTextOutput human readable
func FormatTextOutput(result *CheckResult) string {
	var sb strings.Builder

	policyName := "none"
	if result.Policy != nil {
		policyName = result.Policy.Preset
	}

	if result.Outcome == "PASS" {
		sb.WriteString(fmt.Sprintf("%spipetriage diff: PASS%s (policy=%s, fail-on=%s)\n",
			colorGreen, colorReset, policyName, result.FailOn))
	} else {
		sb.WriteString(fmt.Sprintf("%spipetriage diff: FAIL%s (policy=%s, fail-on=%s)\n",
			colorRed, colorReset, policyName, result.FailOn))
	}

	sb.WriteString(fmt.Sprintf("Baseline: %s (dominant %s)\n", result.Baseline, result.BaselineDominant))
	sb.WriteString(fmt.Sprintf("Current:  %s (dominant %s)\n", result.Current, result.CurrentDominant))
	sb.WriteString("\n")

	if result.Summary.Total > 0 {
		groups := groupDriftBySeverity(result.Drift)

		if len(groups["critical"]) > 0 {
			sb.WriteString(fmt.Sprintf("%sCRITICAL (%d)%s\n", colorRed, len(groups["critical"]), colorReset))
			for _, d := range groups["critical"] {
				formatDriftItem(&sb, d, colorRed)
			}
			sb.WriteString("\n")
		}

		if len(groups["moderate"]) > 0 {
			sb.WriteString(fmt.Sprintf("%sMODERATE (%d)%s\n", colorYellow, len(groups["moderate"]), colorReset))
			for _, d := range groups["moderate"] {
				formatDriftItem(&sb, d, colorYellow)
			}
			sb.WriteString("\n")
		}

		if len(groups["info"]) > 0 {
			sb.WriteString(fmt.Sprintf("INFO (%d)\n", len(groups["info"])))
			for _, d := range groups["info"] {
				formatDriftItem(&sb, d, "")
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString(fmt.Sprintf("%s✓ No drift detected%s\n\n", colorGreen, colorReset))
	}

	if len(result.Changes) > 0 {
		sb.WriteString("Changes:\n")
		for _, c := range result.Changes {
			sb.WriteString(fmt.Sprintf("  • %s\n", c))
		}
		sb.WriteString("\n")
	}

	if result.Policy != nil {
		switch policy.Decision(result.Policy.Decision) {
		case policy.DecisionPass:
			sb.WriteString(fmt.Sprintf("Policy: %sPASS%s\n", colorGreen, colorReset))
		case policy.DecisionWarn:
			sb.WriteString(fmt.Sprintf("Policy: %sWARN%s\n", colorYellow, colorReset))
		default:
			sb.WriteString(fmt.Sprintf("Policy: %sDENY%s\n", colorRed, colorReset))
		}
		for _, reason := range result.Policy.Reasons {
			sb.WriteString(fmt.Sprintf("- %s\n", reason))
		}
	}

	return sb.String()
}

// groupDriftBySeverity keeps the comparison order within each group
func groupDriftBySeverity(drifts []DriftOutputItem) map[string][]DriftOutputItem {
	groups := map[string][]DriftOutputItem{
		"critical": {},
		"moderate": {},
		"info":     {},
	}
	for _, d := range drifts {
		groups[d.Severity] = append(groups[d.Severity], d)
	}
	return groups
}

func formatDriftItem(sb *strings.Builder, d DriftOutputItem, color string) {
	if color != "" {
		sb.WriteString(fmt.Sprintf("%s- %s: %s%s\n", color, d.Type, d.Identifier, colorReset))
	} else {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", d.Type, d.Identifier))
	}

	if d.Old != "" || d.New != "" {
		sb.WriteString(fmt.Sprintf("    %s → %s\n", orDash(d.Old), orDash(d.New)))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func dominantName(m *models.Mechanism) string {
	if m == nil {
		return "none"
	}
	return string(*m)
}

// FormatJSONOutput raw json
func FormatJSONOutput(result *CheckResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}
