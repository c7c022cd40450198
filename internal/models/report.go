package models

// Outcome of evaluating one parameter
type Outcome struct {
	Parameter string    `json:"parameter"`
	Mechanism Mechanism `json:"mechanism"`
	Level     Level     `json:"level"`
}

// MechanismSummary aggregates outcomes for one mechanism
type MechanismSummary struct {
	Mechanism      Mechanism `json:"mechanism"`
	ActivatedCount int       `json:"activatedCount"`
	Severity       Level     `json:"severity"`
	Drivers        []string  `json:"drivers"`
}

// Recommendation per mechanism, display only
type Recommendation struct {
	Mechanism Mechanism `json:"mechanism"`
	Severity  Level     `json:"severity"`
	Action    string    `json:"action"`
	Drivers   []string  `json:"drivers,omitempty"`
}

// Report is the full output of one evaluation
type Report struct {
	Values          *Assignment        `json:"values"`
	Outcomes        []Outcome          `json:"outcomes"`
	Summaries       []MechanismSummary `json:"summaries"`
	Dominant        *Mechanism         `json:"dominant"` // nil when nothing activated
	Recommendations []Recommendation   `json:"recommendations"`
	CatalogDigest   string             `json:"catalogDigest,omitempty"`
}

// Summary for a mechanism, zero value if absent
func (r *Report) Summary(m Mechanism) MechanismSummary {
	for _, s := range r.Summaries {
		if s.Mechanism == m {
			return s
		}
	}
	return MechanismSummary{Mechanism: m, Drivers: []string{}}
}

// SeverityCounts counts mechanisms per severity
func (r *Report) SeverityCounts() (normal, alert, critical int) {
	for _, s := range r.Summaries {
		switch s.Severity {
		case LevelCritical:
			critical++
		case LevelAlert:
			alert++
		default:
			normal++
		}
	}
	return normal, alert, critical
}
