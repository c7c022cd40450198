// Package differ compares two triage reports of the same line: per-mechanism
// severity and driver changes plus raw JSON patches between them.
package differ

import (
	"encoding/json"
	"fmt"

	"github.com/pipetriage/pipetriage/internal/models"
	"github.com/wI2L/jsondiff"
)

// DriftType enum
type DriftType string

const (
	DriftSeverityEscalated   DriftType = "SEVERITY_ESCALATED"
	DriftSeverityDeescalated DriftType = "SEVERITY_DEESCALATED"
	DriftDriverAdded         DriftType = "DRIVER_ADDED"
	DriftDriverRemoved       DriftType = "DRIVER_REMOVED"
	DriftDominantChanged     DriftType = "DOMINANT_CHANGED"
	DriftValueAdded          DriftType = "VALUE_ADDED"
	DriftValueRemoved        DriftType = "VALUE_REMOVED"
	DriftValueChanged        DriftType = "VALUE_CHANGED"
	DriftCatalogChanged      DriftType = "CATALOG_CHANGED"
)

// DriftItem details
type DriftItem struct {
	Type       DriftType     `json:"type"`
	Severity   SeverityLevel `json:"severity"`
	Identifier string        `json:"identifier"` // mechanism code or parameter key
	Old        string        `json:"old,omitempty"`
	New        string        `json:"new,omitempty"`
	Message    string        `json:"message"`
}

// Result details
type Result struct {
	HasDrift bool        `json:"hasDrift"`
	Drifts   []DriftItem `json:"drifts"`
}

// MaxSeverity across drifts, SeveritySafe when there are none
func (r *Result) MaxSeverity() SeverityLevel {
	top := SeveritySafe
	for _, d := range r.Drifts {
		if d.Severity > top {
			top = d.Severity
		}
	}
	return top
}

// Compare a baseline report against a current one. Items come out in a fixed
// order: dominant, mechanisms in canonical order, values, catalog.
func Compare(baseline, current *models.Report) *Result {
	result := &Result{Drifts: []DriftItem{}}

	result.Drifts = append(result.Drifts, compareDominant(baseline, current)...)
	for _, m := range mechanismUnion(baseline, current) {
		result.Drifts = append(result.Drifts, compareMechanism(m, baseline.Summary(m), current.Summary(m))...)
	}
	result.Drifts = append(result.Drifts, compareValues(baseline.Values, current.Values)...)

	if baseline.CatalogDigest != current.CatalogDigest {
		result.Drifts = append(result.Drifts, DriftItem{
			Type:       DriftCatalogChanged,
			Severity:   SeveritySafe,
			Identifier: "catalog",
			Old:        baseline.CatalogDigest,
			New:        current.CatalogDigest,
			Message:    "Reports were produced with different rule catalogs",
		})
	}

	result.HasDrift = len(result.Drifts) > 0
	return result
}

func compareDominant(baseline, current *models.Report) []DriftItem {
	oldDom, newDom := dominantString(baseline.Dominant), dominantString(current.Dominant)
	if oldDom == newDom {
		return nil
	}
	return []DriftItem{{
		Type:       DriftDominantChanged,
		Severity:   SeverityCritical,
		Identifier: "dominant",
		Old:        oldDom,
		New:        newDom,
		Message:    fmt.Sprintf("Dominant mechanism changed from %s to %s", orNone(oldDom), orNone(newDom)),
	}}
}

func compareMechanism(m models.Mechanism, old, cur models.MechanismSummary) []DriftItem {
	var drifts []DriftItem

	switch {
	case cur.Severity > old.Severity:
		drifts = append(drifts, DriftItem{
			Type:       DriftSeverityEscalated,
			Severity:   escalationSeverity(cur.Severity),
			Identifier: string(m),
			Old:        old.Severity.String(),
			New:        cur.Severity.String(),
			Message:    fmt.Sprintf("%s (%s) escalated from %s to %s", m, m.Name(), old.Severity, cur.Severity),
		})
	case cur.Severity < old.Severity:
		drifts = append(drifts, DriftItem{
			Type:       DriftSeverityDeescalated,
			Severity:   SeveritySafe,
			Identifier: string(m),
			Old:        old.Severity.String(),
			New:        cur.Severity.String(),
			Message:    fmt.Sprintf("%s (%s) de-escalated from %s to %s", m, m.Name(), old.Severity, cur.Severity),
		})
	}

	oldSet := toSet(old.Drivers)
	curSet := toSet(cur.Drivers)
	for _, d := range cur.Drivers {
		if !oldSet[d] {
			drifts = append(drifts, DriftItem{
				Type:       DriftDriverAdded,
				Severity:   SeverityModerate,
				Identifier: string(m),
				New:        d,
				Message:    fmt.Sprintf("%s gained driver [%s]", m, d),
			})
		}
	}
	for _, d := range old.Drivers {
		if !curSet[d] {
			drifts = append(drifts, DriftItem{
				Type:       DriftDriverRemoved,
				Severity:   SeveritySafe,
				Identifier: string(m),
				Old:        d,
				Message:    fmt.Sprintf("%s lost driver [%s]", m, d),
			})
		}
	}

	return drifts
}

func compareValues(old, cur *models.Assignment) []DriftItem {
	var drifts []DriftItem

	for _, r := range old.Readings() {
		v, ok := cur.Get(r.Key)
		switch {
		case !ok:
			drifts = append(drifts, DriftItem{
				Type:       DriftValueRemoved,
				Severity:   SeveritySafe,
				Identifier: r.Key,
				Old:        r.Value.String(),
				Message:    fmt.Sprintf("Value [%s] is no longer reported", r.Key),
			})
		case v != r.Value:
			drifts = append(drifts, DriftItem{
				Type:       DriftValueChanged,
				Severity:   SeveritySafe,
				Identifier: r.Key,
				Old:        r.Value.String(),
				New:        v.String(),
				Message:    fmt.Sprintf("Value [%s] changed from %s to %s", r.Key, r.Value, v),
			})
		}
	}
	for _, r := range cur.Readings() {
		if _, ok := old.Get(r.Key); !ok {
			drifts = append(drifts, DriftItem{
				Type:       DriftValueAdded,
				Severity:   SeveritySafe,
				Identifier: r.Key,
				New:        r.Value.String(),
				Message:    fmt.Sprintf("Value [%s] is now reported as %s", r.Key, r.Value),
			})
		}
	}

	return drifts
}

// mechanismUnion keeps canonical order, then any extras in report order
func mechanismUnion(reports ...*models.Report) []models.Mechanism {
	seen := make(map[models.Mechanism]bool)
	var out []models.Mechanism
	add := func(m models.Mechanism) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	present := make(map[models.Mechanism]bool)
	for _, r := range reports {
		for _, s := range r.Summaries {
			present[s.Mechanism] = true
		}
	}
	for _, m := range models.CanonicalMechanisms {
		if present[m] {
			add(m)
		}
	}
	for _, r := range reports {
		for _, s := range r.Summaries {
			add(s.Mechanism)
		}
	}
	return out
}

// Patch between the JSON forms of two reports (RFC 6902)
func Patch(baseline, current *models.Report) (jsondiff.Patch, error) {
	baseJSON, err := json.Marshal(baseline)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal baseline report: %w", err)
	}
	curJSON, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal current report: %w", err)
	}

	patch, err := jsondiff.CompareJSON(baseJSON, curJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to compute diff: %w", err)
	}
	return patch, nil
}

func dominantString(m *models.Mechanism) string {
	if m == nil {
		return ""
	}
	return string(*m)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func toSet(s []string) map[string]bool {
	out := make(map[string]bool, len(s))
	for _, v := range s {
		out[v] = true
	}
	return out
}
