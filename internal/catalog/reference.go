package catalog

import (
	"fmt"
	"strings"

	"github.com/pipetriage/pipetriage/internal/models"
)

// ReferenceRow is one line of the descriptive parameter table
type ReferenceRow struct {
	Driver    string           `json:"driver"`
	Key       string           `json:"key"`
	Label     string           `json:"label"`
	Kind      models.ValueKind `json:"kind"`
	Unit      string           `json:"unit,omitempty"`
	Criterion string           `json:"criterion"`
	Advisory  string           `json:"advisory"`
}

// ReferenceSection groups rows under one mechanism
type ReferenceSection struct {
	Mechanism models.Mechanism `json:"mechanism"`
	Name      string           `json:"name"`
	Rows      []ReferenceRow   `json:"rows"`
}

// ReferenceTable renders the catalog as a per-mechanism table.
// Mechanisms without rules still get an empty section.
func (c *Catalog) ReferenceTable() []ReferenceSection {
	sections := make([]ReferenceSection, 0, len(models.CanonicalMechanisms))
	for _, m := range c.Mechanisms() {
		section := ReferenceSection{
			Mechanism: m,
			Name:      m.Name(),
			Rows:      []ReferenceRow{},
		}
		for _, r := range c.RulesFor(m) {
			section.Rows = append(section.Rows, referenceRow(r))
		}
		sections = append(sections, section)
	}
	return sections
}

func referenceRow(r ParameterRule) ReferenceRow {
	label := r.Label
	if label == "" {
		label = r.Key
	}
	return ReferenceRow{
		Driver:    r.Driver,
		Key:       r.Key,
		Label:     label,
		Kind:      r.Kind,
		Unit:      r.Unit,
		Criterion: Criterion(r),
		Advisory:  r.Advisory,
	}
}

// Criterion text for a rule: the catalog override, else rendered from thresholds
func Criterion(r ParameterRule) string {
	if r.Criterion != "" {
		return r.Criterion
	}
	text := r.Alert.String()
	if r.Unit != "" && r.Alert.Op != OpIsTrue {
		text += " " + r.Unit
	}
	if r.Critical == nil {
		return text
	}
	critical := r.Critical.String()
	if r.Unit != "" {
		critical += " " + r.Unit
	}
	return text + " alert; " + critical + " critical"
}

// Markdown renders one table per mechanism, headed at the given level
func Markdown(sections []ReferenceSection, heading string) string {
	var sb strings.Builder
	for _, section := range sections {
		fmt.Fprintf(&sb, "%s %s %s\n\n", heading, section.Mechanism, section.Name)
		if len(section.Rows) == 0 {
			sb.WriteString("_No parameters._\n\n")
			continue
		}
		sb.WriteString("| Driver | Parameter | Key | Unit | Criterion | Advisory |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, r := range section.Rows {
			fmt.Fprintf(&sb, "| %s | %s | `%s` | %s | %s | %s |\n",
				r.Driver, r.Label, r.Key, r.Unit, r.Criterion, r.Advisory)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
