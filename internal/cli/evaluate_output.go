package cli

import (
	"fmt"
	"strings"

	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/models"
)

// levelMark ✓ normal, ⚠ alert, ✗ critical
func levelMark(l models.Level) (string, string) {
	switch l {
	case models.LevelCritical:
		return colorRed, "✗"
	case models.LevelAlert:
		return colorYellow, "⚠"
	default:
		return colorGreen, "✓"
	}
}

// FormatReportText renders a report for the terminal
func FormatReportText(cat *catalog.Catalog, report *models.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%sTriage%s  catalog=%s (%s)  parameters=%d\n\n",
		colorBold, colorReset, cat.Name(), shortDigest(report.CatalogDigest), report.Values.Len()))

	if len(report.Outcomes) > 0 {
		sb.WriteString(fmt.Sprintf("%sParameters%s\n", colorBold, colorReset))
		for _, o := range report.Outcomes {
			color, mark := levelMark(o.Level)
			value, _ := report.Values.Get(o.Parameter)
			sb.WriteString(fmt.Sprintf("  %s%s%s %-28s %-10s %-4s %s\n",
				color, mark, colorReset, parameterName(cat, o.Parameter), value.String(), o.Mechanism, o.Level))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("%sMechanisms%s\n", colorBold, colorReset))
	for _, s := range report.Summaries {
		color, mark := levelMark(s.Severity)
		drivers := "-"
		if len(s.Drivers) > 0 {
			drivers = strings.Join(s.Drivers, ", ")
		}
		sb.WriteString(fmt.Sprintf("  %s%s%s %-4s %-40s %-8s %d  %s\n",
			color, mark, colorReset, s.Mechanism, s.Mechanism.Name(), s.Severity, s.ActivatedCount, drivers))
	}
	sb.WriteString("\n")

	if report.Dominant == nil {
		sb.WriteString(fmt.Sprintf("Dominant: %snone%s (no parameter outside normal range)\n", colorGreen, colorReset))
		return sb.String()
	}

	dominant := report.Summary(*report.Dominant)
	color, _ := levelMark(dominant.Severity)
	sb.WriteString(fmt.Sprintf("Dominant: %s%s %s%s\n\n", color, *report.Dominant, report.Dominant.Name(), colorReset))

	sb.WriteString(fmt.Sprintf("%sRecommendations%s\n", colorBold, colorReset))
	for _, rec := range report.Recommendations {
		if rec.Severity == models.LevelNormal {
			continue
		}
		color, mark := levelMark(rec.Severity)
		sb.WriteString(fmt.Sprintf("  %s%s %s%s %s\n", color, mark, rec.Mechanism, colorReset, rec.Action))
		for _, key := range rec.Drivers {
			if rule, ok := cat.Lookup(key); ok && rule.Advisory != "" {
				sb.WriteString(fmt.Sprintf("      - %s: %s\n", parameterName(cat, key), rule.Advisory))
			}
		}
	}

	return sb.String()
}

func parameterName(cat *catalog.Catalog, key string) string {
	if rule, ok := cat.Lookup(key); ok && rule.Label != "" {
		return rule.Label
	}
	return key
}

func shortDigest(d string) string {
	const n = len("sha256:") + 12
	if len(d) <= n {
		return d
	}
	return d[:n]
}
