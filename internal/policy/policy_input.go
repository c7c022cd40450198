package policy

import (
	"github.com/pipetriage/pipetriage/internal/models"
)

// ReportInput is the CEL view of a triage report:
//
//	input.dominant                  "M2" or "" when nothing activated
//	input.mechanisms.M1.severity    "normal" | "alert" | "critical"
//	input.mechanisms.M1.activated   int
//	input.mechanisms.M1.drivers     [string]
//	input.outcomes[i]               {parameter, mechanism, level}
//	input.values.ph                 number or bool
//	input.counts.{normal,alert,critical}
//	input.catalog_digest            string
func ReportInput(report *models.Report) map[string]interface{} {
	mechanisms := make(map[string]interface{}, len(report.Summaries))
	for _, s := range report.Summaries {
		mechanisms[string(s.Mechanism)] = map[string]interface{}{
			"name":      s.Mechanism.Name(),
			"severity":  s.Severity.String(),
			"activated": int64(s.ActivatedCount),
			"drivers":   stringSliceToInterface(s.Drivers),
		}
	}

	outcomes := make([]interface{}, len(report.Outcomes))
	for i, o := range report.Outcomes {
		outcomes[i] = map[string]interface{}{
			"parameter": o.Parameter,
			"mechanism": string(o.Mechanism),
			"level":     o.Level.String(),
		}
	}

	values := make(map[string]interface{}, report.Values.Len())
	for _, r := range report.Values.Readings() {
		values[r.Key] = r.Value.Interface()
	}

	dominant := ""
	if report.Dominant != nil {
		dominant = string(*report.Dominant)
	}

	normal, alert, critical := report.SeverityCounts()

	return map[string]interface{}{
		"dominant":   dominant,
		"mechanisms": mechanisms,
		"outcomes":   outcomes,
		"values":     values,
		"counts": map[string]interface{}{
			"normal":   int64(normal),
			"alert":    int64(alert),
			"critical": int64(critical),
		},
		"catalog_digest": report.CatalogDigest,
	}
}

// stringSliceToInterface
func stringSliceToInterface(s []string) []interface{} {
	result := make([]interface{}, len(s))
	for i, v := range s {
		result[i] = v
	}
	return result
}
