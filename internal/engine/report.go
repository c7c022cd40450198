package engine

import (
	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/models"
)

// Recommended actions per severity
const (
	ActionNormal   = "No intervention required."
	ActionAlert    = "Detailed evaluation and monitoring recommended."
	ActionCritical = "Immediate attention required; review integrity promptly."
)

// Analyze evaluates an assignment and builds the full report
func Analyze(cat *catalog.Catalog, assignment *models.Assignment) (*models.Report, error) {
	outcomes, err := Evaluate(cat, assignment)
	if err != nil {
		return nil, err
	}
	return BuildReport(cat, assignment, outcomes), nil
}

// BuildReport from already evaluated outcomes
func BuildReport(cat *catalog.Catalog, assignment *models.Assignment, outcomes []models.Outcome) *models.Report {
	summaries, dominant := Aggregate(outcomes, cat.Mechanisms())

	if assignment == nil {
		assignment = models.NewAssignment()
	}

	return &models.Report{
		Values:          assignment,
		Outcomes:        outcomes,
		Summaries:       summaries,
		Dominant:        dominant,
		Recommendations: Recommend(summaries),
		CatalogDigest:   cat.Digest(),
	}
}

// Recommend one action per summary
func Recommend(summaries []models.MechanismSummary) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(summaries))
	for _, s := range summaries {
		recs = append(recs, models.Recommendation{
			Mechanism: s.Mechanism,
			Severity:  s.Severity,
			Action:    ActionFor(s.Severity),
			Drivers:   s.Drivers,
		})
	}
	return recs
}

// ActionFor severity
func ActionFor(l models.Level) string {
	switch l {
	case models.LevelCritical:
		return ActionCritical
	case models.LevelAlert:
		return ActionAlert
	default:
		return ActionNormal
	}
}
