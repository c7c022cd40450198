package engine

import (
	"github.com/pipetriage/pipetriage/internal/models"
)

// Aggregate folds outcomes into one summary per mechanism, in the given
// canonical order, and selects the dominant mechanism.
//
// Mechanisms without outcomes get a Normal summary with zero count.
// Outcomes for mechanisms outside the given order are ignored.
// dominant is nil when no mechanism has an activated parameter.
func Aggregate(outcomes []models.Outcome, mechanisms []models.Mechanism) ([]models.MechanismSummary, *models.Mechanism) {
	summaries := make([]models.MechanismSummary, len(mechanisms))
	pos := make(map[models.Mechanism]int, len(mechanisms))
	seen := make(map[models.Mechanism]map[string]bool, len(mechanisms))

	for i, m := range mechanisms {
		summaries[i] = models.MechanismSummary{
			Mechanism: m,
			Severity:  models.LevelNormal,
			Drivers:   []string{},
		}
		pos[m] = i
		seen[m] = make(map[string]bool)
	}

	for _, o := range outcomes {
		i, ok := pos[o.Mechanism]
		if !ok || o.Level == models.LevelNormal {
			continue
		}
		s := &summaries[i]
		if o.Level > s.Severity {
			s.Severity = o.Level
		}
		if seen[o.Mechanism][o.Parameter] {
			continue
		}
		seen[o.Mechanism][o.Parameter] = true
		s.ActivatedCount++
		s.Drivers = append(s.Drivers, o.Parameter)
	}

	return summaries, Dominant(summaries)
}

// Dominant picks the greatest activated count; ties go to the earliest
// summary, which is the earliest canonical mechanism.
func Dominant(summaries []models.MechanismSummary) *models.Mechanism {
	best := -1
	for i, s := range summaries {
		if s.ActivatedCount == 0 {
			continue
		}
		if best < 0 || s.ActivatedCount > summaries[best].ActivatedCount {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	m := summaries[best].Mechanism
	return &m
}
