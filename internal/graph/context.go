package graph

import (
	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/models"
)

// EvaluationContext is owned by the caller and remembers its last
// evaluation; the core keeps no history of its own.
type EvaluationContext struct {
	Assignment *models.Assignment
	Outcomes   []models.Outcome
}

// Record the latest evaluation
func (ec *EvaluationContext) Record(a *models.Assignment, outcomes []models.Outcome) {
	ec.Assignment = a
	ec.Outcomes = outcomes
}

// Empty reports whether nothing was recorded yet
func (ec *EvaluationContext) Empty() bool {
	return ec == nil || ec.Assignment == nil
}

// FromContext builds the evidence map for the last recorded evaluation
func FromContext(cat *catalog.Catalog, ec *EvaluationContext) (models.Graph, error) {
	if ec.Empty() {
		return models.Graph{}, ErrNoEvaluation
	}
	return Build(cat, ec.Outcomes), nil
}
