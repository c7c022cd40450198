// Package engine evaluates value assignments against a rule catalog and
// folds the per-parameter outcomes into per-mechanism summaries.
//
// Every function here is pure: no I/O, no state kept between calls.
package engine

import (
	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/models"
)

// Evaluate classifies every reading in insertion order.
// Any unknown key or kind mismatch rejects the whole assignment.
func Evaluate(cat *catalog.Catalog, assignment *models.Assignment) ([]models.Outcome, error) {
	readings := assignment.Readings()
	outcomes := make([]models.Outcome, 0, len(readings))

	for _, r := range readings {
		o, err := evaluateReading(cat, r)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}

	return outcomes, nil
}

// evaluateReading single parameter
func evaluateReading(cat *catalog.Catalog, r models.Reading) (models.Outcome, error) {
	rule, ok := cat.Lookup(r.Key)
	if !ok {
		return models.Outcome{}, &EvaluationError{Key: r.Key, Err: ErrUnknownParameter}
	}

	if r.Value.Kind != rule.Kind {
		return models.Outcome{}, &EvaluationError{
			Key:      r.Key,
			Expected: rule.Kind,
			Got:      r.Value.Kind,
			Err:      ErrTypeMismatch,
		}
	}

	return models.Outcome{
		Parameter: r.Key,
		Mechanism: rule.Mechanism,
		Level:     Classify(rule, r.Value),
	}, nil
}

// Classify a value against one rule, assuming the kind already matches.
// The critical test is checked on its own, not only after an alert.
func Classify(rule catalog.ParameterRule, v models.Value) models.Level {
	level := models.LevelNormal
	if rule.Alert.Holds(v) {
		level = models.LevelAlert
	}
	if rule.Critical != nil && rule.Critical.Holds(v) {
		level = models.LevelCritical
	}
	return level
}
