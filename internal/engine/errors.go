package engine

import (
	"errors"
	"fmt"

	"github.com/pipetriage/pipetriage/internal/models"
)

var (
	// ErrUnknownParameter assignment key absent from the catalog
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrTypeMismatch value kind differs from the rule's declared kind
	ErrTypeMismatch = errors.New("type mismatch")
)

// EvaluationError identifies the reading that rejected an evaluation
type EvaluationError struct {
	Key      string
	Expected models.ValueKind // set for type mismatches
	Got      models.ValueKind
	Err      error
}

func (e *EvaluationError) Error() string {
	if errors.Is(e.Err, ErrTypeMismatch) {
		return fmt.Sprintf("parameter %q: %v: expected %s value, got %s", e.Key, e.Err, e.Expected, e.Got)
	}
	return fmt.Sprintf("parameter %q: %v", e.Key, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
