package catalog

import (
	"fmt"
	"strconv"

	"github.com/pipetriage/pipetriage/internal/models"
)

// Operator of a threshold test
type Operator string

const (
	OpGreaterEq   Operator = "gte"
	OpLessEq      Operator = "lte"
	OpGreaterThan Operator = "gt"
	OpLessThan    Operator = "lt"
	OpIsTrue      Operator = "is_true"
)

// Threshold is a single activation test. Value is ignored for is_true.
type Threshold struct {
	Op    Operator `yaml:"op" json:"op"`
	Value float64  `yaml:"value,omitempty" json:"value,omitempty"`
}

// GreaterEq threshold
func GreaterEq(x float64) Threshold { return Threshold{Op: OpGreaterEq, Value: x} }

// LessEq threshold
func LessEq(x float64) Threshold { return Threshold{Op: OpLessEq, Value: x} }

// GreaterThan threshold
func GreaterThan(x float64) Threshold { return Threshold{Op: OpGreaterThan, Value: x} }

// LessThan threshold
func LessThan(x float64) Threshold { return Threshold{Op: OpLessThan, Value: x} }

// IsTrue threshold
func IsTrue() Threshold { return Threshold{Op: OpIsTrue} }

// Holds reports whether v satisfies the test. A value of the wrong kind never holds.
func (t Threshold) Holds(v models.Value) bool {
	switch t.Op {
	case OpIsTrue:
		return v.Kind == models.KindBoolean && v.Bool
	case OpGreaterEq:
		return v.Kind == models.KindNumeric && v.Num >= t.Value
	case OpLessEq:
		return v.Kind == models.KindNumeric && v.Num <= t.Value
	case OpGreaterThan:
		return v.Kind == models.KindNumeric && v.Num > t.Value
	case OpLessThan:
		return v.Kind == models.KindNumeric && v.Num < t.Value
	default:
		return false
	}
}

// Kind the operator applies to, empty for unknown operators
func (t Threshold) Kind() models.ValueKind {
	switch t.Op {
	case OpIsTrue:
		return models.KindBoolean
	case OpGreaterEq, OpLessEq, OpGreaterThan, OpLessThan:
		return models.KindNumeric
	default:
		return ""
	}
}

// direction is +1 when larger values are worse, -1 when smaller values are worse
func (t Threshold) direction() int {
	switch t.Op {
	case OpGreaterEq, OpGreaterThan:
		return 1
	case OpLessEq, OpLessThan:
		return -1
	default:
		return 0
	}
}

// String renders the test, e.g. ">= 0.3" or "= true"
func (t Threshold) String() string {
	v := strconv.FormatFloat(t.Value, 'g', -1, 64)
	switch t.Op {
	case OpIsTrue:
		return "= true"
	case OpGreaterEq:
		return ">= " + v
	case OpLessEq:
		return "<= " + v
	case OpGreaterThan:
		return "> " + v
	case OpLessThan:
		return "< " + v
	default:
		return fmt.Sprintf("%s %s", t.Op, v)
	}
}
