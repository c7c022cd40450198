package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Mechanism is a piping degradation mechanism code
type Mechanism string

const (
	MechanismGeneralCorrosion Mechanism = "M1"
	MechanismPitting          Mechanism = "M2"
	MechanismErosion          Mechanism = "M3"
	MechanismCUI              Mechanism = "M4"
	MechanismMIC              Mechanism = "M5"
	MechanismFreeze           Mechanism = "M12"
)

// CanonicalMechanisms is the closed mechanism set in canonical order.
// Dominant-mechanism ties resolve to the earliest entry.
var CanonicalMechanisms = []Mechanism{
	MechanismGeneralCorrosion,
	MechanismPitting,
	MechanismErosion,
	MechanismCUI,
	MechanismMIC,
	MechanismFreeze,
}

var mechanismNames = map[Mechanism]string{
	MechanismGeneralCorrosion: "General corrosion",
	MechanismPitting:          "Localized pitting",
	MechanismErosion:          "Erosion",
	MechanismCUI:              "Corrosion under insulation",
	MechanismMIC:              "Microbiologically influenced corrosion",
	MechanismFreeze:           "Freeze damage",
}

// Valid reports whether m belongs to the closed mechanism set
func (m Mechanism) Valid() bool {
	_, ok := mechanismNames[m]
	return ok
}

// Name human readable
func (m Mechanism) Name() string {
	if n, ok := mechanismNames[m]; ok {
		return n
	}
	return "Unknown mechanism"
}

// ValueKind of a parameter
type ValueKind string

const (
	KindNumeric ValueKind = "numeric"
	KindBoolean ValueKind = "boolean"
)

// Level is the activation level of a parameter or mechanism.
// Ordered: Normal < Alert < Critical.
type Level int

const (
	LevelNormal Level = iota
	LevelAlert
	LevelCritical
)

// String to lowercase
func (l Level) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelAlert:
		return "alert"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseLevel from string
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return LevelNormal, nil
	case "alert":
		return LevelAlert, nil
	case "critical":
		return LevelCritical, nil
	default:
		return LevelNormal, fmt.Errorf("invalid level: %q (use normal, alert, or critical)", s)
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Value is a numeric or boolean measurement
type Value struct {
	Kind ValueKind
	Num  float64
	Bool bool
}

// Number value
func Number(f float64) Value {
	return Value{Kind: KindNumeric, Num: f}
}

// Bool value
func Bool(b bool) Value {
	return Value{Kind: KindBoolean, Bool: b}
}

// Interface returns the Go value (float64 or bool)
func (v Value) Interface() any {
	if v.Kind == KindBoolean {
		return v.Bool
	}
	return v.Num
}

func (v Value) String() string {
	if v.Kind == KindBoolean {
		return strconv.FormatBool(v.Bool)
	}
	return strconv.FormatFloat(v.Num, 'g', -1, 64)
}
