package differ

import "github.com/pipetriage/pipetriage/internal/models"

// SeverityLevel ranks drift items; it orders like models.Level but names the
// change, not the reading.
type SeverityLevel int

const (
	SeveritySafe SeverityLevel = iota
	SeverityModerate
	SeverityCritical
)

// SeverityString: info, moderate, critical
func SeverityString(s SeverityLevel) string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityModerate:
		return "moderate"
	case SeveritySafe:
		return "info"
	}
	return "unknown"
}

func (s SeverityLevel) MarshalText() ([]byte, error) {
	return []byte(SeverityString(s)), nil
}

// escalationSeverity grades a mechanism moving up to level. Reaching
// critical is critical drift; any other rise is moderate.
func escalationSeverity(to models.Level) SeverityLevel {
	if to == models.LevelCritical {
		return SeverityCritical
	}
	return SeverityModerate
}
