package differ

import (
	"strings"

	"github.com/wI2L/jsondiff"
)

// Translate patches to english
func Translate(patches jsondiff.Patch) []string {
	if len(patches) == 0 {
		return nil
	}

	var translations []string
	seen := make(map[string]bool)

	for _, op := range patches {
		translation := translateOperation(op)
		if translation != "" && !seen[translation] {
			seen[translation] = true
			translations = append(translations, translation)
		}
	}

	return translations
}

func translateOperation(op jsondiff.Operation) string {
	parts := strings.Split(strings.TrimPrefix(op.Path, "/"), "/")
	section := parts[0]

	switch section {
	case "dominant":
		return "⚠️  CRITICAL: Dominant mechanism changed."
	case "values":
		return translateValue(op.Type, parts)
	case "summaries":
		return translateSummary(op.Type, parts)
	case "outcomes":
		return "Parameter outcomes changed."
	case "catalogDigest":
		return "Rule catalog changed."
	case "recommendations":
		return "" // derived from summaries
	case "":
		return "Report replaced."
	default:
		return "Report modified."
	}
}

// translateValue /values/<key>
func translateValue(opType string, parts []string) string {
	if len(parts) < 2 {
		return "Reported values changed."
	}
	key := parts[1]
	switch opType {
	case jsondiff.OperationAdd:
		return "Value '" + key + "' added."
	case jsondiff.OperationRemove:
		return "Value '" + key + "' removed."
	default:
		return "Value '" + key + "' changed."
	}
}

// translateSummary /summaries/<i>/<field>[/...]
func translateSummary(opType string, parts []string) string {
	if len(parts) < 3 {
		return "Mechanism summaries changed."
	}
	switch parts[2] {
	case "severity":
		return "Mechanism severity changed."
	case "drivers":
		if opType == jsondiff.OperationRemove {
			return "Driver removed from a mechanism."
		}
		if opType == jsondiff.OperationAdd {
			return "New driver added to a mechanism."
		}
		return "Mechanism drivers changed."
	case "activatedCount":
		return "" // follows drivers
	default:
		return "Mechanism summaries changed."
	}
}
