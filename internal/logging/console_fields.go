package logging

import "strings"

type infoField struct {
	label string
	value string
}

// infoHighlightKeys are printed first, in this order, at info level.
var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldDecisionType,
	FieldDecisionResult,
	FieldDecisionReason,
	"record_name",
	"state",
	"quality_score",
	"attempts",
	"failing_rules",
	"processed",
	"verified",
	"flagged",
	"errors",
	"remaining",
	"duplicate_candidates",
	"error",
	FieldErrorKind,
	FieldErrorHint,
	FieldImpact,
	"reason",
}

// maxInfoValueLen hides long values at info level; debug shows everything.
const maxInfoValueLen = 160

func selectInfoFields(attrs []kv) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, len(attrs))
	hidden := 0
	add := func(idx int) {
		used[idx] = true
		attr := attrs[idx]
		if skipInfoKey(attr.key) {
			return
		}
		if isDebugOnlyKey(attr.key) {
			hidden++
			return
		}
		value := formatValue(attr.value)
		if len(value) > maxInfoValueLen && attr.key != "error" {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: value})
	}
	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				add(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			add(idx)
		}
	}
	return result, hidden
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldRecordID, FieldPhase, FieldShard, FieldComponent:
		return true
	}
	return false
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case FieldCorrelationID, "fdc_id", "prompt", "response", "audit":
		return true
	}
	return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func displayLabel(key string) string {
	switch key {
	case FieldAlert:
		return "Alert"
	case FieldEventType:
		return "Event"
	case FieldDecisionType, FieldDecisionResult:
		return "Decision"
	case FieldDecisionReason:
		return "Why"
	case FieldErrorHint:
		return "Hint"
	case FieldErrorKind:
		return "Kind"
	case "record_name":
		return "Food"
	case "quality_score":
		return "Score"
	case "failing_rules":
		return "Failing"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return strings.Join(parts, " ")
}
