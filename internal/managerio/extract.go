package managerio

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Record is a single raw payload object from the Manager.io API. Field naming
// is inconsistent across endpoints (PascalCase, camelCase, nested value
// objects), so all access goes through the extract helpers below.
type Record map[string]interface{}

// Values treated as absent even when the field is present.
var emptySentinels = map[string]struct{}{
	"":          {},
	"null":      {},
	"none":      {},
	"undefined": {},
}

// ExtractString scans candidate field names in priority order and returns the
// first present, non-null, non-sentinel value, trimmed. Returns "" when no
// candidate matches.
func ExtractString(rec Record, candidates ...string) string {
	for _, field := range candidates {
		raw, ok := rec[field]
		if !ok || raw == nil {
			continue
		}
		value := strings.TrimSpace(stringify(raw))
		if _, empty := emptySentinels[strings.ToLower(value)]; empty {
			continue
		}
		return value
	}
	return ""
}

// ExtractDecimal scans candidate field names and returns the first value that
// coerces to a decimal. Coercion failure is never fatal: the caller-supplied
// default is returned instead.
func ExtractDecimal(rec Record, candidates []string, def decimal.Decimal) decimal.Decimal {
	for _, field := range candidates {
		raw, ok := rec[field]
		if !ok || raw == nil {
			continue
		}
		value := strings.TrimSpace(stringify(raw))
		if _, empty := emptySentinels[strings.ToLower(value)]; empty {
			continue
		}
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return def
}

// ExtractAmount extracts a monetary value, preferring the nested
// {field: {value: n}} shape over the flat candidate list.
func ExtractAmount(rec Record, nestedField string, candidates []string) decimal.Decimal {
	if nested, ok := rec[nestedField].(map[string]interface{}); ok {
		if raw, ok := nested["value"]; ok && raw != nil {
			if d, err := decimal.NewFromString(strings.TrimSpace(stringify(raw))); err == nil {
				return d
			}
		}
	}
	return ExtractDecimal(rec, candidates, decimal.Zero)
}

func stringify(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return decimal.NewFromFloat(v).String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
