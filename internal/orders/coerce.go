package orders

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// truthy mirrors the loose presence check the storefront uses for optional fields:
// nil, empty strings, zero numbers and false are all treated as absent.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	}
	return true
}

// first returns the first truthy value among keys
func first(m map[string]any, keys ...string) any {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && truthy(v) {
			return v
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	return toString(first(m, keys...))
}

func nested(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// toNumber coerces v to a finite float, 0 when it is not numeric
func toNumber(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	DisplayDateLayout,
	"Jan 2, 2006, 3:04:05 PM",
	"January 2, 2006",
	"01/02/2006",
}

// parseDate understands the timestamp shapes seen in order records.
// Numbers are unix milliseconds.
func parseDate(v any, loc *time.Location) (time.Time, bool) {
	switch x := v.(type) {
	case float64, int, int64, json.Number:
		ms := toNumber(x)
		if ms <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).In(loc), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms).In(loc), true
		}
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t.In(loc), true
			}
		}
	}
	return time.Time{}, false
}
