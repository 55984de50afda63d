package tools

import (
	"reflect"
	"strings"
)

// maxSanitizeDepth bounds recursion into nested argument structures.
const maxSanitizeDepth = 50

// Keys whose values the planner sometimes emits as floats but the
// handlers treat as counts.
var integerKeys = map[string]bool{
	"num_of_adults":   true,
	"num_of_children": true,
	"num_of_rooms":    true,
	"extra_guest":     true,
	"age":             true,
	"num_of_people":   true,
}

// Sanitize normalizes a planner-produced argument map before a handler
// sees it: nil values are dropped, strings are trimmed, whole-number
// floats under count keys become ints, nesting deeper than
// maxSanitizeDepth is truncated, and circular references are cut.
// The input is never modified.
func Sanitize(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	out, _ := sanitizeMap(args, 0, map[uintptr]bool{}).(map[string]any)
	return out
}

func sanitizeMap(m map[string]any, depth int, seen map[uintptr]bool) any {
	if depth > maxSanitizeDepth {
		return "<max_depth_reached>"
	}

	ptr := reflect.ValueOf(m).Pointer()
	if seen[ptr] {
		return "<circular_reference>"
	}
	seen[ptr] = true
	defer delete(seen, ptr)

	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		out[k] = sanitizeValue(k, v, depth+1, seen)
	}
	return out
}

func sanitizeValue(key string, v any, depth int, seen map[uintptr]bool) any {
	if depth > maxSanitizeDepth {
		return "<max_depth_reached>"
	}

	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		if integerKeys[key] && val == float64(int(val)) {
			return int(val)
		}
		return val
	case map[string]any:
		return sanitizeMap(val, depth, seen)
	case []any:
		ptr := reflect.ValueOf(val).Pointer()
		if seen[ptr] {
			return "<circular_reference>"
		}
		seen[ptr] = true
		defer delete(seen, ptr)

		out := make([]any, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			out = append(out, sanitizeValue(key, item, depth+1, seen))
		}
		return out
	default:
		return v
	}
}
