package config

import "os"

// ExpandEnv walks a decoded YAML tree and substitutes $VAR and ${VAR}
// references in every string scalar. Unset variables expand to the
// empty string, matching os.ExpandEnv. Keys are never expanded.
func ExpandEnv(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = ExpandEnv(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ExpandEnv(item)
		}
		return out
	case string:
		return os.ExpandEnv(val)
	default:
		return v
	}
}
