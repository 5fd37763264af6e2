package config

import (
	"fmt"
	"os"
	"strings"
)

// Expand substitutes $VAR and ${VAR} references in s from the current
// process environment. ${VAR:-default} falls back to the default when VAR is
// unset or empty, following shell semantics; a set-but-empty variable without
// a default substitutes the empty string. Only a reference to an unset
// variable without a default yields a ConfigError wrapping
// ErrUndefinedVariable.
//
// Expansion is performed exactly once, at config-load time.
func Expand(s string) (string, error) {
	var missing []string
	expanded := os.Expand(s, func(ref string) string {
		name, def, hasDefault := strings.Cut(ref, ":-")
		if val, ok := os.LookupEnv(name); ok {
			if val == "" && hasDefault {
				return def
			}
			return val
		}
		if hasDefault {
			return def
		}
		missing = append(missing, name)
		return ""
	})
	if len(missing) > 0 {
		return "", &ConfigError{
			Msg: fmt.Sprintf("cannot expand %q: $%s", s, strings.Join(missing, ", $")),
			Err: ErrUndefinedVariable,
		}
	}
	return expanded, nil
}

// expandMap expands every value of m in place-copy and returns the result.
func expandMap(m map[string]string) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		expanded, err := Expand(v)
		if err != nil {
			return nil, err
		}
		out[k] = expanded
	}
	return out, nil
}

// expandSlice expands every element of s and returns the result.
func expandSlice(s []string) ([]string, error) {
	if s == nil {
		return nil, nil
	}
	out := make([]string, len(s))
	for i, v := range s {
		expanded, err := Expand(v)
		if err != nil {
			return nil, err
		}
		out[i] = expanded
	}
	return out, nil
}
