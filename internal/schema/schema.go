// Package schema reads records from unversioned exchange APIs that rename
// fields without notice. Every field is read through an ordered alias list;
// the alias tables live with their exchange packages as plain data.
package schema

import (
	"strconv"
	"strings"
)

// Record is one raw API record as decoded from JSON.
type Record = map[string]any

// FirstString returns the first non-empty value among the aliases, rendered
// as a string. JSON numbers are formatted without a trailing ".0" so that
// integer year fields compare cleanly.
func FirstString(rec Record, aliases []string) string {
	for _, key := range aliases {
		if s := Stringify(rec[key]); s != "" {
			return s
		}
	}
	return ""
}

// StringAtPath walks a dot-separated path of nested objects and returns the
// leaf as a string, or "" when any segment is missing.
func StringAtPath(rec Record, path string) string {
	parts := strings.Split(path, ".")
	cur := any(rec)
	for _, p := range parts[:len(parts)-1] {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[p]
	}
	m, ok := cur.(map[string]any)
	if !ok {
		return ""
	}
	return Stringify(m[parts[len(parts)-1]])
}

// FirstAtPaths returns the first non-empty value among dot-separated paths.
func FirstAtPaths(rec Record, paths []string) string {
	for _, p := range paths {
		if s := StringAtPath(rec, p); s != "" {
			return s
		}
	}
	return ""
}

// UnwrapRecords accepts a decoded JSON payload that is either a bare array of
// records or an object wrapping such an array under one of the given container
// keys, and returns the records. Anything else yields nil.
func UnwrapRecords(payload any, containerKeys []string) []Record {
	switch v := payload.(type) {
	case []any:
		return toRecords(v)
	case map[string]any:
		for _, key := range containerKeys {
			if inner, ok := v[key].([]any); ok {
				if recs := toRecords(inner); len(recs) > 0 {
					return recs
				}
			}
		}
	}
	return nil
}

// AllValues concatenates every value in the record into one searchable string.
// Used as a safety net when the period field itself has drifted.
func AllValues(rec Record) string {
	var b strings.Builder
	for _, v := range rec {
		if s := Stringify(v); s != "" {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(s)
		}
	}
	return b.String()
}

// Stringify renders a decoded JSON scalar as a trimmed string.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func toRecords(items []any) []Record {
	var recs []Record
	for _, it := range items {
		if rec, ok := it.(map[string]any); ok {
			recs = append(recs, rec)
		}
	}
	return recs
}
