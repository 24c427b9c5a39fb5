package models

import (
	"strconv"
	"strings"
)

// Fields holds untyped request values as they arrive from a JSON body,
// a urlencoded form or a query string.
type Fields map[string]any

func (f Fields) String(key string) string {
	if f == nil {
		return ""
	}
	val, ok := f[key]
	if !ok {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

func (f Fields) Int(key string) int {
	if f == nil {
		return 0
	}
	val, ok := f[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}

// HasString reports whether key coerces to a non-empty string. Values that
// cannot be represented as text count as not supplied.
func (f Fields) HasString(key string) bool {
	return f.String(key) != ""
}

// HasInt reports whether key coerces to a non-zero number.
func (f Fields) HasInt(key string) bool {
	return f.Int(key) != 0
}
