package db

import (
	"strconv"
)

// Row is a single result row keyed by column name.
// Values are normalized by the adapters: text columns arrive as string,
// integer columns as int64 (or string on text-protocol backends), NULL as nil.
type Row map[string]any

// String extracts a string value. NULL and missing columns yield "".
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// Int64 extracts an integer value.
// Handles int64, int, float64 (truncated) and numeric strings.
func (r Row) Int64(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		return parseInt(v)
	case []byte:
		return parseInt(string(v))
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// Int extracts an int value.
func (r Row) Int(key string) int {
	return int(r.Int64(key))
}

// NullInt64 extracts an integer and reports whether the column was non-NULL.
func (r Row) NullInt64(key string) (int64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	return r.Int64(key), true
}

// Float extracts a float64 value.
func (r Row) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

// Bool extracts a boolean. Integer flags (0/1) are the common case since
// neither backend has a native boolean column type.
func (r Row) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return r.Int64(key) != 0
}

// Has reports whether the column is present and non-NULL.
func (r Row) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return n
}
