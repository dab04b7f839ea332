package types

import (
	"strconv"
)

// RawKitty is an unnormalized API payload. The CryptoKitties API is not
// consistent across versions: ids arrive as numbers or strings, field names
// switch between snake_case and camelCase, and parents appear either as bare
// ids or as embedded objects. All access goes through the typed accessors
// below so call sites never have to care.
type RawKitty map[string]any

// UnwrapKitty strips the {"kitty": {...}} envelope some API responses use.
func UnwrapKitty(raw RawKitty) RawKitty {
	if inner, ok := raw["kitty"].(map[string]any); ok {
		return RawKitty(inner)
	}
	return raw
}

// Int64 returns the first of the given keys that holds an integer-like
// value. JSON numbers, numeric strings and float-typed ints all coerce.
func (r RawKitty) Int64(keys ...string) (int64, bool) {
	for _, key := range keys {
		if n, ok := coerceInt64(r[key]); ok {
			return n, true
		}
	}
	return 0, false
}

// String returns the first of the given keys holding a non-empty string.
func (r RawKitty) String(keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := r[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// Object returns the first of the given keys holding a nested object.
func (r RawKitty) Object(keys ...string) (RawKitty, bool) {
	for _, key := range keys {
		if m, ok := r[key].(map[string]any); ok {
			return RawKitty(m), true
		}
	}
	return nil, false
}

// List returns the array under key, or nil.
func (r RawKitty) List(key string) []any {
	if l, ok := r[key].([]any); ok {
		return l
	}
	return nil
}

// ParentID resolves a parent reference that is either a bare id under
// idKeys or an embedded object under objKeys whose own "id" is used.
func (r RawKitty) ParentID(idKeys []string, objKeys []string) (int64, bool) {
	if n, ok := r.Int64(idKeys...); ok && n > 0 {
		return n, true
	}
	if obj, ok := r.Object(objKeys...); ok {
		if n, ok := obj.Int64("id"); ok && n > 0 {
			return n, true
		}
	}
	return 0, false
}

func coerceInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		if n == "" {
			return 0, false
		}
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}
