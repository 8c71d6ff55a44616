package store

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Fielder is implemented by items that expose typed field values by name.
type Fielder interface {
	Field(name string) (any, bool)
}

// FieldValue resolves a field of item. Items implementing Fielder answer
// directly; anything else is marshalled to JSON and the field is read as a
// gjson path, so nested names such as "office.city" work.
func FieldValue(item any, field string) (any, bool) {
	if f, ok := item.(Fielder); ok {
		return f.Field(field)
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, false
	}
	return jsonValue(raw, field)
}

func jsonValue(raw []byte, path string) (any, bool) {
	r := gjson.GetBytes(raw, path)
	if !r.Exists() {
		return nil, false
	}
	switch r.Type {
	case gjson.String:
		if t, err := time.Parse(time.RFC3339Nano, r.Str); err == nil {
			return t, true
		}
		return r.Str, true
	case gjson.Number:
		return r.Num, true
	case gjson.True, gjson.False:
		return r.Bool(), true
	case gjson.Null:
		return nil, true
	default:
		return r.Value(), true
	}
}

// row pairs an item with its lazily marshalled JSON so one derive pass
// encodes each item at most once.
type row[T Record] struct {
	item      T
	raw       []byte
	marshaled bool
}

func (s *Store[T]) value(r *row[T], field string) (any, bool) {
	if s.fieldFn != nil {
		return s.fieldFn(r.item, field)
	}
	if f, ok := any(r.item).(Fielder); ok {
		return f.Field(field)
	}
	if !r.marshaled {
		r.raw, _ = json.Marshal(r.item)
		r.marshaled = true
	}
	return jsonValue(r.raw, field)
}

// MatchFields returns a SearchFunc that matches when any of the named fields
// contains the query, ignoring case.
func MatchFields[T any](fields ...string) SearchFunc[T] {
	return func(item T, query string) bool {
		q := strings.ToLower(query)
		for _, f := range fields {
			v, ok := FieldValue(item, f)
			if !ok || v == nil {
				continue
			}
			if strings.Contains(strings.ToLower(stringify(v)), q) {
				return true
			}
		}
		return false
	}
}
