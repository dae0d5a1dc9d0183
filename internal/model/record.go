package model

import (
	"encoding/json"
	"time"
)

// Server-owned record fields
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldCreatedBy = "created_by"
	FieldUpdatedAt = "updated_at"
)

// Record is a schemaless document. Values are limited to what encoding/json
// produces for an untyped decode: string, float64, bool, nil,
// map[string]interface{} and []interface{}.
type Record map[string]interface{}

// ID returns the record identifier, or "" if absent.
func (r Record) ID() string {
	return r.String(FieldID)
}

// String returns field k if it holds a string.
func (r Record) String(k string) string {
	if s, ok := r[k].(string); ok {
		return s
	}
	return ""
}

// Bool returns field k if it holds a bool, otherwise def.
func (r Record) Bool(k string, def bool) bool {
	if b, ok := r[k].(bool); ok {
		return b
	}
	return def
}

// Number returns field k as float64 when it holds any JSON number.
func (r Record) Number(k string) (float64, bool) {
	switch v := r[k].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Object returns field k if it holds a nested object.
func (r Record) Object(k string) Record {
	switch v := r[k].(type) {
	case map[string]interface{}:
		return Record(v)
	case Record:
		return v
	default:
		return nil
	}
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge copies every field of patch into r (shallow).
func (r Record) Merge(patch Record) {
	for k, v := range patch {
		r[k] = v
	}
}

// Without returns a copy of r lacking the given fields.
func (r Record) Without(fields ...string) Record {
	out := r.Clone()
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// Timestamp formats t the way records store times.
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseTimestamp accepts RFC 3339 and the offset-less ISO form written by
// the previous system.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999", s, time.Local)
}

// IndexOf returns the position of the record with id, or -1.
func IndexOf(records []Record, id string) int {
	for i, r := range records {
		if r.ID() == id {
			return i
		}
	}
	return -1
}
