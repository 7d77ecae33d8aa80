package models

import (
	"bytes"
	"encoding/json"
)

// OptionalString is a tri-state JSON field for partial updates: absent
// (Set=false), explicit null (Set=true, Value=nil) or a string value.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only called when the key is present in the document
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// MarshalJSON writes null for unset or cleared values
func (o OptionalString) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// NewOptional returns a set OptionalString holding s
func NewOptional(s string) OptionalString {
	return OptionalString{Set: true, Value: &s}
}

// Null returns a set OptionalString that clears the field
func Null() OptionalString {
	return OptionalString{Set: true}
}

// Map rewrites a set, non-null value with fn. Values mapped to "" become
// null so an empty optional field is stored as absent.
func (o OptionalString) Map(fn func(string) string) OptionalString {
	if !o.Set || o.Value == nil {
		return o
	}
	v := fn(*o.Value)
	if v == "" {
		return Null()
	}
	return NewOptional(v)
}
