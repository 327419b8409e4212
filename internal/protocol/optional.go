package protocol

import "encoding/json"

// Optional represents a JSON field with three distinct states: absent
// (the key was not present at all), null (present with a JSON null value),
// and present (a concrete value). Keeping the distinction explicit avoids
// collapsing it into a single "zero value" the way a plain pointer would.
//
// The zero Optional[T] is Absent. Use Some to build a present value and
// Null() to build an explicit null.
type Optional[T any] struct {
	state optionalState
	value T
}

type optionalState int

const (
	optionalAbsent optionalState = iota
	optionalNull
	optionalPresent
)

// Some wraps v as a present value.
func Some[T any](v T) Optional[T] { return Optional[T]{state: optionalPresent, value: v} }

// Null returns an explicit JSON-null optional.
func Null[T any]() Optional[T] { return Optional[T]{state: optionalNull} }

// IsAbsent reports whether the field was missing from the payload entirely.
func (o Optional[T]) IsAbsent() bool { return o.state == optionalAbsent }

// IsNull reports whether the field was present with a JSON null value.
func (o Optional[T]) IsNull() bool { return o.state == optionalNull }

// IsPresent reports whether the field carries a concrete value.
func (o Optional[T]) IsPresent() bool { return o.state == optionalPresent }

// Get returns the wrapped value and whether it was present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.state == optionalPresent }

// MarshalJSON encodes a present value as itself and an absent-or-null
// optional as JSON null (callers that must omit the key entirely for an
// absent optional should check IsAbsent before encoding the enclosing
// struct's field, e.g. via a custom MarshalJSON that conditionally drops
// the key — see Message/ServerCapabilities for that pattern applied at the
// struct level with `omitempty` plus a pointer indirection).
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.state != optionalPresent {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes a present value from any non-null JSON value. It
// never observes "absent" (the field being admitted at all is what callers
// test for by checking whether this method ran — struct fields that must
// distinguish absent-vs-null use *Optional[T] and nil-check the pointer).
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Null[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
