package config

// Maybe represents an optional scalar config field, distinguishing
// "not set, use the built-in default" from "explicitly set to the
// zero value". Grounded on the teacher's dsfetch.Maybe[T] idiom.
type Maybe[T any] struct {
	value T
	set   bool
}

// MaybeValue wraps an explicitly-set value.
func MaybeValue[T any](v T) Maybe[T] { return Maybe[T]{value: v, set: true} }

// Value returns the wrapped value and whether it was set.
func (m Maybe[T]) Value() (T, bool) { return m.value, m.set }

// Or returns the wrapped value, or fallback if unset.
func (m Maybe[T]) Or(fallback T) T {
	if m.set {
		return m.value
	}
	return fallback
}

// Null reports whether the Maybe carries no explicit value.
func (m Maybe[T]) Null() bool { return !m.set }

// UnmarshalJSON lets Maybe[T] round-trip through encoding/json and
// goccy/go-yaml (which both honor json.Unmarshaler): absent key stays
// unset, `null` stays unset, any other value is wrapped as set.
func (m *Maybe[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Maybe[T]{}
		return nil
	}
	var v T
	if err := jsonUnmarshal(data, &v); err != nil {
		return err
	}
	*m = Maybe[T]{value: v, set: true}
	return nil
}

// MarshalJSON emits null for an unset Maybe, the value otherwise.
func (m Maybe[T]) MarshalJSON() ([]byte, error) {
	if !m.set {
		return []byte("null"), nil
	}
	return jsonMarshal(m.value)
}
