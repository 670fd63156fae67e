package domain

import (
	"bytes"
	"encoding/json"
)

// Override holds either an explicit value or a marker to inherit from the parent tier.
type Override[T any] struct {
	value T
	set   bool
}

// Inherit returns an override that defers to the parent tier.
func Inherit[T any]() Override[T] {
	return Override[T]{}
}

// Set returns an override carrying v.
func Set[T any](v T) Override[T] {
	return Override[T]{value: v, set: true}
}

// OverrideFromPtr maps a nullable column to an override.
func OverrideFromPtr[T any](p *T) Override[T] {
	if p == nil {
		return Inherit[T]()
	}
	return Set(*p)
}

// Get returns the value and whether it is set.
func (o Override[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the override carries a value.
func (o Override[T]) IsSet() bool {
	return o.set
}

// OrElse returns the override value, or fallback when inheriting.
func (o Override[T]) OrElse(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// Ptr returns a pointer to the value, or nil when inheriting.
func (o Override[T]) Ptr() *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// MarshalJSON writes null for Inherit.
func (o Override[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON reads null as Inherit.
func (o *Override[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Inherit[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Set(v)
	return nil
}
