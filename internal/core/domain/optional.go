package domain

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes a field that was left out of a payload from one that
// was explicitly set, possibly to null.
type Optional[T any] struct {
	Present bool
	Valid   bool
	Value   T
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{Present: true, Valid: true, Value: value}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Present: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Valid = false
		o.Value = zero
		return nil
	}

	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}

	o.Valid = true

	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}

	return json.Marshal(o.Value)
}

// IsNull reports an explicit null.
func (o Optional[T]) IsNull() bool {
	return o.Present && !o.Valid
}

// Ptr returns nil for null, a pointer to the value otherwise.
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}

	v := o.Value
	return &v
}

// Interface is used by the validator to look through the wrapper: absent and
// null fields yield nil so `omitempty` skips them.
func (o Optional[T]) Interface() any {
	if !o.Present || !o.Valid {
		return nil
	}

	return o.Value
}
