package babel

import (
	"fmt"
)

// ArraySerializer maps an element [Serializer] over a slice, preserving order.
type ArraySerializer[T any] struct {
	Elem Serializer[T]
}

// ArrayOf returns an [ArraySerializer] for elem.
func ArrayOf[T any](elem Serializer[T]) ArraySerializer[T] {
	return ArraySerializer[T]{Elem: elem}
}

// Serialize encodes every element in order. A nil or empty slice encodes as [].
func (s ArraySerializer[T]) Serialize(v []T) (Value, error) {
	arr := make(Array, len(v))

	for i, e := range v {
		ev, err := s.Elem.Serialize(e)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}

		arr[i] = ev
	}

	return arr, nil
}

// Deserialize decodes an [Array]. Any other kind fails with [ErrType].
func (s ArraySerializer[T]) Deserialize(v Value) ([]T, error) {
	arr, ok := v.(Array)
	if !ok {
		return nil, typeMismatch(KindArray, v)
	}

	out := make([]T, len(arr))

	for i, e := range arr {
		ev, err := s.Elem.Deserialize(e)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}

		out[i] = ev
	}

	return out, nil
}

// NullableSerializer wraps an inner [Serializer] so that a nil pointer maps to [Null].
type NullableSerializer[T any] struct {
	Inner Serializer[T]
}

// NullableOf returns a [NullableSerializer] for inner.
func NullableOf[T any](inner Serializer[T]) NullableSerializer[T] {
	return NullableSerializer[T]{Inner: inner}
}

// Serialize encodes nil as [Null] and anything else through the inner serializer.
func (s NullableSerializer[T]) Serialize(v *T) (Value, error) {
	if v == nil {
		return Null{}, nil
	}

	return s.Inner.Serialize(*v)
}

// Deserialize decodes [Null] (or a missing value) to nil, regardless of the inner serializer.
func (s NullableSerializer[T]) Deserialize(v Value) (*T, error) {
	if IsNull(v) {
		return nil, nil //nolint:nilnil //nil is the decoded value
	}

	out, err := s.Inner.Deserialize(v)
	if err != nil {
		return nil, err
	}

	return &out, nil
}
