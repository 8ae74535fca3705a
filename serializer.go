package babel

import (
	"errors"
	"fmt"
)

// ErrType is wrapped by every deserialization failure caused by a [Value] of the
// wrong shape or an out-of-range literal.
//
// Malformed server responses are an expected failure mode, so serializers never
// panic on bad input; they return an error matching ErrType with [errors.Is].
var ErrType = errors.New("babel: type error")

// Serializer converts between a native Go value of type T and a JSON [Value].
//
// Implementations must satisfy the round-trip law: for any v in the domain of T,
// Deserialize(Serialize(v)) is equal to v. Serializers hold no per-call state and
// are safe for concurrent use.
type Serializer[T any] interface {
	Serialize(v T) (Value, error)
	Deserialize(v Value) (T, error)
}

// SerializerFuncs adapts a pair of functions to a [Serializer].
//
// Struct and union serializers are usually written this way:
//
//	var fileSerializer = babel.SerializerFuncs[File]{
//	    To: func(f File) (babel.Value, error) {
//	        obj := babel.Object{}
//	        if err := babel.PutField[string](obj, "path", babel.StringSerializer{}, f.Path); err != nil {
//	            return nil, err
//	        }
//	        return obj, nil
//	    },
//	    From: func(v babel.Value) (File, error) {
//	        obj, err := babel.AsObject(v)
//	        if err != nil {
//	            return File{}, err
//	        }
//	        path, err := babel.Field[string](obj, "path", babel.StringSerializer{})
//	        return File{Path: path}, err
//	    },
//	}
type SerializerFuncs[T any] struct {
	To   func(T) (Value, error)
	From func(Value) (T, error)
}

// Serialize implements [Serializer].
func (s SerializerFuncs[T]) Serialize(v T) (Value, error) {
	return s.To(v)
}

// Deserialize implements [Serializer].
func (s SerializerFuncs[T]) Deserialize(v Value) (T, error) {
	return s.From(v)
}

// typeMismatch builds the error returned when v does not have the expected kind.
func typeMismatch(want Kind, v Value) error {
	return fmt.Errorf("%w: expected %s, got %s", ErrType, want, KindOf(v))
}
