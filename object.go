package babel

import (
	"fmt"
)

// TagField is the key that discriminates the variants of a tagged union.
const TagField = ".tag"

// AsObject returns v as an [Object] or fails with [ErrType].
func AsObject(v Value) (Object, error) {
	obj, ok := v.(Object)
	if !ok {
		return nil, typeMismatch(KindObject, v)
	}

	return obj, nil
}

// Field decodes obj[key] with s. A missing key is decoded as [Null], so optional
// fields declared with [NullableOf] come back nil while required fields fail.
//
// Errors are prefixed with the key for context and still match [ErrType].
func Field[T any](obj Object, key string, s Serializer[T]) (T, error) {
	v, ok := obj[key]
	if !ok {
		v = Null{}
	}

	out, err := s.Deserialize(v)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("field %q: %w", key, err)
	}

	return out, nil
}

// PutField serializes v with s and stores it under key. A value that serializes
// to [Null] is left out of obj entirely.
func PutField[T any](obj Object, key string, s Serializer[T], v T) error {
	ev, err := s.Serialize(v)
	if err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}

	if IsNull(ev) {
		return nil
	}

	obj[key] = ev

	return nil
}

// ReadTag returns the ".tag" string of a union encoded as an [Object].
func ReadTag(v Value) (Object, string, error) {
	obj, err := AsObject(v)
	if err != nil {
		return nil, "", err
	}

	tag, err := Field[string](obj, TagField, StringSerializer{})
	if err != nil {
		return nil, "", err
	}

	return obj, tag, nil
}

// Tagged starts the encoding of a union variant: an [Object] holding only its tag.
func Tagged(tag string) Object {
	return Object{TagField: String(tag)}
}

// UnknownTag is returned by union deserializers that do not recognize tag.
//
// Unions that want forward compatibility declare an explicit catch-all variant
// and return it instead of this error; that policy belongs to the union type.
func UnknownTag(tag string) error {
	return fmt.Errorf("%w: unknown union tag %q", ErrType, tag)
}
