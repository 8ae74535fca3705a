package babel

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Void is the native type of routes that take or return nothing. It encodes as null.
type Void struct{}

type (
	// StringSerializer converts string <-> [String].
	StringSerializer struct{}
	// BoolSerializer converts bool <-> [Bool].
	BoolSerializer struct{}
	// Int32Serializer converts int32 <-> [Number].
	Int32Serializer struct{}
	// Int64Serializer converts int64 <-> [Number].
	Int64Serializer struct{}
	// Uint32Serializer converts uint32 <-> [Number].
	Uint32Serializer struct{}
	// Uint64Serializer converts uint64 <-> [Number].
	Uint64Serializer struct{}
	// Float64Serializer converts float64 <-> [Number]. NaN and infinities serialize
	// but are rejected by [Dump].
	Float64Serializer struct{}
	// BytesSerializer converts []byte <-> [String] holding standard, padded base64.
	BytesSerializer struct{}
	// VoidSerializer converts [Void] <-> [Null]. Any other value fails with [ErrType].
	VoidSerializer struct{}
	// ValueSerializer passes a [Value] through unchanged, for untyped fields
	// and routes. A nil Value serializes as [Null].
	ValueSerializer struct{}
)

func (StringSerializer) Serialize(v string) (Value, error) { return String(v), nil }

func (StringSerializer) Deserialize(v Value) (string, error) {
	s, ok := v.(String)
	if !ok {
		return "", typeMismatch(KindString, v)
	}

	return string(s), nil
}

func (BoolSerializer) Serialize(v bool) (Value, error) { return Bool(v), nil }

func (BoolSerializer) Deserialize(v Value) (bool, error) {
	b, ok := v.(Bool)
	if !ok {
		return false, typeMismatch(KindBool, v)
	}

	return bool(b), nil
}

func (Int32Serializer) Serialize(v int32) (Value, error) { return Int64(int64(v)), nil }

func (Int32Serializer) Deserialize(v Value) (int32, error) {
	i, err := decodeInt(v, 32)
	return int32(i), err
}

func (Int64Serializer) Serialize(v int64) (Value, error) { return Int64(v), nil }

func (Int64Serializer) Deserialize(v Value) (int64, error) {
	return decodeInt(v, 64)
}

func (Uint32Serializer) Serialize(v uint32) (Value, error) { return Uint64(uint64(v)), nil }

func (Uint32Serializer) Deserialize(v Value) (uint32, error) {
	u, err := decodeUint(v, 32)
	return uint32(u), err
}

func (Uint64Serializer) Serialize(v uint64) (Value, error) { return Uint64(v), nil }

func (Uint64Serializer) Deserialize(v Value) (uint64, error) {
	return decodeUint(v, 64)
}

func (Float64Serializer) Serialize(v float64) (Value, error) { return Float64(v), nil }

func (Float64Serializer) Deserialize(v Value) (float64, error) {
	n, ok := v.(Number)
	if !ok {
		return 0, typeMismatch(KindNumber, v)
	}

	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrType, err)
	}

	return f, nil
}

func (BytesSerializer) Serialize(v []byte) (Value, error) {
	return String(base64.StdEncoding.EncodeToString(v)), nil
}

func (BytesSerializer) Deserialize(v Value) ([]byte, error) {
	s, ok := v.(String)
	if !ok {
		return nil, typeMismatch(KindString, v)
	}

	b, err := base64.StdEncoding.DecodeString(string(s))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %w", ErrType, err)
	}

	return b, nil
}

func (VoidSerializer) Serialize(Void) (Value, error) { return Null{}, nil }

func (VoidSerializer) Deserialize(v Value) (Void, error) {
	if !IsNull(v) {
		return Void{}, typeMismatch(KindNull, v)
	}

	return Void{}, nil
}

func (ValueSerializer) Serialize(v Value) (Value, error) {
	if v == nil {
		return Null{}, nil
	}

	return v, nil
}

func (ValueSerializer) Deserialize(v Value) (Value, error) {
	if v == nil {
		return Null{}, nil
	}

	return v, nil
}

// maxIntegralExponent bounds the exponent of integers written in exponent form,
// so a literal like "1e999999999" cannot force a huge exact expansion.
const maxIntegralExponent = 400

// integralNumber reads n exactly when it is an integer written in fraction or
// exponent form, such as "1e3" or "4.0".
func integralNumber(n Number) (*big.Int, bool) {
	s := string(n)

	// big.Rat also accepts fractions, base prefixes and underscores; JSON has none.
	if strings.ContainsAny(s, "/xXoObB_pP") {
		return nil, false
	}

	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(s[i+1:])
		if err != nil || exp < -maxIntegralExponent || exp > maxIntegralExponent {
			return nil, false
		}
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok || !r.IsInt() {
		return nil, false
	}

	return r.Num(), true
}

// decodeInt reads a signed integer of the given bit size. Servers occasionally
// write integral values in exponent form ("1e3"); those are accepted when they
// denote an integer exactly.
func decodeInt(v Value, bits int) (int64, error) {
	n, ok := v.(Number)
	if !ok {
		return 0, typeMismatch(KindNumber, v)
	}

	i, err := strconv.ParseInt(string(n), 10, bits)
	if err == nil {
		return i, nil
	}

	b, ok := integralNumber(n)
	if !ok || !b.IsInt64() {
		return 0, fmt.Errorf("%w: %q is not a %d-bit integer", ErrType, string(n), bits)
	}

	i = b.Int64()

	if bits < 64 && (i < -(1<<(bits-1)) || i >= 1<<(bits-1)) {
		return 0, fmt.Errorf("%w: %q is not a %d-bit integer", ErrType, string(n), bits)
	}

	return i, nil
}

// decodeUint is the unsigned counterpart of [decodeInt].
func decodeUint(v Value, bits int) (uint64, error) {
	n, ok := v.(Number)
	if !ok {
		return 0, typeMismatch(KindNumber, v)
	}

	u, err := strconv.ParseUint(string(n), 10, bits)
	if err == nil {
		return u, nil
	}

	b, ok := integralNumber(n)
	if !ok || !b.IsUint64() {
		return 0, fmt.Errorf("%w: %q is not an unsigned %d-bit integer", ErrType, string(n), bits)
	}

	u = b.Uint64()

	if bits < 64 && u >= 1<<bits {
		return 0, fmt.Errorf("%w: %q is not an unsigned %d-bit integer", ErrType, string(n), bits)
	}

	return u, nil
}
