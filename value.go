package babel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

var (
	// ErrParse is returned by [Parse] when the input is not a single well-formed JSON document.
	ErrParse = errors.New("babel: parse error")
	// ErrEncoding is returned by [Dump] when a [Value] cannot be written as valid JSON
	// (for example a [Number] holding NaN or an infinity).
	ErrEncoding = errors.New("babel: encoding error")
)

// Kind identifies the variant held by a [Value].
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}

	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a parsed JSON value.
//
// Value is a closed sum type: the only implementations are [Array], [Object],
// [String], [Number], [Bool] and [Null]. A nil Value is treated as [Null] everywhere
// in this package.
//
// Use a type switch to inspect a Value:
//
//	switch v := val.(type) {
//	case babel.Object:
//		// v["name"] ...
//	case babel.Number:
//		n, err := v.Int64()
//	}
type Value interface {
	kind() Kind
}

type (
	// Array is an ordered sequence of values.
	Array []Value
	// Object maps unique keys to values. Key order carries no meaning; [Dump] writes keys sorted.
	Object map[string]Value
	// String is a JSON string.
	String string
	// Number holds the literal text of a JSON number, so integers up to 64 bits
	// and doubles survive a parse/dump cycle untouched.
	Number string
	// Bool is a JSON boolean.
	Bool bool
	// Null is the JSON null literal.
	Null struct{}
)

func (Array) kind() Kind  { return KindArray }
func (Object) kind() Kind { return KindObject }
func (String) kind() Kind { return KindString }
func (Number) kind() Kind { return KindNumber }
func (Bool) kind() Kind   { return KindBool }
func (Null) kind() Kind   { return KindNull }

// KindOf returns the [Kind] of v. A nil v reports [KindNull].
func KindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}

	return v.kind()
}

// IsNull reports whether v is [Null] or nil.
func IsNull(v Value) bool {
	return KindOf(v) == KindNull
}

// Int64 returns a [Number] holding v.
func Int64(v int64) Number {
	return Number(strconv.FormatInt(v, 10))
}

// Uint64 returns a [Number] holding v.
func Uint64(v uint64) Number {
	return Number(strconv.FormatUint(v, 10))
}

// Float64 returns a [Number] holding the shortest representation of v that
// parses back to the same float64.
//
// NaN and infinities produce a Number that [Dump] refuses to encode.
func Float64(v float64) Number {
	return Number(strconv.FormatFloat(v, 'g', -1, 64))
}

// Int64 parses the number as a signed 64-bit integer.
func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Uint64 parses the number as an unsigned 64-bit integer.
func (n Number) Uint64() (uint64, error) {
	return strconv.ParseUint(string(n), 10, 64)
}

// Float64 parses the number as an IEEE-754 double.
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// Parse decodes exactly one JSON document from data.
//
// Numbers are kept as their literal text ([Number]); no precision is lost.
// Any error, including trailing data after the document, wraps [ErrParse].
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrParse)
	}

	return fromAny(raw), nil
}

// fromAny converts the output of a [json.Decoder] with UseNumber set into a Value.
func fromAny(raw any) Value {
	switch v := raw.(type) {
	case map[string]any:
		obj := make(Object, len(v))
		for k, e := range v {
			obj[k] = fromAny(e)
		}

		return obj
	case []any:
		arr := make(Array, len(v))
		for i, e := range v {
			arr[i] = fromAny(e)
		}

		return arr
	case json.Number:
		return Number(v)
	case string:
		return String(v)
	case bool:
		return Bool(v)
	}

	return Null{}
}

// toAny converts v into a tree [encoding/json] knows how to write.
// Numbers become [json.Number], which the encoder validates against the JSON grammar.
func toAny(v Value) (any, error) {
	switch t := v.(type) {
	case Object:
		m := make(map[string]any, len(t))
		for k, e := range t {
			a, err := toAny(e)
			if err != nil {
				return nil, err
			}

			m[k] = a
		}

		return m, nil
	case Array:
		s := make([]any, len(t))
		for i, e := range t {
			a, err := toAny(e)
			if err != nil {
				return nil, err
			}

			s[i] = a
		}

		return s, nil
	case Number:
		// encoding/json writes an empty json.Number as 0
		if t == "" {
			return nil, fmt.Errorf("%w: empty number literal", ErrEncoding)
		}

		return json.Number(t), nil
	case String:
		return string(t), nil
	case Bool:
		return bool(t), nil
	}

	return nil, nil
}

// Dump encodes v as compact JSON text. Object keys are written in sorted order.
//
// A nil or [Null] value encodes as the literal null. A value that cannot be
// represented as valid JSON (such as a [Number] holding NaN) fails with an error
// wrapping [ErrEncoding]; Dump never produces malformed output.
func Dump(v Value) ([]byte, error) {
	tree, err := toAny(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	// Encoder always terminates with a newline.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DumpASCII is [Dump] followed by escaping every non-ASCII code point, and DEL,
// as \uXXXX. Code points above U+FFFF are written as a UTF-16 surrogate pair.
//
// The result is safe to place in an HTTP header value.
func DumpASCII(v Value) ([]byte, error) {
	buf, err := Dump(v)
	if err != nil {
		return nil, err
	}

	return escapeASCII(buf), nil
}

// escapeASCII rewrites non-ASCII runes and DEL in a JSON document as \u escapes.
// encoding/json already escapes the other control characters. Outside of strings
// valid JSON is pure printable ASCII, so the whole document can be scanned.
func escapeASCII(buf []byte) []byte {
	ascii := true

	for _, b := range buf {
		if b >= asciiDEL {
			ascii = false
			break
		}
	}

	if ascii {
		return buf
	}

	out := make([]byte, 0, len(buf)+len(buf)/2)

	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		buf = buf[size:]

		switch {
		case r < asciiDEL:
			out = append(out, byte(r))
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			out = appendUnicodeEscape(out, hi)
			out = appendUnicodeEscape(out, lo)
		default:
			out = appendUnicodeEscape(out, r)
		}
	}

	return out
}

// asciiDEL is the one ASCII control character encoding/json leaves unescaped.
const asciiDEL = 0x7f

func appendUnicodeEscape(dst []byte, r rune) []byte {
	const hex = "0123456789abcdef"

	return append(dst, '\\', 'u', hex[r>>12&0xF], hex[r>>8&0xF], hex[r>>4&0xF], hex[r&0xF])
}

// Equal reports whether a and b are structurally equal.
//
// Numbers compare by value: "1" equals "1.0", and 64-bit integers are compared
// exactly rather than through float64.
func Equal(a, b Value) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}

	switch av := a.(type) {
	case Object:
		bv, _ := b.(Object)
		if len(av) != len(bv) {
			return false
		}

		for k, e := range av {
			be, ok := bv[k]
			if !ok || !Equal(e, be) {
				return false
			}
		}

		return true
	case Array:
		bv, _ := b.(Array)
		if len(av) != len(bv) {
			return false
		}

		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}

		return true
	case Number:
		bv, _ := b.(Number)

		return numberEqual(av, bv)
	case String:
		return av == b.(String)
	case Bool:
		return av == b.(Bool)
	}

	// Both null
	return true
}

func numberEqual(a, b Number) bool {
	if a == b {
		return true
	}

	if ai, err := a.Int64(); err == nil {
		if bi, err := b.Int64(); err == nil {
			return ai == bi
		}
	}

	if au, err := a.Uint64(); err == nil {
		if bu, err := b.Uint64(); err == nil {
			return au == bu
		}
	}

	af, aerr := a.Float64()
	bf, berr := b.Float64()

	if aerr != nil || berr != nil || math.IsNaN(af) || math.IsNaN(bf) {
		return false
	}

	return af == bf
}
