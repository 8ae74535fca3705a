package babel

import (
	"bytes"
)

// TypeHint provides a quick classification of the likely top-level JSON type
// of a raw document, based solely on its first non-whitespace character.
//
// The [Classify] step uses it to reject route-error bodies that are not JSON
// objects without paying for a full parse, and to name what was received instead.
//
// Note: This is only a hint and does not guarantee the data is valid JSON of that type.
type TypeHint int

const (
	TypeUnknown TypeHint = iota // Could not determine type from the first character.
	TypeArray                   // Likely a JSON array (starts with '[').
	TypeObject                  // Likely a JSON object (starts with '{').
	TypeBool                    // Likely a JSON boolean (starts with 't' or 'f').
	TypeNumber                  // Likely a JSON number (starts with '-', '0'-'9').
	TypeString                  // Likely a JSON string (starts with '"').
	TypeNull                    // Likely the JSON null value (starts with 'n').

	// TypeEmpty is returned when the data, after trimming whitespace, has zero length.
	TypeEmpty
)

var typeHintNames = [...]string{
	TypeUnknown: "non-JSON data",
	TypeArray:   "JSON array",
	TypeObject:  "JSON object",
	TypeBool:    "JSON boolean",
	TypeNumber:  "JSON number",
	TypeString:  "JSON string",
	TypeNull:    "JSON null",
	TypeEmpty:   "empty body",
}

// String describes the hint for error messages.
func (t TypeHint) String() string {
	if t >= 0 && int(t) < len(typeHintNames) {
		return typeHintNames[t]
	}

	return typeHintNames[TypeUnknown]
}

// HintType examines the first non-whitespace byte of data and returns a [TypeHint].
// It returns [TypeEmpty] if data is empty after trimming whitespace and
// [TypeUnknown] if the first character cannot start a JSON value.
func HintType(data []byte) TypeHint {
	data = bytes.TrimSpace(data)

	if len(data) == 0 {
		return TypeEmpty
	}

	switch data[0] {
	case '[':
		return TypeArray
	case '{':
		return TypeObject
	case 't', 'f':
		return TypeBool
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return TypeNumber
	case '"':
		return TypeString
	case 'n':
		return TypeNull
	}

	return TypeUnknown
}
