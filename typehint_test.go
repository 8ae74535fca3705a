package babel

import (
	"testing"
)

func TestHintType(t *testing.T) {
	//nolint:govet //Do not reorder struct
	tests := []struct {
		name     string
		input    string
		expected TypeHint
	}{
		{"Empty", ``, TypeEmpty},
		{"Only whitespace", " \n\t", TypeEmpty},
		{"Array", `[]`, TypeArray},
		{"Object", `{"error": {}}`, TypeObject},
		{"True", `true`, TypeBool},
		{"Negative Number", `-12`, TypeNumber},
		{"String", `"oops"`, TypeString},
		{"Null", `null`, TypeNull},
		{"Plain text", `Internal Server Error`, TypeUnknown},
		{"HTML", `<html></html>`, TypeUnknown},
		{"Whitespace Object", "  \r\n{ } ", TypeObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HintType([]byte(tt.input))
			if got != tt.expected {
				t.Errorf("HintType(%q) = %v; want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTypeHintString(t *testing.T) {
	if got := TypeObject.String(); got != "JSON object" {
		t.Errorf("TypeObject.String() = %q", got)
	}

	if got := TypeHint(99).String(); got != "non-JSON data" {
		t.Errorf("TypeHint(99).String() = %q", got)
	}
}
