package babel

import (
	"fmt"
	"time"

	"github.com/ncruces/go-strftime"
)

// DateSerializer converts [time.Time] <-> [String] using a strftime-style pattern.
//
// Supported directives are %Y %y %m %d %e %j %H %I %M %S %f %L %N %p %P %b %h %B
// %a %A %z %:z %Z, the composites %F %T %R %D, and %% %n %t. The '-' flag drops
// zero padding from numeric fields. Any other text in the pattern, letters
// included, is literal.
//
// Timestamps are written in UTC unless the pattern contains %z, in which case
// the time's own offset is written. Parsed values without %z are in UTC.
//
// Example:
//
//	dates, err := babel.NewDateSerializer("%Y-%m-%dT%H:%M:%SZ")
//	v, _ := dates.Serialize(time.Date(2024, 3, 9, 17, 4, 5, 0, time.UTC))
//	// v == babel.String("2024-03-09T17:04:05Z")
type DateSerializer struct {
	pattern string
	layout  string
	tokens  []dateToken
	zoned   bool
}

// NewDateSerializer compiles pattern. Malformed patterns fail with [ErrDatePattern].
func NewDateSerializer(pattern string) (DateSerializer, error) {
	toks, err := compileDatePattern(pattern)
	if err != nil {
		return DateSerializer{}, err
	}

	ds := DateSerializer{pattern: pattern, layout: strftimeLayout(toks), tokens: toks}

	for _, t := range toks {
		if t.verb == 'z' {
			ds.zoned = true
		}
	}

	return ds, nil
}

// Pattern returns the pattern the serializer was compiled from.
func (d DateSerializer) Pattern() string {
	return d.pattern
}

// UTS35 returns the pattern as a Unicode TR35 date format, with literal letters
// quoted, for handing to platform formatters outside Go.
func (d DateSerializer) UTS35() (string, error) {
	return strftime.UTS35(d.layout)
}

// Format renders t per the pattern.
func (d DateSerializer) Format(t time.Time) string {
	if !d.zoned {
		t = t.UTC()
	}

	return strftime.Format(d.layout, t)
}

// Serialize implements [Serializer].
func (d DateSerializer) Serialize(t time.Time) (Value, error) {
	return String(d.Format(t)), nil
}

// Deserialize implements [Serializer]. A string that does not match the pattern
// fails with [ErrType].
func (d DateSerializer) Deserialize(v Value) (time.Time, error) {
	s, ok := v.(String)
	if !ok {
		return time.Time{}, typeMismatch(KindString, v)
	}

	t, err := scanDate(d.tokens, string(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match %q: %w", ErrType, string(s), d.pattern, err)
	}

	return t, nil
}
