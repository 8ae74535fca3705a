package babel

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDatePattern is returned by [NewDateSerializer] for a malformed strftime pattern.
var ErrDatePattern = errors.New("babel: invalid date pattern")

// dateToken is one compiled element of a date pattern: either literal text
// (verb == 0) or a single directive.
type dateToken struct {
	lit  string
	verb byte
	flag byte // '-' (no padding), ':' (colon in %z) or 0
}

const (
	dateVerbs  = "YymdejHIMSfLNpPbhBaAzZ"
	noPadVerbs = "mdjHIMS"
)

// Compiler states.
const (
	patternText = iota
	patternDirective
)

// Field widths of the numeric directives.
var dateWidths = map[byte]int{'Y': 4, 'y': 2, 'm': 2, 'd': 2, 'j': 3, 'H': 2, 'I': 2, 'M': 2, 'S': 2, 'f': 6, 'L': 3, 'N': 9}

// Composite directives expand to their POSIX definitions.
var dateComposites = map[byte]string{
	'F': "%Y-%m-%d",
	'T': "%H:%M:%S",
	'R': "%H:%M",
	'D': "%m/%d/%y",
}

// compileDatePattern turns a strftime pattern into tokens.
//
// The compiler has two states: plain text, where every byte other than '%' is
// literal, and directive, entered on '%'. Literal letters are kept as literal
// tokens and never reach a layout engine that could reinterpret them.
func compileDatePattern(pattern string) ([]dateToken, error) {
	var (
		toks  []dateToken
		flag  byte
		state = patternText
	)

	for i := range len(pattern) {
		c := pattern[i]

		if state == patternText {
			if c == '%' {
				state, flag = patternDirective, 0
				continue
			}

			toks = appendLiteral(toks, pattern[i:i+1])

			continue
		}

		if flag == 0 && (c == '-' || c == ':') {
			flag = c
			continue
		}

		state = patternText

		switch {
		case c == '%' || c == 'n' || c == 't':
			if flag != 0 {
				return nil, fmt.Errorf("%w: flag %q on %%%c", ErrDatePattern, flag, c)
			}

			toks = appendLiteral(toks, map[byte]string{'%': "%", 'n': "\n", 't': "\t"}[c])
		case dateComposites[c] != "":
			if flag != 0 {
				return nil, fmt.Errorf("%w: flag %q on %%%c", ErrDatePattern, flag, c)
			}

			sub, err := compileDatePattern(dateComposites[c])
			if err != nil {
				return nil, err
			}

			for _, t := range sub {
				if t.verb == 0 {
					toks = appendLiteral(toks, t.lit)
				} else {
					toks = append(toks, t)
				}
			}
		case strings.IndexByte(dateVerbs, c) >= 0:
			if (flag == '-' && strings.IndexByte(noPadVerbs, c) < 0) || (flag == ':' && c != 'z') {
				return nil, fmt.Errorf("%w: flag %q on %%%c", ErrDatePattern, flag, c)
			}

			toks = append(toks, dateToken{verb: c, flag: flag})
		default:
			return nil, fmt.Errorf("%w: unsupported directive %%%c at offset %d", ErrDatePattern, c, i)
		}
	}

	if state == patternDirective {
		return nil, fmt.Errorf("%w: pattern ends inside a directive", ErrDatePattern)
	}

	return toks, nil
}

// appendLiteral adds text to toks, merging it with a trailing literal token.
func appendLiteral(toks []dateToken, text string) []dateToken {
	if n := len(toks); n > 0 && toks[n-1].verb == 0 {
		toks[n-1].lit += text
		return toks
	}

	return append(toks, dateToken{lit: text})
}

// strftimeLayout renders tokens back into a canonical strftime pattern in which
// every literal '%' is doubled.
func strftimeLayout(toks []dateToken) string {
	var b strings.Builder

	for _, t := range toks {
		if t.verb == 0 {
			b.WriteString(strings.ReplaceAll(t.lit, "%", "%%"))
			continue
		}

		b.WriteByte('%')

		if t.flag != 0 {
			b.WriteByte(t.flag)
		}

		b.WriteByte(t.verb)
	}

	return b.String()
}

// dateFields collects the values read by [scanDate] before they are assembled.
type dateFields struct {
	loc                          *time.Location
	year, month, day, yday       int
	hour, minute, second, nsec   int
	hasYearDay, hasMonth, hasDay bool
	hasMeridiem, pm              bool
}

// scanDate reads value against toks. It is a strict sequential scanner: every
// literal must match exactly and every directive must consume its full field.
func scanDate(toks []dateToken, value string) (time.Time, error) {
	f := dateFields{year: 0, month: 1, day: 1, loc: time.UTC}
	s := value

	var err error

	for _, t := range toks {
		if t.verb == 0 {
			if !strings.HasPrefix(s, t.lit) {
				return time.Time{}, fmt.Errorf("expected %q at %q", t.lit, s)
			}

			s = s[len(t.lit):]

			continue
		}

		if s, err = f.scan(t, s); err != nil {
			return time.Time{}, fmt.Errorf("%%%c: %w", t.verb, err)
		}
	}

	if s != "" {
		return time.Time{}, fmt.Errorf("unexpected trailing text %q", s)
	}

	return f.time()
}

func (f *dateFields) scan(t dateToken, s string) (string, error) {
	var (
		n   int
		err error
	)

	if w, ok := dateWidths[t.verb]; ok {
		minWidth := w
		if t.flag == '-' {
			minWidth = 1
		}

		if n, s, err = scanDigits(s, minWidth, w); err != nil {
			return s, err
		}
	}

	switch t.verb {
	case 'Y':
		f.year = n
	case 'y':
		// POSIX: 69-99 are 1969-1999, 00-68 are 2000-2068
		f.year = n + 2000
		if n >= 69 {
			f.year = n + 1900
		}
	case 'm':
		f.month, f.hasMonth = n, true
	case 'd':
		f.day, f.hasDay = n, true
	case 'e':
		s = strings.TrimPrefix(s, " ")
		if n, s, err = scanDigits(s, 1, 2); err != nil {
			return s, err
		}

		f.day, f.hasDay = n, true
	case 'j':
		f.yday, f.hasYearDay = n, true
	case 'H':
		f.hour = n
	case 'I':
		if n < 1 || n > 12 {
			return s, fmt.Errorf("hour %d out of range", n)
		}

		f.hour = n % 12
	case 'M':
		f.minute = n
	case 'S':
		f.second = n
	case 'f':
		f.nsec = n * int(time.Microsecond)
	case 'L':
		f.nsec = n * int(time.Millisecond)
	case 'N':
		f.nsec = n
	case 'p', 'P':
		var idx int
		if idx, s, err = scanName(s, []string{"AM", "PM"}); err != nil {
			return s, err
		}

		f.hasMeridiem, f.pm = true, idx == 1
	case 'b', 'h', 'B':
		names := make([]string, 12)
		for i := range names {
			names[i] = time.Month(i + 1).String()
			if t.verb != 'B' {
				names[i] = names[i][:3]
			}
		}

		var idx int
		if idx, s, err = scanName(s, names); err != nil {
			return s, err
		}

		f.month, f.hasMonth = idx+1, true
	case 'a', 'A':
		names := make([]string, 7)
		for i := range names {
			names[i] = time.Weekday(i).String()
			if t.verb == 'a' {
				names[i] = names[i][:3]
			}
		}

		// Weekday is redundant with the date; it only has to be well formed.
		if _, s, err = scanName(s, names); err != nil {
			return s, err
		}
	case 'z':
		return f.scanOffset(s, t.flag == ':')
	case 'Z':
		i := 0
		for i < len(s) && (s[i] >= 'A' && s[i] <= 'Z' || s[i] >= 'a' && s[i] <= 'z') {
			i++
		}

		if i == 0 {
			return s, errors.New("missing zone name")
		}

		s = s[i:]
	}

	return s, nil
}

// scanOffset reads "Z" or a numeric UTC offset (+hhmm, or +hh:mm when colon is set).
func (f *dateFields) scanOffset(s string, colon bool) (string, error) {
	if strings.HasPrefix(s, "Z") {
		f.loc = time.UTC
		return s[1:], nil
	}

	if s == "" || (s[0] != '+' && s[0] != '-') {
		return s, fmt.Errorf("expected UTC offset at %q", s)
	}

	sign := 1
	if s[0] == '-' {
		sign = -1
	}

	hh, rest, err := scanDigits(s[1:], 2, 2)
	if err != nil {
		return s, err
	}

	if colon {
		if !strings.HasPrefix(rest, ":") {
			return s, fmt.Errorf("expected ':' in UTC offset at %q", s)
		}

		rest = rest[1:]
	}

	mm, rest, err := scanDigits(rest, 2, 2)
	if err != nil {
		return s, err
	}

	if offset := sign * (hh*3600 + mm*60); offset != 0 {
		f.loc = time.FixedZone("", offset)
	} else {
		f.loc = time.UTC
	}

	return rest, nil
}

// time assembles the scanned fields, rejecting impossible dates instead of
// letting [time.Date] normalize them.
func (f *dateFields) time() (time.Time, error) {
	if f.hasMeridiem && f.pm {
		f.hour += 12
	}

	if f.hour > 23 || f.minute > 59 || f.second > 60 {
		return time.Time{}, fmt.Errorf("time of day %02d:%02d:%02d out of range", f.hour, f.minute, f.second)
	}

	if f.hasYearDay && !f.hasMonth && !f.hasDay {
		t := time.Date(f.year, time.January, 1, f.hour, f.minute, f.second, f.nsec, f.loc).AddDate(0, 0, f.yday-1)
		if f.yday < 1 || t.Year() != f.year {
			return time.Time{}, fmt.Errorf("day of year %d out of range", f.yday)
		}

		return t, nil
	}

	t := time.Date(f.year, time.Month(f.month), f.day, f.hour, f.minute, f.second, f.nsec, f.loc)
	if int(t.Month()) != f.month || t.Day() != f.day {
		return time.Time{}, fmt.Errorf("invalid date %04d-%02d-%02d", f.year, f.month, f.day)
	}

	return t, nil
}

// scanDigits reads between minWidth and maxWidth ASCII digits.
func scanDigits(s string, minWidth, maxWidth int) (int, string, error) {
	n, i := 0, 0

	for i < len(s) && i < maxWidth && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}

	if i < minWidth {
		return 0, s, fmt.Errorf("expected %d digits at %q", minWidth, s)
	}

	return n, s[i:], nil
}

// scanName matches one of names at the start of s, ignoring case, and returns its index.
func scanName(s string, names []string) (int, string, error) {
	for i, name := range names {
		if len(s) >= len(name) && strings.EqualFold(s[:len(name)], name) {
			return i, s[len(name):], nil
		}
	}

	return 0, s, fmt.Errorf("unrecognized name at %q", s)
}
