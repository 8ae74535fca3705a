package babel

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"unicode/utf8"
)

// ErrValidation is wrapped by every [ValidationError].
var ErrValidation = errors.New("babel: validation failed")

// ValidationError reports a single violated constraint.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Assertion decides what happens when a constraint is checked. It receives the
// result of the check and a description of the constraint; a non-nil return
// aborts the validation with that error.
//
// Assertions are passed explicitly to validator constructors, usually taken
// from [Client.Assertion], so different clients can apply different policies.
type Assertion func(ok bool, message string) error

// FailFast is the default [Assertion]: the first violation is returned as a [*ValidationError].
func FailFast(ok bool, message string) error {
	if ok {
		return nil
	}

	return &ValidationError{Message: message}
}

// LogViolations returns an [Assertion] that logs violations at warn level and lets
// the value through. A nil logger uses [slog.Default].
func LogViolations(logger *slog.Logger) Assertion {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ok bool, message string) error {
		if !ok {
			logger.Warn("Babel constraint violated", "constraint", message)
		}

		return nil
	}
}

func (a Assertion) check(ok bool, format string, args ...any) error {
	if a == nil {
		a = FailFast
	}

	if ok {
		return a(true, "")
	}

	return a(false, fmt.Sprintf(format, args...))
}

// Validator checks a native value. Validators never modify the value.
type Validator[T any] func(T) error

type lengthRules struct {
	pattern  *regexp.Regexp
	min, max int
}

// LengthOption constrains the length or content of a string or byte slice.
type LengthOption func(*lengthRules)

// MinLength requires at least n characters (bytes for [BytesValidator]).
func MinLength(n int) LengthOption { return func(r *lengthRules) { r.min = n } }

// MaxLength allows at most n characters (bytes for [BytesValidator]).
func MaxLength(n int) LengthOption { return func(r *lengthRules) { r.max = n } }

// Pattern requires the whole value to match the regular expression expr.
// It panics if expr does not compile, like [regexp.MustCompile].
func Pattern(expr string) LengthOption {
	re := regexp.MustCompile(`^(?:` + expr + `)$`)
	return func(r *lengthRules) { r.pattern = re }
}

func newLengthRules(opts []LengthOption) lengthRules {
	r := lengthRules{max: -1}

	for _, opt := range opts {
		opt(&r)
	}

	return r
}

// StringValidator checks the length, counted in Unicode code points, and pattern of a string.
//
// Example:
//
//	validPath := babel.StringValidator(client.Assertion(), babel.MinLength(1), babel.Pattern(`/.*`))
func StringValidator(a Assertion, opts ...LengthOption) Validator[string] {
	r := newLengthRules(opts)

	return func(s string) error {
		n := utf8.RuneCountInString(s)

		if err := a.check(n >= r.min, "%q must be at least %d characters", s, r.min); err != nil {
			return err
		}

		if r.max >= 0 {
			if err := a.check(n <= r.max, "%q must be at most %d characters", s, r.max); err != nil {
				return err
			}
		}

		if r.pattern != nil {
			if err := a.check(r.pattern.MatchString(s), "%q must match pattern %s", s, r.pattern); err != nil {
				return err
			}
		}

		return nil
	}
}

// BytesValidator checks the length of a byte slice and, if set, matches its pattern.
func BytesValidator(a Assertion, opts ...LengthOption) Validator[[]byte] {
	r := newLengthRules(opts)

	return func(b []byte) error {
		if err := a.check(len(b) >= r.min, "data must be at least %d bytes, got %d", r.min, len(b)); err != nil {
			return err
		}

		if r.max >= 0 {
			if err := a.check(len(b) <= r.max, "data must be at most %d bytes, got %d", r.max, len(b)); err != nil {
				return err
			}
		}

		if r.pattern != nil {
			if err := a.check(r.pattern.Match(b), "data must match pattern %s", r.pattern); err != nil {
				return err
			}
		}

		return nil
	}
}

type itemRules struct {
	min, max int
}

// ItemsOption constrains the number of elements in a list.
type ItemsOption func(*itemRules)

// MinItems requires at least n elements.
func MinItems(n int) ItemsOption { return func(r *itemRules) { r.min = n } }

// MaxItems allows at most n elements.
func MaxItems(n int) ItemsOption { return func(r *itemRules) { r.max = n } }

// ArrayValidator checks the element count of a list and then applies elem, which
// may be nil, to every element.
func ArrayValidator[T any](a Assertion, elem Validator[T], opts ...ItemsOption) Validator[[]T] {
	r := itemRules{max: -1}

	for _, opt := range opts {
		opt(&r)
	}

	return func(items []T) error {
		if err := a.check(len(items) >= r.min, "list must have at least %d items, got %d", r.min, len(items)); err != nil {
			return err
		}

		if r.max >= 0 {
			if err := a.check(len(items) <= r.max, "list must have at most %d items, got %d", r.max, len(items)); err != nil {
				return err
			}
		}

		if elem == nil {
			return nil
		}

		for i, item := range items {
			if err := elem(item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}

		return nil
	}
}

type rangeRules[T cmp.Ordered] struct {
	min, max       T
	hasMin, hasMax bool
}

// RangeOption bounds a numeric value.
type RangeOption[T cmp.Ordered] func(*rangeRules[T])

// MinValue requires the value to be >= n.
func MinValue[T cmp.Ordered](n T) RangeOption[T] {
	return func(r *rangeRules[T]) { r.min, r.hasMin = n, true }
}

// MaxValue requires the value to be <= n.
func MaxValue[T cmp.Ordered](n T) RangeOption[T] {
	return func(r *rangeRules[T]) { r.max, r.hasMax = n, true }
}

// RangeValidator checks inclusive bounds on an ordered value.
func RangeValidator[T cmp.Ordered](a Assertion, opts ...RangeOption[T]) Validator[T] {
	var r rangeRules[T]

	for _, opt := range opts {
		opt(&r)
	}

	return func(v T) error {
		if r.hasMin {
			if err := a.check(v >= r.min, "%v must be at least %v", v, r.min); err != nil {
				return err
			}
		}

		if r.hasMax {
			if err := a.check(v <= r.max, "%v must be at most %v", v, r.max); err != nil {
				return err
			}
		}

		return nil
	}
}

// NullableValidator applies inner to non-nil values and accepts nil unconditionally.
func NullableValidator[T any](inner Validator[T]) Validator[*T] {
	return func(v *T) error {
		if v == nil {
			return nil
		}

		return inner(*v)
	}
}

// ValidatedSerializer runs a [Validator] on the native value before serializing
// and after deserializing.
type ValidatedSerializer[T any] struct {
	Inner    Serializer[T]
	Validate Validator[T]
}

// Validated wraps s so that every value passing through it is checked by v.
func Validated[T any](s Serializer[T], v Validator[T]) ValidatedSerializer[T] {
	return ValidatedSerializer[T]{Inner: s, Validate: v}
}

// Serialize validates v and then serializes it.
func (s ValidatedSerializer[T]) Serialize(v T) (Value, error) {
	if err := s.Validate(v); err != nil {
		return nil, err
	}

	return s.Inner.Serialize(v)
}

// Deserialize decodes v and validates the result.
func (s ValidatedSerializer[T]) Deserialize(v Value) (T, error) {
	out, err := s.Inner.Deserialize(v)
	if err != nil {
		return out, err
	}

	if err := s.Validate(out); err != nil {
		var zero T
		return zero, err
	}

	return out, nil
}
