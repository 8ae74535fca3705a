package babel

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInternalServer = errors.New("babel: internal server error")
	ErrBadInput       = errors.New("babel: bad input")
	ErrRateLimit      = errors.New("babel: rate limited")
	ErrHTTP           = errors.New("babel: http error")
	ErrRoute          = errors.New("babel: route error")
	ErrTransport      = errors.New("babel: transport error")

	// ErrProtocol means the server answered in a way the client cannot interpret:
	// a route error that is not a JSON object, or a success body that fails to
	// decode. It is never downgraded to a generic error.
	ErrProtocol = errors.New("babel: protocol violation")
)

// CallErrorKind identifies which variant of [CallError] is populated.
type CallErrorKind int

const (
	InternalServerError CallErrorKind = iota // 5xx: StatusCode, Message, RequestID
	BadInputError                            // 400: Message, RequestID
	RateLimitError                           // 429: RetryAfter when the server sent one
	HTTPError                                // any other status: StatusCode, Message, RequestID
	RouteError                               // 403, 404, 409: Route, Summary, Message, RequestID
	TransportError                           // no usable response: Cause
)

var callErrorKinds = [...]struct {
	name     string
	sentinel error
}{
	InternalServerError: {"InternalServerError", ErrInternalServer},
	BadInputError:       {"BadInputError", ErrBadInput},
	RateLimitError:      {"RateLimitError", ErrRateLimit},
	HTTPError:           {"HTTPError", ErrHTTP},
	RouteError:          {"RouteError", ErrRoute},
	TransportError:      {"TransportError", ErrTransport},
}

func (k CallErrorKind) String() string {
	if k >= 0 && int(k) < len(callErrorKinds) {
		return callErrorKinds[k].name
	}

	return fmt.Sprintf("CallErrorKind(%d)", int(k))
}

// CallError is the single failure value delivered for a [Request]. Exactly one
// Kind applies; the fields documented for that kind are populated and the rest
// are zero. A CallError is never modified after it is delivered.
//
// CallError matches the sentinel of its kind with [errors.Is], and unwraps to
// its Cause:
//
//	_, err := req.Do(ctx)
//	var cerr *babel.CallError[DownloadError]
//	switch {
//	case errors.As(err, &cerr) && cerr.Kind == babel.RouteError:
//	    // cerr.Route holds the decoded route error
//	case errors.Is(err, babel.ErrRateLimit):
//	    // back off
//	}
type CallError[E any] struct {
	Cause      error
	Route      E
	Message    string
	Summary    string
	RequestID  string
	StatusCode int
	RetryAfter time.Duration
	Kind       CallErrorKind
}

func (e *CallError[E]) Error() string {
	var b strings.Builder

	b.WriteString(e.Kind.sentinel().Error())

	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}

	switch e.Kind {
	case RouteError:
		if e.Summary != "" {
			b.WriteString(": " + e.Summary)
		} else {
			fmt.Fprintf(&b, ": %+v", e.Route)
		}
	case TransportError:
		if e.Cause != nil {
			b.WriteString(": " + e.Cause.Error())
		}
	case RateLimitError:
		if e.RetryAfter > 0 {
			fmt.Fprintf(&b, ": retry after %s", e.RetryAfter)
		}
	default:
		if e.Message != "" {
			b.WriteString(": " + e.Message)
		}
	}

	if e.RequestID != "" {
		b.WriteString(" [request-id " + e.RequestID + "]")
	}

	return b.String()
}

// Is reports whether target is the sentinel error of e's kind.
func (e *CallError[E]) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Unwrap returns the underlying cause, if any.
func (e *CallError[E]) Unwrap() error {
	return e.Cause
}

func (k CallErrorKind) sentinel() error {
	if k >= 0 && int(k) < len(callErrorKinds) {
		return callErrorKinds[k].sentinel
	}

	return ErrHTTP
}

// transportFailure wraps err as a [TransportError].
func transportFailure[E any](err error) *CallError[E] {
	return &CallError[E]{Kind: TransportError, Cause: err}
}

// protocolFailure reports a response the client could not interpret. It is
// delivered as a [TransportError] whose cause matches [ErrProtocol].
func protocolFailure[E any](x Exchange, requestIDHeader string, err error) *CallError[E] {
	if !errors.Is(err, ErrProtocol) {
		err = fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	return &CallError[E]{
		Kind:       TransportError,
		StatusCode: x.StatusCode,
		RequestID:  x.Header.Get(requestIDHeader),
		Cause:      err,
	}
}
