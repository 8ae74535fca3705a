package babel

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// DefaultRequestIDHeader is the response header echoed into every [CallError].
const DefaultRequestIDHeader = "X-Request-Id"

// Exchange is the raw outcome of one HTTP exchange as seen by the classifier.
//
// StatusCode is 0 when no response was received. Err is the transport failure,
// if any, including one that happened while reading the body of an otherwise
// successful response.
type Exchange struct {
	Header     http.Header
	Err        error
	Body       []byte
	StatusCode int
}

// Classify turns a failed exchange into a [CallError], decoding route errors with s.
//
// The status policy is:
//
//   - no response at all, or a transport failure on a 2xx response: [TransportError]
//   - 5xx: [InternalServerError] with the body as text
//   - 400: [BadInputError] with the body as text
//   - 429: [RateLimitError]; the body is not inspected
//   - 403, 404, 409: [RouteError] decoded from the "error" field of a JSON object body
//   - anything else: [HTTPError]
//
// A route error body that is not a JSON object with an "error" field that s can
// decode is a protocol violation: Classify then returns a nil CallError and an
// error wrapping [ErrProtocol]. A successful exchange is not classifiable and
// fails the same way.
//
// A failure status is classified even when reading its body failed; messages
// then hold what arrived. A route error whose truncated body cannot be decoded
// is a [TransportError] carrying the read failure.
func Classify[E any](x Exchange, s Serializer[E]) (*CallError[E], error) {
	return classify(x, s, DefaultRequestIDHeader)
}

func classify[E any](x Exchange, s Serializer[E], requestIDHeader string) (*CallError[E], error) {
	rid := x.Header.Get(requestIDHeader)
	code := x.StatusCode

	if x.Err != nil && (code == 0 || code >= 200 && code < 300) {
		return &CallError[E]{Kind: TransportError, StatusCode: code, RequestID: rid, Cause: x.Err}, nil
	}

	switch {
	case code == 0:
		return nil, fmt.Errorf("%w: exchange finished without a response or an error", ErrProtocol)
	case code >= 200 && code < 300:
		return nil, fmt.Errorf("%w: status %d is not a failure", ErrProtocol, code)
	case code >= 500:
		return &CallError[E]{Kind: InternalServerError, StatusCode: code, Message: string(x.Body), RequestID: rid}, nil
	case code == http.StatusBadRequest:
		return &CallError[E]{Kind: BadInputError, StatusCode: code, Message: string(x.Body), RequestID: rid}, nil
	case code == http.StatusTooManyRequests:
		return &CallError[E]{Kind: RateLimitError, StatusCode: code, RequestID: rid, RetryAfter: retryAfter(x.Header)}, nil
	case code == http.StatusForbidden, code == http.StatusNotFound, code == http.StatusConflict:
		cerr, err := classifyRoute(x, s, rid)
		if err != nil && x.Err != nil {
			return &CallError[E]{Kind: TransportError, StatusCode: code, RequestID: rid, Cause: x.Err}, nil
		}

		return cerr, err
	}

	msg := string(x.Body)
	if msg == "" {
		msg = http.StatusText(code)
	}

	return &CallError[E]{Kind: HTTPError, StatusCode: code, Message: msg, RequestID: rid}, nil
}

// classifyRoute decodes the structured error of a 403, 404 or 409 response.
func classifyRoute[E any](x Exchange, s Serializer[E], rid string) (*CallError[E], error) {
	if hint := HintType(x.Body); hint != TypeObject {
		return nil, fmt.Errorf("%w: status %d route error body is %s, not a JSON object", ErrProtocol, x.StatusCode, hint)
	}

	v, err := Parse(x.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: status %d route error body: %w", ErrProtocol, x.StatusCode, err)
	}

	obj, err := AsObject(v)
	if err != nil {
		return nil, fmt.Errorf("%w: status %d route error body: %w", ErrProtocol, x.StatusCode, err)
	}

	ev, ok := obj["error"]
	if !ok {
		return nil, fmt.Errorf("%w: status %d route error body has no \"error\" field", ErrProtocol, x.StatusCode)
	}

	routeErr, err := s.Deserialize(ev)
	if err != nil {
		return nil, fmt.Errorf("%w: status %d route error: %w", ErrProtocol, x.StatusCode, err)
	}

	cerr := &CallError[E]{Kind: RouteError, StatusCode: x.StatusCode, Route: routeErr, RequestID: rid}

	// Human readable summary, sent alongside the structured error.
	if summary, ok := obj["error_summary"].(String); ok {
		cerr.Summary = string(summary)
	}

	switch msg := obj["user_message"].(type) {
	case String:
		cerr.Message = string(msg)
	case Object:
		if text, ok := msg["text"].(String); ok {
			cerr.Message = string(text)
		}
	}

	return cerr, nil
}

// retryAfter reads a Retry-After header given in seconds or as an HTTP date.
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}

	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}

	if at, err := http.ParseTime(v); err == nil {
		return max(time.Until(at), 0)
	}

	return 0
}
