package babeltest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rrb3942/babel"
)

func mustDump(v babel.Value, ascii bool) []byte {
	dump := babel.Dump
	if ascii {
		dump = babel.DumpASCII
	}

	b, err := dump(v)
	if err != nil {
		panic("babeltest: " + err.Error())
	}

	return b
}

// JSON answers with status and v as a JSON body.
func JSON(status int, v babel.Value) Response {
	return Response{
		Status: status,
		Header: http.Header{"Content-Type": {"application/json"}},
		Body:   mustDump(v, false),
	}
}

// Text answers with status and a plain text body.
func Text(status int, msg string) Response {
	return Response{
		Status: status,
		Header: http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
		Body:   []byte(msg),
	}
}

// RouteError answers with a route error envelope: routeErr under "error" and
// summary under "error_summary". status should be 403, 404 or 409.
func RouteError(status int, routeErr babel.Value, summary string) Response {
	env := babel.Object{"error": routeErr}
	if summary != "" {
		env["error_summary"] = babel.String(summary)
	}

	return JSON(status, env)
}

// RateLimited answers 429 with a Retry-After header.
func RateLimited(retryAfter time.Duration) Response {
	r := Text(http.StatusTooManyRequests, "too many requests")
	r.Header.Set("Retry-After", strconv.Itoa(int(retryAfter/time.Second)))

	return r
}

// Download answers a download route: result goes into the server's result
// header and payload is the body.
func (s *Server) Download(result babel.Value, payload []byte) Response {
	return Response{
		Status: http.StatusOK,
		Header: http.Header{
			"Content-Type":                          {"application/octet-stream"},
			http.CanonicalHeaderKey(s.ResultHeader): {string(mustDump(result, true))},
		},
		Body: payload,
	}
}
