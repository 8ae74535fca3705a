package babel

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pathErrorSerializer decodes a union of path failures.
var pathErrorSerializer = SerializerFuncs[string]{
	To: func(tag string) (Value, error) { return Tagged(tag), nil },
	From: func(v Value) (string, error) {
		_, tag, err := ReadTag(v)
		if err != nil {
			return "", err
		}

		switch tag {
		case "path_not_found", "malformed_path":
			return tag, nil
		}

		return "", UnknownTag(tag)
	},
}

func header(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}

	return h
}

func TestClassify(t *testing.T) {
	t.Parallel()

	//nolint:govet //Do not reorder struct
	tests := []struct {
		name string
		x    Exchange
		want CallError[string]
	}{
		{
			"internal server error",
			Exchange{StatusCode: 500, Body: []byte("oops"), Header: header("X-Request-Id", "abc")},
			CallError[string]{Kind: InternalServerError, StatusCode: 500, Message: "oops", RequestID: "abc"},
		},
		{
			"503",
			Exchange{StatusCode: 503},
			CallError[string]{Kind: InternalServerError, StatusCode: 503},
		},
		{
			"bad input",
			Exchange{StatusCode: 400, Body: []byte("Error in call: missing path"), Header: header("X-Request-Id", "r1")},
			CallError[string]{Kind: BadInputError, StatusCode: 400, Message: "Error in call: missing path", RequestID: "r1"},
		},
		{
			"rate limit ignores body",
			Exchange{StatusCode: 429, Body: []byte("<html>not json</html>")},
			CallError[string]{Kind: RateLimitError, StatusCode: 429},
		},
		{
			"rate limit retry after",
			Exchange{StatusCode: 429, Header: header("Retry-After", "15")},
			CallError[string]{Kind: RateLimitError, StatusCode: 429, RetryAfter: 15 * time.Second},
		},
		{
			"route error",
			Exchange{StatusCode: 404, Body: []byte(`{"error": {".tag": "path_not_found"}}`)},
			CallError[string]{Kind: RouteError, StatusCode: 404, Route: "path_not_found"},
		},
		{
			"route error with summary",
			Exchange{
				StatusCode: 409,
				Body:       []byte(`{"error_summary":"malformed_path/..","error":{".tag":"malformed_path"},"user_message":{"locale":"en","text":"Bad path"}}`),
				Header:     header("X-Request-Id", "xyz"),
			},
			CallError[string]{Kind: RouteError, StatusCode: 409, Route: "malformed_path", Summary: "malformed_path/..", Message: "Bad path", RequestID: "xyz"},
		},
		{
			"forbidden is a route error",
			Exchange{StatusCode: 403, Body: []byte(` {"error":{".tag":"path_not_found"}}`)},
			CallError[string]{Kind: RouteError, StatusCode: 403, Route: "path_not_found"},
		},
		{
			"other status",
			Exchange{StatusCode: 418, Body: []byte("short and stout"), Header: header("X-Request-Id", "t")},
			CallError[string]{Kind: HTTPError, StatusCode: 418, Message: "short and stout", RequestID: "t"},
		},
		{
			"other status without body",
			Exchange{StatusCode: 401},
			CallError[string]{Kind: HTTPError, StatusCode: 401, Message: "Unauthorized"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify[string](tt.x, pathErrorSerializer)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestClassify_Transport(t *testing.T) {
	t.Parallel()

	for _, code := range []int{0, 200, 206} {
		got, err := Classify[string](Exchange{StatusCode: code, Err: io.ErrUnexpectedEOF}, pathErrorSerializer)
		require.NoError(t, err)
		assert.Equal(t, TransportError, got.Kind)
		assert.ErrorIs(t, got, io.ErrUnexpectedEOF)
		assert.ErrorIs(t, got, ErrTransport)
	}

	got, err := Classify[string](Exchange{Err: context.Canceled}, pathErrorSerializer)
	require.NoError(t, err)
	assert.ErrorIs(t, got, context.Canceled)
}

func TestClassify_TruncatedFailureBody(t *testing.T) {
	t.Parallel()

	rid := header("X-Request-Id", "rid-7")

	//nolint:govet //Do not reorder struct
	tests := []struct {
		name string
		x    Exchange
		want CallError[string]
	}{
		{
			"server error keeps status",
			Exchange{StatusCode: 503, Header: rid, Body: []byte("overlo"), Err: io.ErrUnexpectedEOF},
			CallError[string]{Kind: InternalServerError, StatusCode: 503, Message: "overlo", RequestID: "rid-7"},
		},
		{
			"bad input keeps status",
			Exchange{StatusCode: 400, Header: rid, Body: []byte("bad"), Err: io.ErrUnexpectedEOF},
			CallError[string]{Kind: BadInputError, StatusCode: 400, Message: "bad", RequestID: "rid-7"},
		},
		{
			"complete route error despite read failure",
			Exchange{StatusCode: 409, Header: rid, Body: []byte(`{"error":{".tag":"path_not_found"}}`), Err: io.ErrUnexpectedEOF},
			CallError[string]{Kind: RouteError, StatusCode: 409, Route: "path_not_found", RequestID: "rid-7"},
		},
		{
			"cut route error",
			Exchange{StatusCode: 409, Header: rid, Body: []byte(`{"error":{".ta`), Err: io.ErrUnexpectedEOF},
			CallError[string]{Kind: TransportError, StatusCode: 409, RequestID: "rid-7", Cause: io.ErrUnexpectedEOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify[string](tt.x, pathErrorSerializer)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestClassify_ProtocolViolations(t *testing.T) {
	t.Parallel()

	for _, x := range []Exchange{
		{StatusCode: 404, Body: []byte("Not Found")},
		{StatusCode: 404},
		{StatusCode: 409, Body: []byte(`["error"]`)},
		{StatusCode: 409, Body: []byte(`{"error": `)},
		{StatusCode: 409, Body: []byte(`{"reason": "no error field"}`)},
		{StatusCode: 409, Body: []byte(`{"error": {".tag": "unheard_of"}}`)},
		{StatusCode: 200},
		{StatusCode: 0},
	} {
		got, err := Classify[string](x, pathErrorSerializer)
		require.Error(t, err, "status %d body %q", x.StatusCode, x.Body)
		assert.ErrorIs(t, err, ErrProtocol)
		assert.Nil(t, got)
	}

	_, err := Classify[string](Exchange{StatusCode: 404, Body: []byte("<html>")}, pathErrorSerializer)
	assert.Contains(t, err.Error(), "non-JSON data")
}

func TestCallErrorIs(t *testing.T) {
	t.Parallel()

	cerr := &CallError[string]{Kind: RouteError, Route: "path_not_found", RequestID: "abc", StatusCode: 409}

	var err error = cerr

	assert.ErrorIs(t, err, ErrRoute)
	assert.NotErrorIs(t, err, ErrHTTP)
	assert.Equal(t, "babel: route error (status 409): path_not_found [request-id abc]", err.Error())

	var target *CallError[string]
	require.ErrorAs(t, errors.Join(errors.New("context"), err), &target)
	assert.Equal(t, "path_not_found", target.Route)

	assert.Equal(t, "RateLimitError", RateLimitError.String())
}
