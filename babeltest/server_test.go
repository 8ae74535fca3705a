package babeltest

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rrb3942/babel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, srv *Server, route, ctype string, header http.Header, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/"+route, strings.NewReader(body))
	require.NoError(t, err)

	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}

	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)

	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(b)
}

func TestServer_RPC(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	srv.Handle("/files/get_size", func(call Call) Response {
		v, err := call.Value()
		if err != nil {
			return Text(http.StatusBadRequest, err.Error())
		}

		obj, _ := v.(babel.Object)
		assert.Equal(t, babel.String("/a"), obj["path"])

		return JSON(http.StatusOK, babel.Object{"size": babel.Number("42")})
	})

	resp := post(t, srv, "files/get_size", "application/json", nil, `{"path":"/a"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"size":42}`, readAll(t, resp))

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "files/get_size", calls[0].Route)
	assert.Equal(t, `{"path":"/a"}`, calls[0].Arg)
}

func TestServer_UploadArgHeader(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	srv.Handle("files/upload", func(call Call) Response {
		return JSON(http.StatusOK, babel.Object{"size": babel.Number("5")})
	})

	resp := post(t, srv, "files/upload", "application/octet-stream",
		http.Header{babel.DefaultArgHeader: {`{"path":"/x"}`}}, "hello")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, `{"path":"/x"}`, calls[0].Arg)
	assert.Equal(t, []byte("hello"), calls[0].Body)
}

func TestServer_UnknownRoute(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	resp := post(t, srv, "nope", "application/json", nil, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readAll(t, resp), `"nope"`)
	assert.Len(t, srv.Calls(), 1)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/files/get_size")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Empty(t, srv.Calls())
}

func TestServer_MaxBytes(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	srv.MaxBytes = 4
	srv.Handle("files/upload", func(Call) Response { return Response{} })

	resp := post(t, srv, "files/upload", "application/octet-stream", nil, "0123456789")
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestServer_Responses(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	srv.Handle("files/delete", func(Call) Response {
		return RouteError(http.StatusConflict, babel.Tagged("not_found"), "not_found/..")
	})
	srv.Handle("files/download", func(Call) Response {
		return srv.Download(babel.Object{"name": babel.String("é")}, []byte("payload"))
	})
	srv.Handle("files/list", func(Call) Response {
		return RateLimited(3 * time.Second)
	})

	resp := post(t, srv, "files/delete", "application/json", nil, `null`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.JSONEq(t, `{"error":{".tag":"not_found"},"error_summary":"not_found/.."}`, readAll(t, resp))

	resp = post(t, srv, "files/download", "", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"name":"\u00e9"}`, resp.Header.Get(babel.DefaultResultHeader))
	assert.Equal(t, "payload", readAll(t, resp))

	resp = post(t, srv, "files/list", "application/json", nil, `null`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "3", resp.Header.Get("Retry-After"))
}

func TestServer_Config(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	cfg := srv.Config()
	for _, host := range []string{babel.HostAPI, babel.HostContent, babel.HostNotify} {
		assert.Equal(t, srv.URL, cfg.Hosts[host])
	}

	assert.NoError(t, cfg.Validate())

	// The default config is left alone.
	assert.NotEqual(t, srv.URL, babel.DefaultConfig().Hosts[babel.HostAPI])
}
