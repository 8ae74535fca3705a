// Package babeltest provides an in-process Babel server for tests.
//
// A [Server] dispatches each request by route name to a registered
// [HandlerFunc] and records every call it receives:
//
//	srv := babeltest.NewServer()
//	defer srv.Close()
//
//	srv.Handle("files/get_size", func(call babeltest.Call) babeltest.Response {
//	    return babeltest.JSON(http.StatusOK, babel.Object{"size": babel.Number("42")})
//	})
//
//	client, _ := babel.NewClient(srv.Config())
package babeltest

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/rrb3942/babel"
)

// Call is one request received by a [Server].
type Call struct {
	Header http.Header
	// Route is the request path without its leading slash.
	Route string
	// Arg is the raw argument: the arg header for upload and download routes,
	// or the request body for RPC routes.
	Arg string
	// Body is the request body.
	Body []byte
}

// Value parses the call's argument.
func (c Call) Value() (babel.Value, error) {
	return babel.Parse([]byte(c.Arg))
}

// Response is what a [HandlerFunc] answers with.
type Response struct {
	Header http.Header
	Body   []byte
	Status int
}

// HandlerFunc answers one call.
type HandlerFunc func(call Call) Response

// Server is an [httptest.Server] that serves registered Babel routes.
//
// MaxBytes, ArgHeader and ResultHeader may be changed before the first request.
type Server struct {
	*httptest.Server
	routes map[string]HandlerFunc
	calls  []Call

	// ArgHeader names the header carrying upload and download arguments.
	ArgHeader string
	// ResultHeader names the header a [Download] response carries its result in.
	ResultHeader string
	// MaxBytes, if positive, limits request bodies; larger ones get 413.
	MaxBytes int64

	mu sync.Mutex
}

// NewServer starts a [Server] with no routes.
func NewServer() *Server {
	s := &Server{
		routes:       make(map[string]HandlerFunc),
		ArgHeader:    babel.DefaultArgHeader,
		ResultHeader: babel.DefaultResultHeader,
	}

	s.Server = httptest.NewServer(s)

	return s
}

// Handle registers fn for route, replacing any previous handler.
func (s *Server) Handle(route string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.routes[strings.TrimPrefix(route, "/")] = fn
}

// Calls returns the calls received so far, oldest first.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Call, len(s.calls))
	copy(out, s.calls)

	return out
}

// Config returns a [babel.DefaultConfig] with every host pointed at the server.
func (s *Server) Config() babel.Config {
	cfg := babel.DefaultConfig()
	cfg.Hosts = maps.Clone(cfg.Hosts)

	for host := range cfg.Hosts {
		cfg.Hosts[host] = s.URL
	}

	cfg.ArgHeader = s.ArgHeader
	cfg.ResultHeader = s.ResultHeader

	return cfg
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		resp.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body := req.Body

	if s.MaxBytes > 0 {
		body = http.MaxBytesReader(resp, body, s.MaxBytes)
	}

	// Read the whole body before writing anything back
	var buffer bytes.Buffer

	if _, err := buffer.ReadFrom(body); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			resp.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}

		resp.WriteHeader(http.StatusBadRequest)

		return
	}

	call := Call{
		Route:  strings.TrimPrefix(req.URL.Path, "/"),
		Header: req.Header.Clone(),
		Body:   buffer.Bytes(),
		Arg:    req.Header.Get(s.ArgHeader),
	}

	if req.Header.Get("Content-Type") == "application/json" {
		call.Arg = buffer.String()
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	fn, ok := s.routes[call.Route]
	s.mu.Unlock()

	if !ok {
		s.write(resp, Text(http.StatusBadRequest, fmt.Sprintf("babeltest: no handler for route %q", call.Route)))
		return
	}

	s.write(resp, fn(call))
}

func (s *Server) write(resp http.ResponseWriter, r Response) {
	for k, v := range r.Header {
		resp.Header()[k] = v
	}

	if r.Status == 0 {
		r.Status = http.StatusOK
	}

	resp.WriteHeader(r.Status)

	if len(r.Body) > 0 {
		_, _ = resp.Write(r.Body)
	}
}
