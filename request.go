package babel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrAlreadyStarted is returned by [Request.Start] and [Request.Do] on a request
// that has already been started. Requests are single use; retry with a new one.
var ErrAlreadyStarted = errors.New("babel: request already started")

// shape is the transport-specific part of a [Request]: exactly one of
// [rpcShape], [uploadShape] or [downloadShape].
type shape interface {
	isShape()
}

// rpcShape sends the dumped argument as a JSON body.
type rpcShape struct {
	body []byte
}

// uploadShape sends body as binary data with the argument in a header.
type uploadShape struct {
	body UploadBody
	arg  string
}

// downloadShape sends no body, the argument in a header, and streams the
// response into dest.
type downloadShape struct {
	dest Destination
	arg  string
}

func (rpcShape) isShape()      {}
func (uploadShape) isShape()   {}
func (downloadShape) isShape() {}

// outcome is what a finished exchange hands to a result decoder.
type outcome struct {
	header  http.Header
	body    []byte
	sink    sink
	written int64
}

// decodeFunc turns a successful outcome into the native result.
type decodeFunc[R any] func(o *outcome) (R, error)

// Request is one call of a route. It is created by [NewRPCRequest],
// [NewUploadRequest] or [NewDownloadRequest] and moves once through
// Created -> InFlight -> Completed; it cannot be restarted.
//
// The completion hook passed to [Request.Start] is called exactly once, on the
// request's own goroutine, with either the decoded result or a [*CallError].
// Cancelling the request, through its context or [Request.Cancel], completes it
// with a [TransportError].
type Request[R, E any] struct {
	client   *Client
	shape    shape
	decode   decodeFunc[R]
	errSer   Serializer[E]
	cancel   context.CancelFunc
	done     chan struct{}
	route    routeInfo
	progress progressGate
	mu       sync.Mutex
	started  bool
	canceled bool
}

func newRequest[R, E any](c *Client, route routeInfo, sh shape, decode decodeFunc[R], errSer Serializer[E]) *Request[R, E] {
	return &Request[R, E]{
		client: c,
		route:  route,
		shape:  sh,
		decode: decode,
		errSer: errSer,
		done:   make(chan struct{}),
	}
}

// Route returns the name of the route the request calls.
func (r *Request[R, E]) Route() string {
	return r.route.name
}

// OnProgress registers fn to receive transfer progress. Only upload and download
// requests report progress. It may be called before or during the exchange.
func (r *Request[R, E]) OnProgress(fn ProgressFunc) {
	r.progress.set(fn)
}

// Start issues the exchange in a new goroutine and returns immediately.
// completion may be nil. Calling Start a second time returns [ErrAlreadyStarted].
func (r *Request[R, E]) Start(ctx context.Context, completion func(R, *CallError[E])) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}

	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	if r.canceled {
		r.cancel()
	}
	r.mu.Unlock()

	go r.run(ctx, completion)

	return nil
}

// Do starts the request and waits for it to complete.
//
// On failure the returned error is the request's [*CallError], or
// [ErrAlreadyStarted].
func (r *Request[R, E]) Do(ctx context.Context) (R, error) {
	var (
		result R
		cerr   *CallError[E]
	)

	if err := r.Start(ctx, func(v R, e *CallError[E]) { result, cerr = v, e }); err != nil {
		return result, err
	}

	<-r.done

	if cerr != nil {
		return result, cerr
	}

	return result, nil
}

// Cancel aborts the request. An in-flight request completes with a
// [TransportError] wrapping [context.Canceled]; a request not yet started will
// complete that way as soon as it is started. Cancel after completion does nothing.
func (r *Request[R, E]) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.canceled = true

	if r.cancel != nil {
		r.cancel()
	}
}

// Done is closed once the completion hook has returned.
func (r *Request[R, E]) Done() <-chan struct{} {
	return r.done
}

func (r *Request[R, E]) run(ctx context.Context, completion func(R, *CallError[E])) {
	defer close(r.done)

	start := time.Now()
	c := r.client

	c.logger.DebugContext(ctx, "Babel exchange started", "route", r.route.name, "style", r.route.style)

	result, status, cerr := r.exchange(ctx)

	r.cancel()
	r.progress.close()

	elapsed := time.Since(start)

	if cerr != nil {
		c.logger.DebugContext(ctx, "Babel exchange failed", "route", r.route.name, "status", status, "elapsed", elapsed, "error", cerr)
		c.callbacks.runOnComplete(ctx, r.route.name, status, elapsed, cerr)
	} else {
		c.logger.DebugContext(ctx, "Babel exchange finished", "route", r.route.name, "status", status, "elapsed", elapsed)
		c.callbacks.runOnComplete(ctx, r.route.name, status, elapsed, nil)
	}

	if completion != nil {
		completion(result, cerr)
	}
}

// exchange performs the HTTP exchange and interprets its outcome. It returns
// the result or the classified error, and the HTTP status (0 if none).
func (r *Request[R, E]) exchange(ctx context.Context) (R, int, *CallError[E]) {
	var zero R

	c := r.client

	slot, err := c.pool.acquire(ctx)
	if err != nil {
		return zero, 0, transportFailure[E](err)
	}

	defer c.pool.release(slot)

	req, err := r.newHTTPRequest(ctx)
	if err != nil {
		return zero, 0, transportFailure[E](err)
	}

	c.callbacks.runOnRequest(ctx, r.route.name, req)

	resp, err := c.doer.Do(req)
	if err != nil {
		return zero, 0, transportFailure[E](err)
	}

	defer resp.Body.Close()

	x := Exchange{StatusCode: resp.StatusCode, Header: resp.Header}
	o := &outcome{header: resp.Header}
	buf := &slot.Value().buf
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	switch sh := r.shape.(type) {
	case rpcShape, uploadShape:
		if _, err := buf.ReadFrom(resp.Body); err != nil {
			x.Err = fmt.Errorf("reading response body: %w", err)
		}

		o.body = buf.Bytes()
	case downloadShape:
		dst, err := sh.dest.open()
		if err != nil {
			return zero, resp.StatusCode, transportFailure[E](err)
		}

		var w io.Writer = dst

		if ok {
			r.progress.start(resp.ContentLength)
			w = &progressWriter{w: dst, gate: &r.progress}
		}

		o.sink = dst
		o.written, err = io.Copy(w, resp.Body)

		if closeErr := dst.close(); err == nil && closeErr != nil {
			err = closeErr
		}

		if err != nil {
			x.Err = fmt.Errorf("writing download: %w", err)
		}

		// Error payloads arrive as ordinary body content; read back what landed.
		if !ok || x.Err != nil {
			o.body = dst.readBack(buf)
		}
	}

	x.Body = o.body

	if ok && x.Err == nil {
		result, err := r.decode(o)
		if err != nil {
			c.callbacks.runOnProtocolError(ctx, r.route.name, err)
			return zero, resp.StatusCode, protocolFailure[E](x, c.config.RequestIDHeader, err)
		}

		if _, isRPC := r.shape.(rpcShape); !isRPC {
			r.progress.finish()
		}

		return result, resp.StatusCode, nil
	}

	cerr, err := classify(x, r.errSer, c.config.RequestIDHeader)
	if err != nil {
		c.callbacks.runOnProtocolError(ctx, r.route.name, err)
		return zero, resp.StatusCode, protocolFailure[E](x, c.config.RequestIDHeader, err)
	}

	return zero, resp.StatusCode, cerr
}

// newHTTPRequest builds the HTTP request for the request's shape.
func (r *Request[R, E]) newHTTPRequest(ctx context.Context) (*http.Request, error) {
	var (
		body     io.Reader
		size     int64
		ctype    string
		argValue string
	)

	switch sh := r.shape.(type) {
	case rpcShape:
		body, size, ctype = bytes.NewReader(sh.body), int64(len(sh.body)), "application/json"
	case uploadShape:
		rc, n, err := sh.body.open()
		if err != nil {
			return nil, fmt.Errorf("opening upload body: %w", err)
		}

		r.progress.start(n)

		size, ctype, argValue = n, "application/octet-stream", sh.arg

		if n == 0 {
			_ = rc.Close()
			body = http.NoBody
		} else {
			body = &progressReadCloser{progressReader{r: rc, gate: &r.progress}, rc}
		}
	case downloadShape:
		argValue = sh.arg
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.route.url, body)
	if err != nil {
		if closer, ok := body.(io.Closer); ok {
			_ = closer.Close()
		}

		return nil, err
	}

	if size > 0 {
		req.ContentLength = size
	}

	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}

	if argValue != "" {
		req.Header.Set(r.client.config.ArgHeader, argValue)
	}

	if err := r.client.applyHeaders(req, r.route.noauth); err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}

		return nil, fmt.Errorf("building headers: %w", err)
	}

	return req, nil
}

// progressReadCloser is a [progressReader] that closes the underlying body.
type progressReadCloser struct {
	progressReader
	io.Closer
}
