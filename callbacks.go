package babel

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// DefaultOnProtocolError logs protocol violations using the standard `slog` package.
// It is assigned to [Callbacks.OnProtocolError] by default when a [Client] is created,
// so responses that fail to decode are logged even if no custom callbacks are configured.
var DefaultOnProtocolError = func(ctx context.Context, route string, err error) {
	slog.WarnContext(ctx, "Babel protocol violation", "route", route, "error", err)
}

// Callbacks defines a set of functions a [Client] calls at specific points of
// every exchange. They are intended for logging, metrics or tracing and must be
// safe for concurrent use: exchanges run on their own goroutines.
//
// Callbacks must not modify the [Client]. OnRequest may add headers to req.
//
// Example:
//
//	client, err := babel.NewClient(cfg, babel.WithCallbacks(babel.Callbacks{
//	    OnComplete: func(ctx context.Context, route string, status int, elapsed time.Duration, err error) {
//	        requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
//	    },
//	    OnProtocolError: babel.DefaultOnProtocolError,
//	}))
type Callbacks struct {
	// OnRequest is called just before the HTTP request of a route is sent.
	OnRequest func(ctx context.Context, route string, req *http.Request)

	// OnComplete is called once per exchange, before the request's completion
	// hook. status is 0 if no response was received; err is the [*CallError]
	// delivered to the caller, or nil on success.
	OnComplete func(ctx context.Context, route string, status int, elapsed time.Duration, err error)

	// OnProtocolError is called when a response cannot be interpreted: a success
	// body that fails to decode, or an error body that cannot be classified.
	// The caller still receives a [TransportError] wrapping [ErrProtocol].
	// The default behavior is handled by [DefaultOnProtocolError].
	OnProtocolError func(ctx context.Context, route string, err error)
}

// runOnRequest calls the OnRequest callback if it is set.
func (c *Callbacks) runOnRequest(ctx context.Context, route string, req *http.Request) {
	if c.OnRequest != nil {
		c.OnRequest(ctx, route, req)
	}
}

// runOnComplete calls the OnComplete callback if it is set.
func (c *Callbacks) runOnComplete(ctx context.Context, route string, status int, elapsed time.Duration, err error) {
	if c.OnComplete != nil {
		c.OnComplete(ctx, route, status, elapsed, err)
	}
}

// runOnProtocolError calls the OnProtocolError callback if it is set.
func (c *Callbacks) runOnProtocolError(ctx context.Context, route string, err error) {
	if c.OnProtocolError != nil {
		c.OnProtocolError(ctx, route, err)
	}
}
