package babel

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"
)

// ErrUnknownHost is returned when a route names a host missing from [Config.Hosts].
var ErrUnknownHost = errors.New("babel: unknown host")

// HTTPDoer is the part of [*http.Client] a [Client] needs. TLS, connection
// pooling, timeouts and retries are the doer's concern.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures a [Client] in [NewClient].
type ClientOption func(*Client)

// WithHTTPDoer sets the HTTP implementation. Defaults to [http.DefaultClient].
func WithHTTPDoer(doer HTTPDoer) ClientOption {
	return func(c *Client) { c.doer = doer }
}

// WithHeaderFunc sets the per-request header source, typically [BearerToken].
func WithHeaderFunc(fn HeaderFunc) ClientOption {
	return func(c *Client) { c.headers = fn }
}

// WithLogger sets the logger for exchange debug lines. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithCallbacks replaces the client's [Callbacks], including the default
// [DefaultOnProtocolError].
func WithCallbacks(cb Callbacks) ClientOption {
	return func(c *Client) { c.callbacks = cb }
}

// WithAssertion sets the validation policy returned by [Client.Assertion].
// Defaults to [FailFast].
func WithAssertion(a Assertion) ClientOption {
	return func(c *Client) { c.assertion = a }
}

// Client issues Babel requests. It maps logical hosts to base URLs, attaches
// per-request headers and bounds the number of concurrent exchanges.
//
// Client is goroutine-safe. Its configuration cannot change after [NewClient].
//
// Example:
//
//	client, err := babel.NewClient(babel.DefaultConfig(), babel.WithHeaderFunc(babel.BearerToken(token)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	req, err := babel.NewRPCRequest(client, getMetadataRoute, GetMetadataArg{Path: "/Photos"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	meta, err := req.Do(ctx)
type Client struct {
	doer      HTTPDoer
	headers   HeaderFunc
	logger    *slog.Logger
	assertion Assertion
	pool      *exchangePool
	callbacks Callbacks
	config    Config
}

// NewClient validates cfg and builds a [Client]. The host map is copied, so
// later changes to cfg have no effect.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	cfg = cfg.withDefaults()
	cfg.Hosts = maps.Clone(cfg.Hosts)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:    cfg,
		doer:      http.DefaultClient,
		logger:    slog.Default(),
		assertion: FailFast,
		callbacks: Callbacks{OnProtocolError: DefaultOnProtocolError},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.doer == nil {
		return nil, fmt.Errorf("%w: nil HTTPDoer", ErrConfig)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.assertion == nil {
		c.assertion = FailFast
	}

	pool, err := newExchangePool(cfg.MaxInFlight, cfg.IdleTimeout)
	if err != nil {
		return nil, err
	}

	c.pool = pool

	return c, nil
}

// URL resolves path against the base URL of host.
func (c *Client) URL(host, path string) (string, error) {
	base, ok := c.config.Hosts[host]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownHost, host)
	}

	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/"), nil
}

// Assertion returns the validation policy to pass to validator constructors.
func (c *Client) Assertion() Assertion {
	return c.assertion
}

// InFlight reports the number of exchanges currently holding a slot.
func (c *Client) InFlight() int {
	return int(c.pool.inFlight())
}

// Close releases the client's exchange slots, waiting for running exchanges
// to finish. Requests started after Close fail with a [TransportError].
// It is safe to call Close multiple times.
func (c *Client) Close() {
	c.pool.close()
}
