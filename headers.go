package babel

import (
	"context"
	"net/http"
)

// HeaderFunc supplies extra headers for one request, usually credentials.
//
// noauth is true for routes that must be called without credentials; the
// function should then return only non-credential headers, or none.
// A returned error aborts the request with a [TransportError].
type HeaderFunc func(ctx context.Context, noauth bool) (http.Header, error)

// BearerToken returns a [HeaderFunc] sending a fixed OAuth2 access token.
func BearerToken(token string) HeaderFunc {
	return BearerTokenFunc(func(context.Context) (string, error) { return token, nil })
}

// BearerTokenFunc returns a [HeaderFunc] that asks tokenFn for the current access
// token on every authenticated request. Token acquisition and refresh stay with
// the caller.
func BearerTokenFunc(tokenFn func(ctx context.Context) (string, error)) HeaderFunc {
	return func(ctx context.Context, noauth bool) (http.Header, error) {
		if noauth {
			return nil, nil
		}

		token, err := tokenFn(ctx)
		if err != nil {
			return nil, err
		}

		return http.Header{"Authorization": []string{"Bearer " + token}}, nil
	}
}

// ChainHeaders combines several [HeaderFunc]s. Later functions override headers
// set by earlier ones.
func ChainHeaders(fns ...HeaderFunc) HeaderFunc {
	return func(ctx context.Context, noauth bool) (http.Header, error) {
		out := http.Header{}

		for _, fn := range fns {
			h, err := fn(ctx, noauth)
			if err != nil {
				return nil, err
			}

			for k, v := range h {
				out[k] = v
			}
		}

		return out, nil
	}
}

// applyHeaders sets the client-wide and per-request headers on req.
func (c *Client) applyHeaders(req *http.Request, noauth bool) error {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	if c.headers == nil {
		return nil
	}

	extra, err := c.headers(req.Context(), noauth)
	if err != nil {
		return err
	}

	for k, v := range extra {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}

	return nil
}
