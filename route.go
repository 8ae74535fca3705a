package babel

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrRouteStyle is returned when a route is used with the wrong request constructor.
var ErrRouteStyle = errors.New("babel: route style mismatch")

// Style is the transport shape of a route.
type Style int

const (
	// StyleRPC sends the argument as a JSON body and receives a JSON body.
	StyleRPC Style = iota
	// StyleUpload sends binary data as the body and the argument in a header.
	StyleUpload
	// StyleDownload sends the argument in a header and receives binary data,
	// with the JSON result in a response header.
	StyleDownload
)

func (s Style) String() string {
	switch s {
	case StyleRPC:
		return "rpc"
	case StyleUpload:
		return "upload"
	case StyleDownload:
		return "download"
	}

	return "style(" + strconv.Itoa(int(s)) + ")"
}

// Route describes one remote operation: where it lives, how it is carried, and
// how its argument, result and error are encoded.
//
// Routes are plain values, normally declared once per endpoint:
//
//	var getMetadata = babel.Route[GetMetadataArg, Metadata, GetMetadataError]{
//	    Name:   "files/get_metadata",
//	    Host:   babel.HostAPI,
//	    Style:  babel.StyleRPC,
//	    Arg:    getMetadataArgSerializer,
//	    Result: metadataSerializer,
//	    Error:  getMetadataErrorSerializer,
//	}
type Route[A, R, E any] struct {
	Arg    Serializer[A]
	Result Serializer[R]
	Error  Serializer[E]

	// Name is the path of the route below its host's base URL, e.g. "files/upload".
	Name string
	// Host is the logical host key resolved through [Config.Hosts].
	Host string
	// Style selects the request constructor the route may be used with.
	Style Style
	// NoAuth routes are called without credentials.
	NoAuth bool
}

// routeInfo is the type-erased part of a [Route] a [Request] keeps.
type routeInfo struct {
	name   string
	url    string
	style  Style
	noauth bool
}

// prepare checks the route's style and resolves its URL.
func (r Route[A, R, E]) prepare(c *Client, want Style) (routeInfo, error) {
	if r.Style != want {
		return routeInfo{}, fmt.Errorf("%w: route %q is %s, not %s", ErrRouteStyle, r.Name, r.Style, want)
	}

	if r.Arg == nil || r.Result == nil || r.Error == nil {
		return routeInfo{}, fmt.Errorf("%w: route %q is missing a serializer", ErrConfig, r.Name)
	}

	url, err := c.URL(r.Host, r.Name)
	if err != nil {
		return routeInfo{}, fmt.Errorf("route %q: %w", r.Name, err)
	}

	return routeInfo{name: r.Name, url: url, style: r.Style, noauth: r.NoAuth}, nil
}

// serializeArg encodes arg with the route's argument serializer.
func (r Route[A, R, E]) serializeArg(arg A) (Value, error) {
	v, err := r.Arg.Serialize(arg)
	if err != nil {
		return nil, fmt.Errorf("route %q argument: %w", r.Name, err)
	}

	return v, nil
}
