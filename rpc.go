package babel

import (
	"bytes"
	"fmt"
)

// NewRPCRequest prepares a call of an RPC-style route: the argument is sent as
// a JSON body and the result is read from the JSON response body.
//
// Argument serialization and validation failures are returned here and no
// exchange is issued. Nothing is sent until [Request.Start] or [Request.Do].
func NewRPCRequest[A, R, E any](c *Client, route Route[A, R, E], arg A) (*Request[R, E], error) {
	info, err := route.prepare(c, StyleRPC)
	if err != nil {
		return nil, err
	}

	v, err := route.serializeArg(arg)
	if err != nil {
		return nil, err
	}

	body, err := Dump(v)
	if err != nil {
		return nil, fmt.Errorf("route %q argument: %w", route.Name, err)
	}

	return newRequest(c, info, rpcShape{body: body}, decodeBody(route.Result), route.Error), nil
}

// decodeBody decodes a JSON response body with s. An empty body is read as null,
// which is what routes returning [Void] send.
func decodeBody[R any](s Serializer[R]) decodeFunc[R] {
	return func(o *outcome) (R, error) {
		var v Value = Null{}

		if len(bytes.TrimSpace(o.body)) > 0 {
			parsed, err := Parse(o.body)
			if err != nil {
				var zero R
				return zero, err
			}

			v = parsed
		}

		return s.Deserialize(v)
	}
}
