// Package babel is the client runtime for Babel, a JSON-over-HTTP RPC protocol.
// Generated route code builds on it to call a Babel API.
//
// # Overview
//
// A Babel API is a set of routes. Each route is an HTTP POST to a path below one
// of a few logical hosts, with a typed argument, a typed result and a typed
// route error. Every type crosses the wire as JSON. The package is split into
// four parts:
//
//   - The JSON model: [Value] and its variants ([Object], [Array], [String],
//     [Number], [Bool], [Null]), with [Parse], [Dump] and [DumpASCII].
//   - Serializers: [Serializer] converts native values to and from [Value].
//     Primitive, array, nullable, union and date serializers are provided;
//     struct serializers are written with [SerializerFuncs], [Field] and [PutField].
//   - Validators: [Validator] checks native values against constraints
//     (length, pattern, range, item count) under an injected [Assertion].
//   - Transport: a [Client] issues [Request]s for [Route]s in one of three
//     styles (RPC, upload, download) and classifies failures into a [CallError].
//
// # Features
//
//   - Exact JSON numbers: [Number] keeps the literal text, so 64-bit integers
//     never pass through float64.
//   - Header-safe arguments: upload and download arguments are sent ASCII-escaped.
//   - Strftime date patterns: [NewDateSerializer] formats and parses timestamps.
//   - Pluggable HTTP: any [HTTPDoer] can carry the exchange.
//   - Bounded concurrency: [Config.MaxInFlight] caps concurrent exchanges per [Client].
//   - Cancellation and progress: [Request.Cancel], [Request.OnProgress].
//   - Hooks: [Callbacks] observe requests, completions and protocol violations.
//   - Testing: package babeltest provides an in-process server.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"context"
//		"log"
//		"os"
//
//		"github.com/rrb3942/babel"
//	)
//
//	var getSize = babel.Route[string, uint64, babel.Value]{
//		Name:   "files/get_size",
//		Host:   babel.HostAPI,
//		Style:  babel.StyleRPC,
//		Arg:    babel.StringSerializer{},
//		Result: babel.Uint64Serializer{},
//		Error:  babel.ValueSerializer{},
//	}
//
//	func main() {
//		cfg, err := babel.LoadConfig("babel.yaml")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		client, err := babel.NewClient(cfg, babel.WithHeaderFunc(babel.BearerToken(os.Getenv("BABEL_TOKEN"))))
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer client.Close()
//
//		req, err := babel.NewRPCRequest(client, getSize, "/Photos/cat.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		size, err := req.Do(context.Background())
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		log.Printf("size: %d", size)
//	}
//
// # Errors
//
// A failed [Request] completes with a [*CallError]. Its Kind says which failure
// happened, and [errors.Is] matches the sentinel for that kind:
//
//	size, err := req.Do(ctx)
//
//	var cerr *babel.CallError[GetSizeError]
//	switch {
//	case errors.As(err, &cerr) && cerr.Kind == babel.RouteError:
//		// cerr.Route is the decoded route error
//	case errors.Is(err, babel.ErrRateLimit):
//		// back off for cerr.RetryAfter
//	case errors.Is(err, babel.ErrProtocol):
//		// the server sent something this client cannot interpret
//	}
package babel
