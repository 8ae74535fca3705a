package babel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxReadBack bounds how much of a failed download is kept as the error body.
const maxReadBack = 64 << 10

// errNoResultHeader is the protocol error for a download without a result header.
var errNoResultHeader = errors.New("missing result header")

// Destination receives the payload of a download request. Build one with
// [ToMemory], [ToFile] or [ToWriter].
//
// If the exchange fails, whatever the server sent, typically a JSON error
// body, has been written to the destination.
type Destination interface {
	open() (sink, error)
}

// sink is an opened [Destination].
type sink interface {
	io.Writer
	close() error
	// readBack returns the start of what was written, using buf as scratch
	// space where needed.
	readBack(buf *bytes.Buffer) []byte
}

type memoryDest struct{}

// ToMemory collects the payload in memory; it is returned in [Downloaded.Bytes].
func ToMemory() Destination {
	return memoryDest{}
}

func (memoryDest) open() (sink, error) {
	return &memorySink{}, nil
}

type memorySink struct {
	bytes.Buffer
}

func (m *memorySink) close() error { return nil }

func (m *memorySink) readBack(*bytes.Buffer) []byte {
	return m.Bytes()
}

type fileDest string

// ToFile writes the payload to the file at path, creating or truncating it.
// The path is returned in [Downloaded.Path].
func ToFile(path string) Destination {
	return fileDest(path)
}

func (f fileDest) open() (sink, error) {
	file, err := os.Create(string(f))
	if err != nil {
		return nil, err
	}

	return &fileSink{File: file, path: string(f)}, nil
}

type fileSink struct {
	*os.File
	path string
}

func (f *fileSink) close() error {
	return f.File.Close()
}

func (f *fileSink) readBack(buf *bytes.Buffer) []byte {
	file, err := os.Open(f.path)
	if err != nil {
		return nil
	}

	defer file.Close()

	buf.Reset()
	_, _ = buf.ReadFrom(io.LimitReader(file, maxReadBack))

	return buf.Bytes()
}

type writerDest struct {
	w io.Writer
}

// ToWriter streams the payload to w. w is not closed.
func ToWriter(w io.Writer) Destination {
	return writerDest{w: w}
}

func (d writerDest) open() (sink, error) {
	if d.w == nil {
		return nil, fmt.Errorf("%w: nil download writer", ErrConfig)
	}

	return &writerSink{w: d.w}, nil
}

// writerSink forwards to a caller's writer and keeps the first bytes so a
// failed download can still be classified.
type writerSink struct {
	w       io.Writer
	capture []byte
}

func (s *writerSink) Write(b []byte) (int, error) {
	if room := maxReadBack - len(s.capture); room > 0 {
		s.capture = append(s.capture, b[:min(room, len(b))]...)
	}

	return s.w.Write(b)
}

func (s *writerSink) close() error { return nil }

func (s *writerSink) readBack(*bytes.Buffer) []byte {
	return s.capture
}

// Downloaded is the success value of a download request.
type Downloaded[R any] struct {
	// Result is the route result carried in the result header.
	Result R
	// Bytes holds the payload for [ToMemory] destinations.
	Bytes []byte
	// Path is the file written for [ToFile] destinations.
	Path string
	// Size is the number of payload bytes received.
	Size int64
}

// NewDownloadRequest prepares a call of a download-style route: the argument
// travels ASCII-escaped in the arg header, the payload is streamed into dest
// and the result is read from the result header.
//
// Argument serialization and validation failures are returned here and no
// exchange is issued.
func NewDownloadRequest[A, R, E any](c *Client, route Route[A, R, E], arg A, dest Destination) (*Request[Downloaded[R], E], error) {
	if dest == nil {
		return nil, fmt.Errorf("%w: route %q: nil download destination", ErrConfig, route.Name)
	}

	info, err := route.prepare(c, StyleDownload)
	if err != nil {
		return nil, err
	}

	hdr, err := headerArg(route, arg)
	if err != nil {
		return nil, err
	}

	return newRequest(c, info, downloadShape{dest: dest, arg: hdr}, decodeDownload(route.Result, c.config.ResultHeader), route.Error), nil
}

// decodeDownload decodes the result header with s and describes the payload.
func decodeDownload[R any](s Serializer[R], header string) decodeFunc[Downloaded[R]] {
	return func(o *outcome) (Downloaded[R], error) {
		var d Downloaded[R]

		raw := o.header.Get(header)
		if raw == "" {
			return d, fmt.Errorf("%w: %s", errNoResultHeader, header)
		}

		v, err := Parse([]byte(raw))
		if err != nil {
			return d, fmt.Errorf("result header: %w", err)
		}

		if d.Result, err = s.Deserialize(v); err != nil {
			return d, err
		}

		d.Size = o.written

		switch dst := o.sink.(type) {
		case *memorySink:
			d.Bytes = dst.Bytes()
		case *fileSink:
			d.Path = dst.path
		}

		return d, nil
	}
}
