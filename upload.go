package babel

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// UploadBody is the binary payload of an upload request. Build one with
// [BytesBody], [FileBody] or [StreamBody].
type UploadBody interface {
	// open returns the payload reader and its size, or -1 if unknown.
	open() (io.ReadCloser, int64, error)
}

type bytesBody []byte

func (b bytesBody) open() (io.ReadCloser, int64, error) {
	return io.NopCloser(bytes.NewReader(b)), int64(len(b)), nil
}

// BytesBody uploads data held in memory. data must not change until the
// request completes.
func BytesBody(data []byte) UploadBody {
	return bytesBody(data)
}

type fileBody string

func (f fileBody) open() (io.ReadCloser, int64, error) {
	file, err := os.Open(string(f))
	if err != nil {
		return nil, 0, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, 0, err
	}

	if info.IsDir() {
		_ = file.Close()
		return nil, 0, fmt.Errorf("%s: is a directory", f)
	}

	return file, info.Size(), nil
}

// FileBody uploads the file at path. The file is opened when the request starts
// and closed when the exchange ends.
func FileBody(path string) UploadBody {
	return fileBody(path)
}

type streamBody struct {
	r    io.Reader
	size int64
}

func (s streamBody) open() (io.ReadCloser, int64, error) {
	if s.size < 0 {
		s.size = -1
	}

	return io.NopCloser(s.r), s.size, nil
}

// StreamBody uploads everything read from r. size is the number of bytes r
// will yield, or -1 if unknown. r is not closed.
func StreamBody(r io.Reader, size int64) UploadBody {
	return streamBody{r: r, size: size}
}

// NewUploadRequest prepares a call of an upload-style route: body is sent as
// the request payload, the argument travels ASCII-escaped in the arg header and
// the result is read from the JSON response body.
//
// Argument serialization and validation failures are returned here and no
// exchange is issued.
func NewUploadRequest[A, R, E any](c *Client, route Route[A, R, E], arg A, body UploadBody) (*Request[R, E], error) {
	if body == nil {
		return nil, fmt.Errorf("%w: route %q: nil upload body", ErrConfig, route.Name)
	}

	info, err := route.prepare(c, StyleUpload)
	if err != nil {
		return nil, err
	}

	hdr, err := headerArg(route, arg)
	if err != nil {
		return nil, err
	}

	return newRequest(c, info, uploadShape{body: body, arg: hdr}, decodeBody(route.Result), route.Error), nil
}

// headerArg serializes arg for transport in an HTTP header.
func headerArg[A, R, E any](route Route[A, R, E], arg A) (string, error) {
	v, err := route.serializeArg(arg)
	if err != nil {
		return "", err
	}

	b, err := DumpASCII(v)
	if err != nil {
		return "", fmt.Errorf("route %q argument: %w", route.Name, err)
	}

	return string(b), nil
}
