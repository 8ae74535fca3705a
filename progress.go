package babel

import (
	"io"
	"sync"
)

// ProgressFunc receives transfer progress of upload and download requests:
// bytes moved since the previous call, bytes moved in total, and the expected
// total (-1 if unknown).
//
// totalSent never decreases. On success the last call reports totalSent equal
// to the final size. Progress calls never follow the completion hook.
type ProgressFunc func(sent, totalSent, expected int64)

// progressGate serializes progress reports and shuts them off once the request
// completes. A report running when the gate closes finishes before close returns.
type progressGate struct {
	fn       ProgressFunc
	total    int64
	expected int64
	reported bool
	closed   bool
	mu       sync.Mutex
}

func (g *progressGate) set(fn ProgressFunc) {
	g.mu.Lock()
	g.fn = fn
	g.mu.Unlock()
}

// start resets the counters for a transfer of expected bytes.
func (g *progressGate) start(expected int64) {
	g.mu.Lock()
	g.total, g.expected, g.reported = 0, expected, false
	g.mu.Unlock()
}

func (g *progressGate) add(n int64) {
	if n <= 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.total += n

	if g.closed || g.fn == nil {
		return
	}

	g.reported = true
	g.fn(n, g.total, g.expected)
}

// finish makes sure a successful transfer ends with a report of the final total,
// even for empty bodies.
func (g *progressGate) finish() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || g.fn == nil || g.reported {
		return
	}

	g.reported = true
	g.fn(0, g.total, g.expected)
}

func (g *progressGate) close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

// progressReader reports every successful Read to a gate.
type progressReader struct {
	r    io.Reader
	gate *progressGate
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.gate.add(int64(n))

	return n, err
}

// progressWriter reports every successful Write to a gate.
type progressWriter struct {
	w    io.Writer
	gate *progressGate
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.gate.add(int64(n))

	return n, err
}
