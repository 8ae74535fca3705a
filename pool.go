package babel

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/jackc/puddle/v2"
)

// maxRetainedBuffer is the largest response buffer a slot keeps between exchanges.
const maxRetainedBuffer = 1 << 20

// exchangeSlot is the per-exchange scratch space handed out by [exchangePool].
type exchangeSlot struct {
	buf bytes.Buffer
}

// exchangePool bounds the number of concurrent exchanges of a [Client] and
// recycles their response buffers. Slots unused for longer than the idle
// timeout are destroyed.
type exchangePool struct {
	pool   *puddle.Pool[*exchangeSlot] // Underlying pool from github.com/jackc/puddle/v2
	idle   *time.Timer                 // Timer for destroying idle slots
	closed bool                        // Flag indicating if close() has been called
	mu     sync.Mutex                  // Protects access to closed flag and idle timer
}

func newExchangePool(maxSize int32, idleTimeout time.Duration) (*exchangePool, error) {
	pool, err := puddle.NewPool[*exchangeSlot](&puddle.Config[*exchangeSlot]{
		Constructor: func(context.Context) (*exchangeSlot, error) {
			return new(exchangeSlot), nil
		},
		Destructor: func(*exchangeSlot) {},
		MaxSize:    maxSize,
	})

	if err != nil {
		return nil, err
	}

	ep := &exchangePool{pool: pool}

	if idleTimeout > 0 {
		ep.idle = time.AfterFunc(idleTimeout, func() {
			ep.mu.Lock()
			defer ep.mu.Unlock()

			if ep.closed {
				return
			}

			nextWait := idleTimeout

			for _, res := range ep.pool.AcquireAllIdle() {
				idleTime := res.IdleDuration()
				if idleTime >= idleTimeout {
					res.Destroy()
				} else {
					// Acquiring resets the idle clock; give the slot back untouched.
					res.ReleaseUnused()

					nextWait = min(nextWait, idleTimeout-idleTime)
				}
			}

			ep.idle.Reset(nextWait)
		})
	}

	return ep, nil
}

// acquire blocks until a slot is free or ctx is done.
func (ep *exchangePool) acquire(ctx context.Context) (*puddle.Resource[*exchangeSlot], error) {
	return ep.pool.Acquire(ctx)
}

// release returns a slot to the pool. Slots that grew an oversized buffer are
// destroyed instead so one large response does not pin memory.
func (ep *exchangePool) release(res *puddle.Resource[*exchangeSlot]) {
	slot := res.Value()

	if slot.buf.Cap() > maxRetainedBuffer {
		res.Destroy()
		return
	}

	slot.buf.Reset()
	res.Release()
}

// inFlight reports the number of slots currently acquired.
func (ep *exchangePool) inFlight() int32 {
	return ep.pool.Stat().AcquiredResources()
}

// close stops the idle timer and closes the pool, waiting for acquired slots
// to be released. It is safe to call close multiple times.
func (ep *exchangePool) close() {
	ep.mu.Lock()
	if ep.closed {
		ep.mu.Unlock()
		return
	}

	ep.closed = true

	if ep.idle != nil {
		ep.idle.Stop()
	}
	ep.mu.Unlock()

	ep.pool.Close()
}
