/*package device provides the host/accelerator split of the solver.

The accelerator is modelled as an in-process command queue: kernels are
enqueued in FIFO order and executed data-parallel across a worker pool.
Buffers own their residency state, so the rest of the code never has to
know which side currently holds the authoritative copy. When the context
is inactive every operation degenerates to a direct call on the host
slice.
*/
package device

import (
	"errors"
	"runtime"
	"sync"
)

// ErrUnavailable is returned when the requested compute device cannot be
// set up. Callers are expected to fall back to the host path.
var ErrUnavailable = errors.New("compute device unavailable")

// Side names the authoritative copy of a buffer.
type Side int

const (
	Host Side = iota
	Dev
)

// Direction of an explicit buffer copy.
type Direction int

const (
	HostToDev Direction = iota
	DevToHost
)

// Context is the compute context threaded through map and field
// construction. A nil or inactive context selects the plain host path.
type Context struct {
	active  bool
	workers int

	queue chan func()
	wg    sync.WaitGroup
}

// New creates a compute context. selector <= 0 requests the host path;
// any positive selector activates the in-process device with one worker
// per core. An error is only possible for selectors naming devices that
// do not exist (there is exactly one).
func New(selector int) (*Context, error) {
	if selector <= 0 {
		return &Context{}, nil
	}
	if selector > 1 {
		return nil, ErrUnavailable
	}

	ctx := &Context{
		active:  true,
		workers: runtime.NumCPU(),
		queue:   make(chan func(), 64),
	}
	go func() {
		for f := range ctx.queue {
			f()
			ctx.wg.Done()
		}
	}()
	return ctx, nil
}

// Active reports whether kernels run on the device queue.
func (ctx *Context) Active() bool {
	return ctx != nil && ctx.active
}

// Enqueue schedules a data-parallel kernel over n items. On the host path
// the kernel runs inline. On the device path it is appended to the FIFO
// and fanned out across the worker pool; Enqueue returns without waiting.
func (ctx *Context) Enqueue(n int, kernel func(lo, hi int)) {
	if !ctx.Active() {
		kernel(0, n)
		return
	}

	ctx.wg.Add(1)
	ctx.queue <- func() {
		var kwg sync.WaitGroup
		chunk := (n + ctx.workers - 1) / ctx.workers
		for lo := 0; lo < n; lo += chunk {
			hi := lo + chunk
			if hi > n {
				hi = n
			}
			kwg.Add(1)
			go func(lo, hi int) {
				kernel(lo, hi)
				kwg.Done()
			}(lo, hi)
		}
		kwg.Wait()
	}
}

// Finish blocks until every enqueued kernel has completed.
func (ctx *Context) Finish() {
	if ctx.Active() {
		ctx.wg.Wait()
	}
}

// Close drains the queue and stops the runner goroutine.
func (ctx *Context) Close() {
	if ctx.Active() {
		ctx.wg.Wait()
		close(ctx.queue)
		ctx.active = false
	}
}

// Buffer is a float64 array with a host and a device copy. Exactly one
// side is authoritative at a time; reads through ReadOnHost/ReadOnDevice
// trigger the copy when producer and consumer disagree.
type Buffer struct {
	ctx   *Context
	host  []float64
	dev   []float64
	owner Side
	dirty bool
}

// NewBuffer wraps an existing host slice. The device copy is only
// allocated on an active context.
func (ctx *Context) NewBuffer(host []float64) *Buffer {
	buf := &Buffer{ctx: ctx, host: host, owner: Host}
	if ctx.Active() {
		buf.dev = make([]float64, len(host))
		copy(buf.dev, host)
	}
	return buf
}

// Host returns the raw host slice without synchronisation. Callers must
// hold ownership on the host side.
func (buf *Buffer) Host() []float64 { return buf.host }

// ReadOnHost synchronises the buffer to the host side and returns the
// host slice. Pending kernels are drained first.
func (buf *Buffer) ReadOnHost() []float64 {
	if buf.owner == Dev && buf.dirty {
		buf.Sync(DevToHost)
	}
	return buf.host
}

// ReadOnDevice synchronises the buffer to the device side. On an inactive
// context this is the host slice.
func (buf *Buffer) ReadOnDevice() []float64 {
	if !buf.ctx.Active() {
		return buf.host
	}
	if buf.owner == Host && buf.dirty {
		buf.Sync(HostToDev)
	}
	return buf.dev
}

// MarkWritten records that side now holds the only valid copy.
func (buf *Buffer) MarkWritten(side Side) {
	buf.owner = side
	buf.dirty = true
}

// Sync copies in the given direction and flips ownership. It is a no-op
// when the source side is not dirty or the context is inactive.
func (buf *Buffer) Sync(dir Direction) {
	if !buf.ctx.Active() || !buf.dirty {
		return
	}
	buf.ctx.Finish()
	switch dir {
	case HostToDev:
		if buf.owner == Host {
			copy(buf.dev, buf.host)
			buf.owner = Dev
			buf.dirty = false
		}
	case DevToHost:
		if buf.owner == Dev {
			copy(buf.host, buf.dev)
			buf.owner = Host
			buf.dirty = false
		}
	}
}
