package mem

// buffer.go implements the write buffer and the memory controller: the
// machine's only truly concurrent subsystem. The execution thread enqueues
// writes and keeps running; a separate goroutine drains the buffer into
// main memory and reports each write's durability back to the cache, in the
// same mutex+condition-variable producer/consumer shape the front end uses
// for keyboard input (see internal/ioport/keyboard.go).

import (
	"context"
	"sync"

	"github.com/vn18/simulate/internal/word"
)

// BufferDepth is the write buffer's fixed capacity.
const BufferDepth = 4

// Element is one pending write: the address and word to commit, plus the
// cache line tag it belongs to so the controller can clear the line's dirty
// count once the write lands.
type Element struct {
	Addr    int
	Word    word.Word
	LineTag int
}

// Buffer is a bounded FIFO queue of pending writes. Full callers block on
// Push; empty callers block on Pop. Both conditions share one mutex.
type Buffer struct {
	mut      sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	elems    []Element
	closed   bool
}

// NewBuffer creates an empty write buffer.
func NewBuffer() *Buffer {
	b := &Buffer{elems: make([]Element, 0, BufferDepth)}
	b.notFull = sync.NewCond(&b.mut)
	b.notEmpty = sync.NewCond(&b.mut)

	return b
}

// Push enqueues elem, blocking while the buffer is at capacity. It returns
// false if the buffer has been closed (machine shutting down).
func (b *Buffer) Push(elem Element) bool {
	b.mut.Lock()
	defer b.mut.Unlock()

	for len(b.elems) == BufferDepth && !b.closed {
		b.notFull.Wait()
	}

	if b.closed {
		return false
	}

	b.elems = append(b.elems, elem)
	b.notEmpty.Signal()

	return true
}

// Pop dequeues the oldest element, blocking while the buffer is empty. ok is
// false only once the buffer is closed and drained.
func (b *Buffer) Pop() (elem Element, ok bool) {
	b.mut.Lock()
	defer b.mut.Unlock()

	for len(b.elems) == 0 && !b.closed {
		b.notEmpty.Wait()
	}

	if len(b.elems) == 0 {
		return Element{}, false
	}

	elem, b.elems = b.elems[0], b.elems[1:]
	b.notFull.Signal()

	return elem, true
}

// Len reports the current queue depth; used by tests and by front ends that
// want to surface buffer occupancy.
func (b *Buffer) Len() int {
	b.mut.Lock()
	defer b.mut.Unlock()

	return len(b.elems)
}

// Close marks the buffer closed and wakes any blocked Push/Pop callers.
// Already-queued elements remain poppable until drained.
func (b *Buffer) Close() {
	b.mut.Lock()
	defer b.mut.Unlock()

	b.closed = true
	b.notFull.Broadcast()
	b.notEmpty.Broadcast()
}

// Controller is the memory-controller goroutine: it pops elements off a
// Buffer, commits each to main Memory, and reports the write durable back to
// the Cache so the line's dirty count can drop and, if it reaches zero,
// unblock any eviction stalled on Cache.Add.
type Controller struct {
	mem  *Memory
	buf  *Buffer
	cch  *Cache
	done chan struct{}
}

// NewController wires a controller to drain buf into mem, notifying cch of
// each completed write.
func NewController(mem *Memory, buf *Buffer, cch *Cache) *Controller {
	return &Controller{mem: mem, buf: buf, cch: cch, done: make(chan struct{})}
}

// Run drains the write buffer until ctx is cancelled or the buffer is
// closed and empty. Intended to be launched with `go controller.Run(ctx)`
// exactly once for the lifetime of a running machine.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		elem, ok := c.buf.Pop()
		if !ok {
			return
		}

		// A write that races a concurrent shutdown and misses its
		// target range is dropped rather than faulted: by the time
		// the controller drains it the execution thread may already
		// be gone, and there is no one left to route a fault to.
		_ = c.mem.Write(elem.Addr, elem.Word)

		c.cch.updateWrites(elem.LineTag, -1)
	}
}

// Done returns a channel closed once Run has returned.
func (c *Controller) Done() <-chan struct{} { return c.done }
