// Package ioport implements the I/O & Interrupt Channel: a keyboard input
// buffer with a character pointer, and console output fan-out, wired to the
// execution engine through cpu.IOPort.
package ioport

import (
	"sync"

	"github.com/vn18/simulate/internal/word"
)

// Keyboard is the input half of the channel. It holds a buffer of characters
// and a pointer into it; IN consumes one character at a time from the front
// and resets both once the buffer is drained.
//
// Grounded on the teacher's Keyboard: Feed plays the role of Update,
// blocking a producer until the prior buffer has been fully consumed; Read
// never blocks, matching the driver's non-blocking Read.
type Keyboard struct {
	mut sync.Mutex

	// empty signals a Feed call waiting for the buffer to drain.
	empty *sync.Cond

	buf []word.Word
	pos int
}

// NewKeyboard creates an empty keyboard buffer.
func NewKeyboard() *Keyboard {
	k := &Keyboard{}
	k.empty = sync.NewCond(&k.mut)

	return k
}

// Feed loads s as the next input, one Word per rune. It blocks until any
// previously fed input has been fully consumed by ReadInput, mirroring the
// teacher's Update/empty.Wait rendezvous.
func (k *Keyboard) Feed(s string) {
	k.mut.Lock()
	defer k.mut.Unlock()

	for k.pos < len(k.buf) {
		k.empty.Wait()
	}

	k.buf = k.buf[:0]
	for _, r := range s {
		k.buf = append(k.buf, word.Word(r))
	}

	k.pos = 0
}

// ReadInput returns the character at the current pointer and advances it.
// ok is false when the buffer is empty. Consuming the last character resets
// the buffer and pointer and wakes any blocked Feed.
func (k *Keyboard) ReadInput() (word.Word, bool) {
	k.mut.Lock()
	defer k.mut.Unlock()

	if k.pos >= len(k.buf) {
		return 0, false
	}

	v := k.buf[k.pos]
	k.pos++

	if k.pos >= len(k.buf) {
		k.buf = nil
		k.pos = 0
		k.empty.Broadcast()
	}

	return v, true
}

// Pending reports how many characters remain unconsumed.
func (k *Keyboard) Pending() int {
	k.mut.Lock()
	defer k.mut.Unlock()

	return len(k.buf) - k.pos
}
