package ioport

import "sync"

// Console is the output half of the channel. Every byte written to it is
// fanned out to every registered listener, in the style of the teacher's
// Display.notify: listener functions must not block, fail, or panic.
type Console struct {
	mut  sync.Mutex
	list []func(byte)
}

// NewConsole creates a console with no listeners attached.
func NewConsole() *Console {
	return &Console{}
}

// Listen adds a listener, called with every byte subsequently written.
func (c *Console) Listen(fn func(byte)) {
	c.mut.Lock()
	defer c.mut.Unlock()

	c.list = append(c.list, fn)
}

// Write fans b out to every listener.
func (c *Console) Write(b byte) {
	c.mut.Lock()
	listeners := make([]func(byte), len(c.list))
	copy(listeners, c.list)
	c.mut.Unlock()

	for _, fn := range listeners {
		fn(b)
	}
}
