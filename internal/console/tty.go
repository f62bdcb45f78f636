package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/vn18/simulate/internal/ioport"
	"github.com/vn18/simulate/internal/word"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNoTTY is returned when standard input is not a terminal, in which case
// raw-mode keystroke-at-a-time I/O is unavailable.
var ErrNoTTY = errors.New("console: not a TTY")

// TTYFrontEnd adapts the machine's keyboard and console devices to a real
// Unix terminal. Keys typed at the terminal are fed to the keyboard buffer;
// bytes written to the console are echoed to the terminal.
//
// The teacher's Console needed a separate reader goroutine, a keyCh, and an
// updateKeyboard goroutine because its Keyboard.Update took one key at a
// time off a channel fed by a second goroutine. ioport.Keyboard.Feed already
// blocks the caller until the prior input is drained, so that rendezvous is
// built into the device itself here: readAndFeed calls Feed directly from
// the same goroutine that reads the terminal, with no relay channel between
// them. Only the output side still needs a channel, since Console.Listen's
// contract forbids a listener from blocking on a slow terminal write.
type TTYFrontEnd struct {
	in    *os.File
	out   *term.Terminal
	fd    int
	state *term.State

	termCh chan byte
}

// NewTTYFrontEnd puts sin into raw mode and returns a front end that reads
// keystrokes from it and writes console output to sout. Callers must call
// Restore to return the terminal to its original state.
func NewTTYFrontEnd(sin, sout *os.File) (*TTYFrontEnd, error) {
	fd := int(sin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	front := &TTYFrontEnd{
		fd:     fd,
		in:     sin,
		out:    term.NewTerminal(sout, ""),
		state:  saved,
		termCh: make(chan byte, 80),
	}

	if err := front.setTerminalParams(1, 0); err != nil {
		return nil, err
	}

	return front, nil
}

// Run wires the front end to port: it spawns the terminal reader (which
// feeds the keyboard directly) and blocks draining console output to the
// terminal until ctx is cancelled.
func (c *TTYFrontEnd) Run(ctx context.Context, port *ioport.Port) {
	go c.readAndFeed(ctx, port.Keyboard)

	port.Console.Listen(func(b byte) {
		select {
		case c.termCh <- b:
		default: // dropped: terminal output buffer full
		}
	})

	c.drainTerminal(ctx)
}

// Restore returns the terminal to its original state.
func (c *TTYFrontEnd) Restore() {
	_ = os.Stdin.SetReadDeadline(time.Now())
	_ = term.Restore(c.fd, c.state)
}

func (c *TTYFrontEnd) setTerminalParams(vmin, vtime byte) error {
	_ = syscall.SetNonblock(c.fd, true)

	termIO, err := unix.IoctlGetTermios(c.fd, unix.TCGETS)
	if err != nil {
		return err
	}

	termIO.Cc[unix.VMIN] = vmin
	termIO.Cc[unix.VTIME] = vtime

	if err := unix.IoctlSetTermios(c.fd, unix.TCSETS, termIO); err != nil {
		return err
	}

	_ = os.Stdin.SetReadDeadline(time.Time{})

	return nil
}

// readAndFeed reads keystrokes from the terminal one byte at a time and
// hands each straight to kbd.Feed. Feed's own empty.Wait rendezvous is what
// throttles this loop to the engine's IN rate; there is no intermediate
// queue to overrun, since the device itself is the queue. A ctx cancellation
// can only be observed between characters, not while blocked inside Feed —
// the same limitation the keyboard's blocking design carries everywhere
// else it's called.
func (c *TTYFrontEnd) readAndFeed(ctx context.Context, kbd *ioport.Keyboard) {
	buf := bufio.NewReader(c.in)

	_ = syscall.SetNonblock(c.fd, false)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		b, err := buf.ReadByte()
		if err != nil {
			return
		}

		kbd.Feed(string(rune(b)))
	}
}

// drainTerminal copies bytes queued by the console listener to the terminal
// until ctx is cancelled.
func (c *TTYFrontEnd) drainTerminal(ctx context.Context) {
	for {
		select {
		case b := <-c.termCh:
			if _, err := fmt.Fprintf(c.out, "%c", b); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Writer returns an io.Writer that writes directly to the terminal, bypassing
// the console device (used by internal/log to share the same screen).
func (c *TTYFrontEnd) Writer() io.Writer { return c.out }

var _ FrontEnd = (*TTYFrontEnd)(nil)

// UpdateRegister writes the register's new value as a line of its own,
// since this front end has no register widgets, only a scrolling terminal.
func (c *TTYFrontEnd) UpdateRegister(name string, bits word.Word) {
	fmt.Fprintf(c.out, "%s=%s\r\n", name, bits)
}

// AppendTerminal writes s to the terminal directly.
func (c *TTYFrontEnd) AppendTerminal(s string) {
	fmt.Fprint(c.out, s)
}

func (*TTYFrontEnd) ToggleButton(string, bool) {}
func (*TTYFrontEnd) DisableButtons()           {}
