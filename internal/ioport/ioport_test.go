package ioport

import (
	"testing"
	"time"
)

func TestKeyboardReadInputDrainsBuffer(tt *testing.T) {
	tt.Parallel()

	k := NewKeyboard()
	k.Feed("hi")

	v, ok := k.ReadInput()
	if !ok || v != 'h' {
		tt.Fatalf("want ('h',true), got (%v,%v)", v, ok)
	}

	v, ok = k.ReadInput()
	if !ok || v != 'i' {
		tt.Fatalf("want ('i',true), got (%v,%v)", v, ok)
	}

	if _, ok := k.ReadInput(); ok {
		tt.Fatal("want buffer empty after last character consumed")
	}

	if n := k.Pending(); n != 0 {
		tt.Errorf("want 0 pending, got %d", n)
	}
}

func TestKeyboardReadInputEmptyReturnsFalse(tt *testing.T) {
	tt.Parallel()

	k := NewKeyboard()

	if _, ok := k.ReadInput(); ok {
		tt.Fatal("want ok=false on empty buffer")
	}
}

func TestKeyboardFeedBlocksUntilDrained(tt *testing.T) {
	tt.Parallel()

	k := NewKeyboard()
	k.Feed("a")

	done := make(chan struct{})
	go func() {
		k.Feed("b")
		close(done)
	}()

	select {
	case <-done:
		tt.Fatal("Feed returned before prior buffer was drained")
	case <-time.After(20 * time.Millisecond):
	}

	if _, ok := k.ReadInput(); !ok {
		tt.Fatal("want a character available")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		tt.Fatal("Feed did not unblock after buffer drained")
	}
}

func TestConsoleWriteNotifiesListeners(tt *testing.T) {
	tt.Parallel()

	c := NewConsole()

	var got []byte
	c.Listen(func(b byte) { got = append(got, b) })

	c.Write('x')
	c.Write('y')

	if string(got) != "xy" {
		tt.Fatalf("want \"xy\", got %q", got)
	}
}

func TestPortWriteOutputOnlyConsoleDevice(tt *testing.T) {
	tt.Parallel()

	p := New()

	var got []byte
	p.Console.Listen(func(b byte) { got = append(got, b) })

	p.WriteOutput(0, 'z') // keyboard devID, ignored
	p.WriteOutput(1, 'A')

	if string(got) != "A" {
		tt.Fatalf("want \"A\", got %q", got)
	}
}

func TestPortReadInputDelegatesToKeyboard(tt *testing.T) {
	tt.Parallel()

	p := New()
	p.Keyboard.Feed("q")

	v, ok := p.ReadInput()
	if !ok || v != 'q' {
		tt.Fatalf("want ('q',true), got (%v,%v)", v, ok)
	}
}
