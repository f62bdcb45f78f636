// Package console defines the front-end adapter boundary between the
// execution engine and whatever is watching it: a register/memory display,
// a terminal, and a handful of buttons. The engine never imports a concrete
// front end; it only ever talks to the FrontEnd interface.
package console

import "github.com/vn18/simulate/internal/word"

// FrontEnd is the driver surface a user interface implements to observe and
// steer a running machine. Implementations must not block the caller for
// long; slow work should be handed off to a goroutine.
type FrontEnd interface {
	// UpdateRegister reports the current value of a named register
	// (e.g. "PC", "R0", "MSR") after it changes.
	UpdateRegister(name string, bits word.Word)

	// AppendTerminal appends s to the terminal pane.
	AppendTerminal(s string)

	// ToggleButton sets the lit/unlit state of a named control.
	ToggleButton(id string, on bool)

	// DisableButtons disables every control, e.g. while the machine runs
	// in macro mode with no single-step boundary to pause at.
	DisableButtons()
}

// NoOpFrontEnd discards every call. It is the default front end for
// headless runs and tests, where nothing is watching.
type NoOpFrontEnd struct{}

func (NoOpFrontEnd) UpdateRegister(string, word.Word) {}
func (NoOpFrontEnd) AppendTerminal(string)             {}
func (NoOpFrontEnd) ToggleButton(string, bool)         {}
func (NoOpFrontEnd) DisableButtons()                   {}
