package ioport

import "github.com/vn18/simulate/internal/word"

// Port bundles the keyboard and console devices behind the engine's
// cpu.IOPort contract. DEVID 0 addresses the keyboard, DEVID 1 the console;
// other DEVIDs are ignored per spec.md §6.
type Port struct {
	Keyboard *Keyboard
	Console  *Console
}

// New wires a fresh keyboard and console together.
func New() *Port {
	return &Port{
		Keyboard: NewKeyboard(),
		Console:  NewConsole(),
	}
}

// ReadInput satisfies cpu.IOPort by delegating to the keyboard buffer.
func (p *Port) ReadInput() (word.Word, bool) {
	return p.Keyboard.ReadInput()
}

// WriteOutput satisfies cpu.IOPort. Only DEVID 1 (console) is wired; other
// device IDs are silently ignored, matching spec.md §6.
func (p *Port) WriteOutput(devID uint8, value word.Word) {
	if devID != 1 {
		return
	}

	p.Console.Write(byte(value & 0xff))
}
