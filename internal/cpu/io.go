package cpu

import "github.com/vn18/simulate/internal/word"

// IOPort is the contract the execution engine needs from the I/O
// subsystem (internal/ioport): a character source for IN and a console
// sink for OUT. DEVID 0 is the keyboard; DEVID 1 is the console; other
// DEVIDs are ignored per spec.md §6.
type IOPort interface {
	// ReadInput returns the next buffered input character. ok is false
	// when the buffer is empty, in which case the engine sets
	// WaitForInterrupt and returns without advancing.
	ReadInput() (value word.Word, ok bool)

	// WriteOutput emits value to the device identified by devID.
	WriteOutput(devID uint8, value word.Word)
}

// NoOpIOPort discards output and never has input available; useful for
// engines running headless or under test without wiring a real terminal.
type NoOpIOPort struct{}

func (NoOpIOPort) ReadInput() (word.Word, bool) { return 0, false }
func (NoOpIOPort) WriteOutput(uint8, word.Word) {}
