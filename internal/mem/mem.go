// Package mem implements the machine's main memory, its unified L1 cache,
// and the write buffer and memory-controller worker that drain dirty cache
// lines back to main memory asynchronously.
package mem

// mem.go defines main memory: a flat 2048-word backing store addressed
// directly by the memory controller, never by the execution thread (reads
// are the one exception, since reads never mutate — see Memory.Read).

import (
	"errors"
	"fmt"

	"github.com/vn18/simulate/internal/word"
)

// Size is the number of addressable words in main memory.
const Size = 2048

// Reserved memory addresses, per the machine's data model.
const (
	TrapTableAddr  word.Word = 0    // Base of the trap-subroutine table.
	FaultEntryAddr word.Word = 1    // Machine-fault handler entry address.
	SavedPCAddr    word.Word = 2    // Saved PC on TRAP.
	SavedFaultPC   word.Word = 4    // Saved PC on machine fault.
	SavedFaultMSR  word.Word = 5    // Saved MSR on machine fault.
	TrampolineAddr word.Word = 8    // Indirect-jump trampoline slot.
	BootAreaAddr   word.Word = 24   // Start of the bootloader region.
	BootAreaEnd    word.Word = 100  // First address outside the boot region.
	ProgramAddr    word.Word = 100  // Start of the general program area.
	ParagraphAddr  word.Word = 1000 // Start of the paragraph-search data area.
)

// ErrAddressFault is the sentinel wrapped by AddressFault.
var ErrAddressFault = errors.New("address fault")

// AddressFault is returned when an access falls outside [0,Size). It is
// routed through the machine fault handler (see internal/cpu), never
// propagated to a caller as an ordinary error.
type AddressFault struct {
	Addr int
}

func (af *AddressFault) Error() string {
	return fmt.Sprintf("%s: addr %d", ErrAddressFault, af.Addr)
}

func (af *AddressFault) Is(target error) bool {
	if target == ErrAddressFault {
		return true
	}

	_, ok := target.(*AddressFault)

	return ok
}

// Memory is the machine's main store: a flat array of Size words, accessed
// exclusively by the memory controller for writes. Reads may happen
// directly from the execution thread on a cache miss, since a read never
// mutates memory and the cache's dirty-line tracking guarantees a read miss
// never races an unresolved write to the same address (see SPEC_FULL.md §5).
type Memory struct {
	cells [Size]word.Word
}

// New creates an empty main memory.
func New() *Memory {
	return &Memory{}
}

// Read returns the word at addr, or an *AddressFault if addr is out of
// range.
func (m *Memory) Read(addr int) (word.Word, error) {
	if addr < 0 || addr >= Size {
		return 0, &AddressFault{Addr: addr}
	}

	return m.cells[addr], nil
}

// Write stores w at addr, or returns an *AddressFault if addr is out of
// range. This is the only mutator of main memory; it is called by the
// memory controller (see Controller.Run) and, at load time, by LoadProgram.
func (m *Memory) Write(addr int, w word.Word) error {
	if addr < 0 || addr >= Size {
		return &AddressFault{Addr: addr}
	}

	m.cells[addr] = w

	return nil
}

// Block returns the 8-word block containing addr: the block base is
// addr &^ 7, i.e. addr with its low 3 bits cleared.
func (m *Memory) Block(addr int) (base int, block [8]word.Word, err error) {
	base = addr &^ 7

	if base < 0 || base+7 >= Size {
		return base, block, &AddressFault{Addr: addr}
	}

	copy(block[:], m.cells[base:base+8])

	return base, block, nil
}

// LoadProgram copies code directly into memory at orig, bypassing the cache
// and write buffer. Used by the loader to place assembled programs and by
// test fixtures to set up memory state; real instruction execution always
// goes through the cache (see internal/cpu).
func (m *Memory) LoadProgram(orig word.Word, code []word.Word) error {
	for i, w := range code {
		if err := m.Write(int(orig)+i, w); err != nil {
			return err
		}
	}

	return nil
}

// Snapshot returns a copy of memory contents, for debugging/inspection
// (e.g. a front-end memory dump). External observers reading main memory
// directly may lag any writes still pending in the write buffer by at most
// the buffer's depth — see SPEC_FULL.md §5.
func (m *Memory) Snapshot() [Size]word.Word {
	return m.cells
}
