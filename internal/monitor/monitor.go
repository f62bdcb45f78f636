// Package monitor supplies the bring-up code a freshly reset machine needs
// before any user program runs: a machine-fault handler and a small
// trap-subroutine table. Every routine is assembled from text source via
// internal/asm, not hand-built as a Go literal of object words.
package monitor

import (
	"fmt"
	"strings"

	"github.com/vn18/simulate/internal/asm"
	"github.com/vn18/simulate/internal/mem"
	"github.com/vn18/simulate/internal/word"
)

// TRAPCODEs for the bundled subroutine table. 1 and 2 are deliberately
// skipped: TRAP's own contract overwrites mem[SavedPCAddr] (2) on every
// call, and mem[FaultEntryAddr] (1) holds the fault handler's entry
// address, so a trap table entry living at either cell would be clobbered
// or misread as something it isn't.
const (
	TrapHalt uint8 = 0
	TrapOut  uint8 = 3
)

// Fixed origins for the bundled routines, inside the bootloader region.
const (
	faultHandlerOrig word.Word = 40
	trapHaltOrig     word.Word = 60
	trapOutOrig      word.Word = 64
)

// faultHandlerSource is the machine-fault handler. mem[SavedFaultPC] and
// mem[SavedFaultMSR] already hold the faulting PC/MSR for a front end to
// inspect; there's nothing to recover from an out-of-range access or an
// undefined TRAPCODE, so it halts.
const faultHandlerSource = "HLT\n"

// trapHaltSource implements TRAPCODE 0: halt the machine.
const trapHaltSource = "HLT\n"

// trapOutSource implements TRAPCODE 3: emit R0's low byte to the console,
// then return to the instruction after TRAP. TRAP saves its own address in
// mem[SavedPCAddr], so the routine adds one to that cell (using R0, which it
// does not preserve) and jumps indirectly through it.
const trapOutSource = "OUT 0,1\nLDR 0,0,2\nAIR 0,1\nSTR 0,0,2\nJMP 0,@2\n"

// Routine is one assembled bring-up routine and its name. The trap-table
// cell that points at a trap routine is given by its TRAPCODE key in
// Image.Traps.
type Routine struct {
	Name string
	asm.ObjectCode
}

// Image is the complete bring-up image: the fault handler and every
// bundled trap routine, ready to be installed into memory.
type Image struct {
	FaultHandler Routine
	Traps        map[uint8]Routine // keyed by TRAPCODE
}

// Build assembles the fault handler and the HALT/OUT trap routines.
func Build() (*Image, error) {
	fault, err := assembleAt(faultHandlerOrig, faultHandlerSource)
	if err != nil {
		return nil, fmt.Errorf("monitor: fault handler: %w", err)
	}

	halt, err := assembleAt(trapHaltOrig, trapHaltSource)
	if err != nil {
		return nil, fmt.Errorf("monitor: TRAP %d: %w", TrapHalt, err)
	}

	out, err := assembleAt(trapOutOrig, trapOutSource)
	if err != nil {
		return nil, fmt.Errorf("monitor: TRAP %d: %w", TrapOut, err)
	}

	return &Image{
		FaultHandler: Routine{Name: "fault", ObjectCode: fault},
		Traps: map[uint8]Routine{
			TrapHalt: {Name: "halt", ObjectCode: halt},
			TrapOut:  {Name: "out", ObjectCode: out},
		},
	}, nil
}

// assembleAt parses and links one routine's source at a fixed origin.
func assembleAt(orig word.Word, src string) (asm.ObjectCode, error) {
	a := asm.New(orig)

	if err := a.Parse(strings.NewReader(src)); err != nil {
		return asm.ObjectCode{}, err
	}

	return a.Link()
}

// LoadTo installs the fault handler and trap table into sys: the routines'
// code at their origins, the fault entry address at mem[FaultEntryAddr],
// and each trap's entry address at mem[TrapTableAddr+TRAPCODE].
func (img *Image) LoadTo(sys *mem.System) error {
	if err := sys.LoadProgram(img.FaultHandler.Orig, img.FaultHandler.Code); err != nil {
		return fmt.Errorf("monitor: load fault handler: %w", err)
	}

	if err := sys.LoadProgram(mem.FaultEntryAddr, []word.Word{img.FaultHandler.Orig}); err != nil {
		return fmt.Errorf("monitor: install fault entry: %w", err)
	}

	for code, routine := range img.Traps {
		if err := sys.LoadProgram(routine.Orig, routine.Code); err != nil {
			return fmt.Errorf("monitor: load TRAP %d (%s): %w", code, routine.Name, err)
		}

		cell := mem.TrapTableAddr + word.Word(code)
		if err := sys.LoadProgram(cell, []word.Word{routine.Orig}); err != nil {
			return fmt.Errorf("monitor: install TRAP %d (%s): %w", code, routine.Name, err)
		}
	}

	return nil
}

// Trampolines merges every bundled routine's indirect-jump trampoline
// entries (see internal/asm's ADDR≥128 resolution), for a caller to fold
// into the engine's Trampolines map alongside a loaded user program's.
func (img *Image) Trampolines() map[word.PC]word.Word {
	out := make(map[word.PC]word.Word)

	for pc, target := range img.FaultHandler.Trampolines {
		out[pc] = target
	}

	for _, routine := range img.Traps {
		for pc, target := range routine.Trampolines {
			out[pc] = target
		}
	}

	return out
}
