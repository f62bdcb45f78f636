package cpu

// fault.go implements the machine fault handler (spec.md §4.8): triggered
// by an out-of-range memory address or an undefined TRAP code, it saves the
// faulting PC and MSR, loads the handler entry from mem[1], and resumes in
// "continue" mode.

import (
	"github.com/vn18/simulate/internal/mem"
	"github.com/vn18/simulate/internal/word"
)

// raiseFault saves state and redirects PC to the fault handler entry. It
// never returns an error: a fault that cannot itself be serviced (e.g. the
// handler entry address is also out of range) is a configuration error in
// the loaded program, not something the engine can recover from, so it
// sets PC to that entry regardless; the next fetch then faults again and
// is redirected to the same entry.
func (e *Engine) raiseFault() {
	savedPC := word.Word(e.Reg.PC)
	savedMSR := word.Word(e.Reg.MSR)

	_ = e.Mem.Write(int(mem.SavedFaultPC), savedPC)
	_ = e.Mem.Write(int(mem.SavedFaultMSR), savedMSR)

	entry, err := e.Mem.Read(int(mem.FaultEntryAddr))
	if err != nil {
		return
	}

	e.Reg.PC = word.PC(entry) & word.PCMask
	e.jumpTaken = true
}
