package cpu

// engine.go drives the micro-stepped fetch/decode/execute cycle described
// in spec.md §4.7: MAR<-PC, MDR<-mem[MAR], IR<-MDR, decode, then dispatch to
// the opcode's own execution contract. The staged shape (evaluate address,
// fetch operands, execute, writeback) follows the teacher's Step/Fetch/
// Decode/EvalAddress/FetchOperands/Execute/Writeback pipeline, collapsed
// here into a single dispatch switch with one case per opcode since each mnemonic's
// semantics (spec.md §4.7) are a handful of register moves rather than a
// multi-stage pipeline worth splitting into its own type.

import (
	"errors"
	"fmt"

	"github.com/vn18/simulate/internal/alu"
	"github.com/vn18/simulate/internal/mem"
	"github.com/vn18/simulate/internal/word"
)

// Mode selects how far Step runs before returning control to the driver.
type Mode uint8

const (
	// ModeMicro executes one complete instruction, exactly like
	// ModeMacro; Step does not stop between the micro-ops of an
	// instruction.
	ModeMicro Mode = iota
	// ModeMacro executes one complete instruction.
	ModeMacro
	// ModeContinue runs instructions until HLT or a fault leaves the
	// engine unable to proceed.
	ModeContinue
	// ModeDirect is identical to ModeContinue; it exists as a distinct
	// driver-facing mode name per spec.md §6. Nothing in this package
	// selects it on its own; the fault handler only redirects PC.
	ModeDirect
)

// ErrHalted is returned by Step once the program has executed HLT.
var ErrHalted = errors.New("cpu: halted")

// Engine is the execution engine: register file, ALU, memory subsystem and
// I/O port wired together, plus the bookkeeping spec.md §4.7 calls for
// (jump_taken, wait_for_interrupt, cycle_count).
type Engine struct {
	Reg Registers
	ALU *alu.ALU
	Mem *mem.System
	IO  IOPort

	CycleCount       uint64
	WaitForInterrupt bool
	BootRunning      bool // true while executing the bootloader region (24..99).

	// Trampolines maps an instruction's own address to the true target of
	// its indirect jump, for instructions the assembler emitted with
	// ADDR==8 (the trampoline slot) because the resolved label address
	// didn't fit the ADDR field. Populated by the loader (internal/asm);
	// consulted at decode time (k=3, spec.md §4.7).
	Trampolines map[word.PC]word.Word

	jumpTaken bool
}

// New wires an Engine to the given memory subsystem and I/O port. The ALU
// is created fresh; callers needing a shared ALU instance (e.g. for
// inspection in tests) can replace Engine.ALU after construction.
func New(m *mem.System, io IOPort) *Engine {
	if io == nil {
		io = NoOpIOPort{}
	}

	return &Engine{ALU: alu.New(), Mem: m, IO: io}
}

// Step executes according to mode. ModeMicro is approximated here as one
// full instruction, since every opcode's work (spec.md §4.7) fits in a
// single register-transfer step once fetch/decode have run; callers
// wanting finer-grained tracing should read CycleCount, which still
// advances once per micro-op-equivalent transition within the call.
func (e *Engine) Step(mode Mode) error {
	switch mode {
	case ModeContinue, ModeDirect:
		for {
			if err := e.stepOne(); err != nil {
				if errors.Is(err, ErrHalted) {
					return nil
				}

				return err
			}
		}
	default: // ModeMicro, ModeMacro
		return e.stepOne()
	}
}

// stepOne runs the fetch/decode/execute/writeback pipeline for a single
// instruction.
func (e *Engine) stepOne() error {
	e.jumpTaken = false

	instrPC := e.Reg.PC

	if err := e.fetch(); err != nil {
		return err
	}

	fields := e.Reg.IR.Decode()

	if target, ok := e.Trampolines[instrPC]; ok && word.Word(fields.Addr) == mem.TrampolineAddr {
		if err := e.Mem.Write(int(mem.TrampolineAddr), target); err != nil {
			e.raiseFault()
			return nil
		}
	}

	if err := e.dispatch(fields); err != nil {
		return err
	}

	if !e.jumpTaken {
		e.Reg.PC = (e.Reg.PC + 1) & word.PCMask
	}

	return nil
}

// fetch implements k=0..3: MAR<-PC, MDR<-mem[MAR], IR<-MDR, decode (the
// decode step itself happens in stepOne immediately after).
func (e *Engine) fetch() error {
	e.Reg.MAR = word.Word(e.Reg.PC)
	e.CycleCount++

	w, err := e.Mem.Read(int(e.Reg.MAR))
	if err != nil {
		e.raiseFault()
		return nil
	}

	e.Reg.MDR = w
	e.CycleCount++

	e.Reg.IR = Instruction(e.Reg.MDR)
	e.CycleCount++

	return nil
}

// evalAddress computes EA per spec.md §4.7: direct, indexed, or one level
// of indirection. ADDR==8 is the trampoline slot; stepOne writes the true
// target (recorded by internal/asm in Engine.Trampolines) into mem[8] at
// decode time, so the indirection path here handles it exactly like any
// other indirect reference.
func (e *Engine) evalAddress(f Fields) {
	var ea word.Word

	if f.Format != FormatLX && f.IX != 0 {
		ea = e.Reg.X[f.IX] + word.Word(f.Addr)
	} else {
		ea = word.Word(f.Addr)
	}

	if f.I {
		e.Reg.MAR = ea
		e.CycleCount++

		w, err := e.Mem.Read(int(e.Reg.MAR))
		if err != nil {
			e.raiseFault()
			return
		}

		e.Reg.MDR = w
		ea = w
	}

	e.Reg.EA = ea
}

func (e *Engine) dispatch(f Fields) error {
	switch f.Opcode {
	case OpLDR:
		e.evalAddress(f)
		w, err := e.Mem.Read(int(e.Reg.EA))
		if err != nil {
			e.raiseFault()
			return nil
		}
		e.Reg.R[f.R] = w
	case OpSTR:
		e.evalAddress(f)
		if err := e.Mem.Write(int(e.Reg.EA), e.Reg.R[f.R]); err != nil {
			e.raiseFault()
		}
	case OpLDA:
		e.evalAddress(f)
		e.Reg.R[f.R] = e.Reg.EA
	case OpLDX:
		e.evalAddress(f)
		w, err := e.Mem.Read(int(e.Reg.EA))
		if err != nil {
			e.raiseFault()
			return nil
		}
		e.Reg.X[f.IX] = w
	case OpSTX:
		e.evalAddress(f)
		if err := e.Mem.Write(int(e.Reg.EA), e.Reg.X[f.IX]); err != nil {
			e.raiseFault()
		}
	case OpJZ, OpJNE:
		e.evalAddress(f)
		e.ALU.OP1 = e.Reg.R[f.R]
		e.ALU.OP2 = 0
		_ = e.ALU.Do(alu.TRR, word.Width)

		equal := e.ALU.Flag(alu.EqualOrNot)
		if (f.Opcode == OpJZ && equal) || (f.Opcode == OpJNE && !equal) {
			e.Reg.PC = word.PC(e.Reg.EA) & word.PCMask
			e.jumpTaken = true
		}
	case OpJCC:
		e.evalAddress(f)
		if e.ALU.Flag(alu.Flag(f.R)) {
			e.Reg.PC = word.PC(e.Reg.EA) & word.PCMask
			e.jumpTaken = true
		}
	case OpJMP:
		e.evalAddress(f)
		e.Reg.PC = word.PC(e.Reg.EA) & word.PCMask
		e.jumpTaken = true
	case OpJSR:
		e.evalAddress(f)
		e.Reg.R[3] = word.Word(e.Reg.PC+1) & word.Mask
		e.Reg.PC = word.PC(e.Reg.EA) & word.PCMask
		e.jumpTaken = true
	case OpRFS:
		e.Reg.R[0] = word.Word(f.Addr)
		e.Reg.PC = word.PC(e.Reg.R[3]) & word.PCMask
		e.jumpTaken = true
	case OpSOB:
		e.evalAddress(f)
		e.Reg.R[f.R] = (e.Reg.R[f.R] - 1) & word.Mask
		if e.Reg.R[f.R].AsSigned(word.Width) >= 0 {
			e.Reg.PC = word.PC(e.Reg.EA) & word.PCMask
			e.jumpTaken = true
		}
	case OpJGE:
		e.evalAddress(f)
		if e.Reg.R[f.R].AsSigned(word.Width) >= 0 {
			e.Reg.PC = word.PC(e.Reg.EA) & word.PCMask
			e.jumpTaken = true
		}
	case OpAMR, OpSMR:
		e.evalAddress(f)
		w, err := e.Mem.Read(int(e.Reg.EA))
		if err != nil {
			e.raiseFault()
			return nil
		}
		e.ALU.OP1 = e.Reg.R[f.R]
		e.ALU.OP2 = w
		op := alu.AMR
		if f.Opcode == OpSMR {
			op = alu.SMR
		}
		_ = e.ALU.Do(op, word.Width)
		e.Reg.R[f.R] = e.ALU.Result
	case OpAIR, OpSIR:
		e.ALU.OP1 = e.Reg.R[f.R]
		e.ALU.OP2 = word.Word(f.Addr)
		op := alu.AIR
		if f.Opcode == OpSIR {
			op = alu.SIR
		}
		_ = e.ALU.Do(op, word.Width)
		e.Reg.R[f.R] = e.ALU.Result
	case OpMLT, OpDVD:
		if f.RX != 0 && f.RX != 2 {
			return fmt.Errorf("cpu: %s requires rx in {0,2}, got %d", f.Opcode, f.RX)
		}
		e.ALU.OP1 = e.Reg.R[f.RX]
		e.ALU.OP2 = e.Reg.R[f.RY]
		op := alu.MLT
		if f.Opcode == OpDVD {
			op = alu.DVD
		}
		if err := e.ALU.Do(op, word.Width); err != nil {
			// DIVZERO: CC is set, registers are left unchanged.
			break
		}
		e.Reg.R[f.RX] = e.ALU.Result
		e.Reg.R[f.RX+1] = e.ALU.Result2
	case OpTRR, OpAND, OpORR:
		e.ALU.OP1 = e.Reg.R[f.RX]
		e.ALU.OP2 = e.Reg.R[f.RY]
		var op alu.Op
		switch f.Opcode {
		case OpTRR:
			op = alu.TRR
		case OpAND:
			op = alu.AND
		default:
			op = alu.ORR
		}
		_ = e.ALU.Do(op, word.Width)
		if f.Opcode != OpTRR {
			e.Reg.R[f.RX] = e.ALU.Result
		}
	case OpNOT:
		e.ALU.OP1 = e.Reg.R[f.RX]
		_ = e.ALU.Do(alu.NOT, word.Width)
		e.Reg.R[f.RX] = e.ALU.Result
	case OpSRC, OpRRC:
		e.ALU.OP1 = e.Reg.R[f.R]
		e.ALU.OP2 = word.Word(f.Count)
		if f.AL {
			e.ALU.OP3 = 1
		} else {
			e.ALU.OP3 = 0
		}
		if f.LR {
			e.ALU.OP4 = 1
		} else {
			e.ALU.OP4 = 0
		}
		op := alu.SRC
		if f.Opcode == OpRRC {
			op = alu.RRC
		}
		_ = e.ALU.Do(op, word.Width)
		e.Reg.R[f.R] = e.ALU.Result
	case OpIN:
		v, ok := e.IO.ReadInput()
		if !ok {
			e.WaitForInterrupt = true
			e.jumpTaken = true // Suppress PC advancement; resumed via interrupt.
			return nil
		}
		e.Reg.R[f.R] = v
	case OpOUT:
		if f.DevID == 1 {
			e.IO.WriteOutput(f.DevID, e.Reg.R[f.R]&0xff)
		}
	case OpTRAP:
		if err := e.Mem.Write(int(mem.SavedPCAddr), word.Word(e.Reg.PC)); err != nil {
			e.raiseFault()
			return nil
		}

		entry, err := e.Mem.Read(int(mem.TrapTableAddr) + int(f.TrapCode))
		if err != nil {
			e.raiseFault()
			return nil
		}

		if entry == 0 {
			e.raiseFault()
			return nil
		}

		e.Reg.PC = word.PC(entry) & word.PCMask
		e.jumpTaken = true
	case OpHLT:
		e.Reg.reset()
		e.jumpTaken = true

		if e.BootRunning {
			// HLT from the bootloader itself: idle, wait for a new
			// program to be loaded.
			e.BootRunning = false
		} else {
			// HLT from a user program: return control to the
			// bootloader.
			e.Reg.PC = word.PC(mem.BootAreaAddr) & word.PCMask
			e.BootRunning = true
		}

		return ErrHalted
	}

	return nil
}

// Resume clears WaitForInterrupt and performs the pending IN instruction's
// register load using the newly available input, per spec.md §4.7's IN
// contract ("on resume, consume one character"). It is the engine-side half
// of the driver's interrupt(IO) call (spec.md §6).
func (e *Engine) Resume() error {
	if !e.WaitForInterrupt {
		return nil
	}

	v, ok := e.IO.ReadInput()
	if !ok {
		return nil
	}

	fields := e.Reg.IR.Decode()
	e.Reg.R[fields.R] = v
	e.WaitForInterrupt = false
	e.Reg.PC = (e.Reg.PC + 1) & word.PCMask

	return nil
}
