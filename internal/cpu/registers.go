package cpu

import "github.com/vn18/simulate/internal/word"

// Registers holds every CPU register named in the data model: the four
// general-purpose registers, three index registers, the instruction
// pipeline registers, and the machine-status register. All are 18 bits
// wide except PC (12 bits). CC lives in the ALU; no MFR register is
// modeled.
type Registers struct {
	R [4]word.Word // R0..R3
	X [4]word.Word // X1..X3; X[0] unused

	IR  Instruction
	MAR word.Word
	MDR word.Word
	MSR word.Word
	EA  word.Word

	PC word.PC
}

func (r *Registers) reset() {
	r.R = [4]word.Word{}
	r.X = [4]word.Word{}
	r.IR, r.MAR, r.MDR, r.MSR, r.EA = 0, 0, 0, 0, 0
}
