// Package cpu implements the instruction decoder and the micro-stepped
// execution engine: fetch/decode/execute, effective-address computation,
// opcode dispatch, and the machine-fault handler.
package cpu

// instr.go decodes the 18-bit instruction word into its field registers.
// Bit 0 is the most significant bit throughout, matching the machine's
// declared convention; OPCODE always occupies bits 0..5.

import (
	"fmt"

	"github.com/vn18/simulate/internal/word"
)

// Opcode identifies one of the machine's instructions.
type Opcode uint8

// Opcode values, assigned in the order spec.md lists the per-opcode
// execution contracts (§4.7). The exact bit pattern of each opcode is not
// specified beyond "top 6 bits"; this assignment simply gives each mnemonic
// a stable, densely packed value the assembler and decoder agree on.
const (
	OpLDR Opcode = iota
	OpSTR
	OpLDA
	OpLDX
	OpSTX
	OpJZ
	OpJNE
	OpJCC
	OpJMP
	OpJSR
	OpRFS
	OpSOB
	OpJGE
	OpAMR
	OpSMR
	OpAIR
	OpSIR
	OpMLT
	OpDVD
	OpTRR
	OpAND
	OpORR
	OpNOT
	OpSRC
	OpRRC
	OpIN
	OpOUT
	OpTRAP
	OpHLT
)

var mnemonics = map[Opcode]string{
	OpLDR: "LDR", OpSTR: "STR", OpLDA: "LDA", OpLDX: "LDX", OpSTX: "STX",
	OpJZ: "JZ", OpJNE: "JNE", OpJCC: "JCC", OpJMP: "JMP", OpJSR: "JSR",
	OpRFS: "RFS", OpSOB: "SOB", OpJGE: "JGE", OpAMR: "AMR", OpSMR: "SMR",
	OpAIR: "AIR", OpSIR: "SIR", OpMLT: "MLT", OpDVD: "DVD", OpTRR: "TRR",
	OpAND: "AND", OpORR: "ORR", OpNOT: "NOT", OpSRC: "SRC", OpRRC: "RRC",
	OpIN: "IN", OpOUT: "OUT", OpTRAP: "TRAP", OpHLT: "HLT",
}

func (op Opcode) String() string {
	if s, ok := mnemonics[op]; ok {
		return s
	}

	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// Format identifies one of the eight instruction field layouts (spec.md
// §4.6).
type Format uint8

const (
	FormatLS Format = iota
	FormatLX
	FormatImm
	FormatTRAP
	FormatXY
	FormatMonoX
	FormatShift
	FormatIO
)

// formats maps each opcode to its field layout.
var formats = map[Opcode]Format{
	OpLDR: FormatLS, OpSTR: FormatLS, OpLDA: FormatLS,
	OpJZ: FormatLS, OpJNE: FormatLS, OpJCC: FormatLS, OpJMP: FormatLS,
	OpJSR: FormatLS, OpRFS: FormatLS, OpSOB: FormatLS, OpJGE: FormatLS,
	OpAMR: FormatLS, OpSMR: FormatLS,
	OpLDX: FormatLX, OpSTX: FormatLX,
	OpAIR: FormatImm, OpSIR: FormatImm,
	OpTRAP: FormatTRAP,
	OpMLT:  FormatXY, OpDVD: FormatXY, OpTRR: FormatXY, OpAND: FormatXY, OpORR: FormatXY,
	OpNOT:  FormatMonoX,
	OpSRC:  FormatShift, OpRRC: FormatShift,
	OpIN: FormatIO, OpOUT: FormatIO,
	OpHLT: FormatLS,
}

// FormatOf returns the field layout for op.
func FormatOf(op Opcode) Format { return formats[op] }

// Instruction is the raw 18-bit instruction word, wrapped for field
// extraction.
type Instruction word.Word

func (i Instruction) String() string {
	return fmt.Sprintf("%s (op:%s)", word.Word(i), i.Opcode())
}

// Opcode extracts the top 6 bits (bits 0..5).
func (i Instruction) Opcode() Opcode {
	return Opcode(word.Word(i).AsUnsigned(word.Width) >> 12)
}

// Fields holds every decoded field an instruction might carry, populated
// according to its Format. Unused fields for a given format are left zero.
type Fields struct {
	Opcode   Opcode
	Format   Format
	R        uint8 // Register selector (2 bits): R0..R3.
	IX       uint8 // Index register selector (2 bits): X1..X3, 0=none.
	I        bool  // Indirect addressing flag.
	Addr     uint8 // 7-bit address/immediate/displacement field (0..127; see DESIGN.md on the trampoline threshold).
	RX       uint8 // First register operand (XY, MonoX formats).
	RY       uint8 // Second register operand (XY format).
	AL       bool  // Shift direction: left when true.
	LR       bool  // Shift kind: logical when true (arithmetic otherwise).
	Count    uint8 // Shift/rotate count (4 bits).
	DevID    uint8 // I/O device selector (5 bits).
	TrapCode uint8 // TRAP subroutine index (4 bits).
}

// Decode extracts every field relevant to op's Format from the instruction
// word. Bit numbering follows the machine's convention: bit 0 is the MSB.
func (i Instruction) Decode() Fields {
	op := i.Opcode()
	w := word.Word(i)

	f := Fields{Opcode: op, Format: FormatOf(op)}

	switch f.Format {
	case FormatLS:
		f.R = uint8(bits(w, 6, 7))
		f.IX = uint8(bits(w, 8, 9))
		f.I = bits(w, 10, 10) != 0
		f.Addr = uint8(bits(w, 11, 17))
	case FormatLX:
		f.IX = uint8(bits(w, 6, 7))
		f.I = bits(w, 8, 8) != 0
		f.Addr = uint8(bits(w, 9, 15))
	case FormatImm:
		f.R = uint8(bits(w, 6, 7))
		f.Addr = uint8(bits(w, 8, 14))
	case FormatTRAP:
		f.TrapCode = uint8(bits(w, 6, 9))
	case FormatXY:
		f.RX = uint8(bits(w, 6, 7))
		f.RY = uint8(bits(w, 8, 9))
	case FormatMonoX:
		f.RX = uint8(bits(w, 6, 7))
	case FormatShift:
		f.R = uint8(bits(w, 6, 7))
		f.AL = bits(w, 8, 8) != 0
		f.LR = bits(w, 9, 9) != 0
		f.Count = uint8(bits(w, 10, 13))
	case FormatIO:
		f.R = uint8(bits(w, 6, 7))
		f.DevID = uint8(bits(w, 8, 12))
	}

	return f
}

// bits extracts the inclusive bit range [lo,hi] (0 = MSB) from w as an
// unsigned value, lo<=hi, both within [0,17].
func bits(w word.Word, lo, hi uint8) uint32 {
	width := hi - lo + 1
	shift := word.Width - 1 - int(hi)

	return (uint32(w) >> shift) & (1<<width - 1)
}

// Encode packs f back into an 18-bit instruction word, matching the bit
// layout Decode reads. Used by the assembler's code generator.
func Encode(f Fields) word.Word {
	var w uint32

	w |= uint32(f.Opcode) << 12

	switch f.Format {
	case FormatLS:
		w |= uint32(f.Addr&0x7f) << (word.Width - 1 - 17)
		if f.I {
			w |= 1 << (word.Width - 1 - 10)
		}

		w |= uint32(f.IX&0x3) << (word.Width - 1 - 9)
		w |= uint32(f.R&0x3) << (word.Width - 1 - 7)
	case FormatLX:
		w |= uint32(f.Addr&0x7f) << (word.Width - 1 - 15)
		if f.I {
			w |= 1 << (word.Width - 1 - 8)
		}

		w |= uint32(f.IX&0x3) << (word.Width - 1 - 7)
	case FormatImm:
		w |= uint32(f.Addr&0x7f) << (word.Width - 1 - 14)
		w |= uint32(f.R&0x3) << (word.Width - 1 - 7)
	case FormatTRAP:
		w |= uint32(f.TrapCode&0xf) << (word.Width - 1 - 9)
	case FormatXY:
		w |= uint32(f.RY&0x3) << (word.Width - 1 - 9)
		w |= uint32(f.RX&0x3) << (word.Width - 1 - 7)
	case FormatMonoX:
		w |= uint32(f.RX&0x3) << (word.Width - 1 - 7)
	case FormatShift:
		w |= uint32(f.Count&0xf) << (word.Width - 1 - 13)
		if f.LR {
			w |= 1 << (word.Width - 1 - 9)
		}

		if f.AL {
			w |= 1 << (word.Width - 1 - 8)
		}

		w |= uint32(f.R&0x3) << (word.Width - 1 - 7)
	case FormatIO:
		w |= uint32(f.DevID&0x1f) << (word.Width - 1 - 12)
		w |= uint32(f.R&0x3) << (word.Width - 1 - 7)
	}

	return word.Word(w) & word.Mask
}
