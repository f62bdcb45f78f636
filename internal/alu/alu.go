// Package alu implements the arithmetic-logic unit: the machine's bank of
// arithmetic, logical, shift, rotate and compare operations over OP1..OP4,
// producing RESULT/RESULT2 and setting the condition-code flags.
package alu

// alu.go groups operation dispatch the way the teacher groups one struct
// per opcode in its ops.go, but since these ten operations share one
// register file (OP1..OP4/RESULT/RESULT2/CC) rather than each owning its
// own decode/execute pair, they are implemented as methods on a single ALU
// value instead of a family of structs.

import (
	"github.com/vn18/simulate/internal/word"
)

// Flag identifies one of the four condition-code bits. At most one is ever
// set after a single operation; every operation that can set one clears CC
// first.
type Flag uint8

const (
	Overflow   Flag = 0
	Underflow  Flag = 1
	DivZero    Flag = 2
	EqualOrNot Flag = 3
)

// Op identifies an ALU operation.
type Op uint8

const (
	AIR Op = iota
	SIR
	AMR
	SMR
	MLT
	DVD
	TRR
	AND
	ORR
	NOT
	SRC
	RRC
	GTE
)

// ALU holds the operand/result registers and the condition-code register.
// OP1..OP4, RESULT and RESULT2 are 18-bit Words; CC is 4 bits wide, indexed
// by Flag.
type ALU struct {
	OP1, OP2, OP3, OP4 word.Word
	Result             word.Word
	Result2            word.Word
	CC                 word.Word
}

// New returns a zeroed ALU.
func New() *ALU { return &ALU{} }

// ClearCC zeroes the condition-code register.
func (a *ALU) ClearCC() { a.CC = 0 }

// Flag reports whether f is set in CC.
func (a *ALU) Flag(f Flag) bool {
	return a.CC&(1<<uint8(f)) != 0
}

// Do dispatches op over the current OP1..OP4, leaving the result in
// Result/Result2 and CC. Only DVD can return an error (division by zero,
// per spec.md §4.5 — the operation aborts and callers must not write back
// R[rx]/R[rx+1]).
func (a *ALU) Do(op Op, width uint8) error {
	a.ClearCC()

	switch op {
	case AIR, AMR:
		a.add(width)
	case SIR, SMR:
		a.sub(width)
	case MLT:
		a.mul()
	case DVD:
		return a.div()
	case TRR:
		a.compareEqual()
	case AND:
		a.Result = a.OP1 & a.OP2 & word.Mask
	case ORR:
		a.Result = (a.OP1 | a.OP2) & word.Mask
	case NOT:
		a.Result = ^a.OP1 & word.Mask
	case SRC:
		a.shift(width)
	case RRC:
		a.rotate(width)
	case GTE:
		a.compareGTE(width)
	}

	return nil
}

func (a *ALU) add(width uint8) {
	if a.OP2 == 0 {
		a.Result = a.OP1
		return
	}

	sum := uint32(a.OP1) + uint32(a.OP2)
	a.Result = word.Word(sum) & word.Mask

	if sum > uint32(word.Mask) {
		a.setFlagBit(Overflow)
	}
}

func (a *ALU) sub(width uint8) {
	if a.OP2 == 0 {
		a.Result = a.OP1
		return
	}

	diff := (uint32(a.OP1) - uint32(a.OP2)) & uint32(word.Mask)
	a.Result = word.Word(diff)

	if a.Result > a.OP1 {
		a.setFlagBit(Underflow)
	}
}

func (a *ALU) mul() {
	product := uint64(uint32(a.OP1)&uint32(word.Mask)) * uint64(uint32(a.OP2)&uint32(word.Mask))

	a.Result = word.Word((product >> word.Width) & uint64(word.Mask))
	a.Result2 = word.Word(product & uint64(word.Mask))

	if product > (uint64(1)<<36)-1 {
		a.setFlagBit(Overflow)
	}
}

func (a *ALU) div() error {
	if a.OP2 == 0 {
		a.setFlagBit(DivZero)
		return ErrDivideByZero
	}

	a.Result = word.Word(uint32(a.OP1) / uint32(a.OP2) & uint32(word.Mask))
	a.Result2 = word.Word(uint32(a.OP1) % uint32(a.OP2) & uint32(word.Mask))

	return nil
}

func (a *ALU) compareEqual() {
	if a.OP1 == a.OP2 {
		a.setFlagBit(EqualOrNot)
	}
}

func (a *ALU) compareGTE(width uint8) {
	if a.OP1.AsSigned(width) >= a.OP2.AsSigned(width) {
		a.Result = 1
	} else {
		a.Result = 0
	}
}

// shift implements SRC: OP1=value, OP2=count, OP3=left?, OP4=logical? (right
// shifts only; left shift is identical arithmetic or logical).
func (a *ALU) shift(width uint8) {
	count := uint8(a.OP2)
	if count == 0 {
		a.Result = a.OP1
		return
	}

	if a.OP3 != 0 {
		a.Result = word.Word(uint32(a.OP1)<<count) & word.Mask
		return
	}

	if a.OP4 != 0 {
		a.Result = word.Word(a.OP1.AsUnsigned(width) >> count)
		return
	}

	shifted := a.OP1.AsSigned(width) >> count
	a.Result = word.FromSigned(shifted, width)
}

// rotate implements RRC: OP1=value, OP2=count, OP3=left?, rotating within
// the given register width.
func (a *ALU) rotate(width uint8) {
	count := uint8(a.OP2) % width
	if count == 0 {
		a.Result = a.OP1
		return
	}

	v := uint32(a.OP1.AsUnsigned(width))
	mask := uint32(1)<<width - 1

	if a.OP3 != 0 {
		a.Result = word.Word(((v << count) | (v >> (width - count))) & mask)
	} else {
		a.Result = word.Word(((v >> count) | (v << (width - count))) & mask)
	}
}

func (a *ALU) setFlagBit(f Flag) {
	a.CC = word.Word(1) << uint8(f)
}
