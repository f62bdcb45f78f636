package alu

import (
	"errors"
	"testing"

	"github.com/vn18/simulate/internal/word"
)

func TestAddNoOverflow(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.OP1, a.OP2 = 5, 7

	if err := a.Do(AIR, word.Width); err != nil {
		tt.Fatalf("Do: %s", err)
	}

	if a.Result != 12 {
		tt.Errorf("want 12, got %s", a.Result)
	}

	if a.Flag(Overflow) {
		tt.Error("want no overflow")
	}
}

func TestAddZeroOperandIsIdentity(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.OP1, a.OP2 = 42, 0

	if err := a.Do(AMR, word.Width); err != nil {
		tt.Fatalf("Do: %s", err)
	}

	if a.Result != 42 {
		tt.Errorf("want 42 unchanged, got %s", a.Result)
	}
}

func TestAddOverflow(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.OP1, a.OP2 = word.Mask, 1

	if err := a.Do(AIR, word.Width); err != nil {
		tt.Fatalf("Do: %s", err)
	}

	if !a.Flag(Overflow) {
		tt.Error("want overflow flag set")
	}
}

func TestSubUnderflow(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.OP1, a.OP2 = 3, 5

	if err := a.Do(SIR, word.Width); err != nil {
		tt.Fatalf("Do: %s", err)
	}

	if !a.Flag(Underflow) {
		tt.Error("want underflow flag set")
	}
}

func TestMult(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.OP1, a.OP2 = 300, 300

	if err := a.Do(MLT, word.Width); err != nil {
		tt.Fatalf("Do: %s", err)
	}

	product := uint64(a.Result)<<word.Width | uint64(a.Result2)
	if product != 90000 {
		tt.Errorf("want 90000, got %d", product)
	}
}

func TestDivByZero(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.OP1, a.OP2 = 10, 0

	err := a.Do(DVD, word.Width)
	if !errors.Is(err, ErrDivideByZero) {
		tt.Fatalf("want ErrDivideByZero, got %v", err)
	}

	if !a.Flag(DivZero) {
		tt.Error("want DIVZERO flag set")
	}
}

func TestDivQuotientRemainder(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.OP1, a.OP2 = 17, 5

	if err := a.Do(DVD, word.Width); err != nil {
		tt.Fatalf("Do: %s", err)
	}

	if a.Result != 3 || a.Result2 != 2 {
		tt.Errorf("want quotient=3 remainder=2, got %d/%d", a.Result, a.Result2)
	}
}

func TestTRREqual(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.OP1, a.OP2 = 9, 9

	if err := a.Do(TRR, word.Width); err != nil {
		tt.Fatalf("Do: %s", err)
	}

	if !a.Flag(EqualOrNot) {
		tt.Error("want EQUALORNOT set")
	}
}

func TestTRRNotEqualClearsFlag(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.SetFlagForTest(EqualOrNot)
	a.OP1, a.OP2 = 9, 10

	if err := a.Do(TRR, word.Width); err != nil {
		tt.Fatalf("Do: %s", err)
	}

	if a.Flag(EqualOrNot) {
		tt.Error("want EQUALORNOT explicitly cleared")
	}
}

func TestGTE(tt *testing.T) {
	tt.Parallel()

	cases := []struct {
		op1, op2 int32
		want     word.Word
	}{
		{5, 3, 1},
		{3, 5, 0},
		{5, 5, 1},
		{-1, 0, 0},
	}

	for _, c := range cases {
		a := New()
		a.OP1 = word.FromSigned(c.op1, word.Width)
		a.OP2 = word.FromSigned(c.op2, word.Width)

		if err := a.Do(GTE, word.Width); err != nil {
			tt.Fatalf("Do: %s", err)
		}

		if a.Result != c.want {
			tt.Errorf("GTE(%d,%d): want %s, got %s", c.op1, c.op2, c.want, a.Result)
		}
	}
}

func TestShiftLeftSameForArithAndLogical(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.OP1, a.OP2, a.OP3, a.OP4 = 1, 3, 1, 0

	if err := a.Do(SRC, word.Width); err != nil {
		tt.Fatalf("Do: %s", err)
	}

	if a.Result != 8 {
		tt.Errorf("want 8, got %s", a.Result)
	}
}

func TestShiftRightArithmeticSignExtends(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.OP1 = word.FromSigned(-8, word.Width)
	a.OP2, a.OP3, a.OP4 = 1, 0, 0

	if err := a.Do(SRC, word.Width); err != nil {
		tt.Fatalf("Do: %s", err)
	}

	if got := a.Result.AsSigned(word.Width); got != -4 {
		tt.Errorf("want -4, got %d", got)
	}
}

func TestShiftRightLogicalFillsZero(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.OP1 = word.FromSigned(-8, word.Width)
	a.OP2, a.OP3, a.OP4 = 1, 0, 1

	if err := a.Do(SRC, word.Width); err != nil {
		tt.Fatalf("Do: %s", err)
	}

	if a.Result != word.FromUnsigned(uint32(word.FromSigned(-8, word.Width))>>1, word.Width) {
		tt.Errorf("want logical shift result, got %s", a.Result)
	}
}

func TestRotate(tt *testing.T) {
	tt.Parallel()

	a := New()
	a.OP1 = word.FromUnsigned(0b1, word.Width)
	a.OP2, a.OP3 = 1, 1 // rotate left by 1

	if err := a.Do(RRC, word.Width); err != nil {
		tt.Fatalf("Do: %s", err)
	}

	if a.Result != 0b10 {
		tt.Errorf("want 0b10, got %s", a.Result)
	}
}

// SetFlagForTest is a tiny test-only helper exercising the "explicitly
// cleared" half of TRR's contract without exposing a public setter other
// operations could misuse.
func (a *ALU) SetFlagForTest(f Flag) { a.setFlagBit(f) }
