package asm

import (
	"strings"
	"testing"

	"github.com/vn18/simulate/internal/cpu"
	"github.com/vn18/simulate/internal/word"
)

func assembleSource(tt *testing.T, orig int, src string) ObjectCode {
	tt.Helper()

	a := New(word.Word(orig))

	if err := a.Parse(strings.NewReader(src)); err != nil {
		tt.Fatalf("parse: %s", err)
	}

	obj, err := a.Link()
	if err != nil {
		tt.Fatalf("link: %s", err)
	}

	return obj
}

func TestForwardJumpResolvesLabel(tt *testing.T) {
	tt.Parallel()

	src := "JMP 0,TARGET\nAIR 0,1\nTARGET: AIR 0,10\nHLT\n"
	obj := assembleSource(tt, 0, src)

	if len(obj.Code) != 4 {
		tt.Fatalf("want 4 words, got %d", len(obj.Code))
	}

	fields := cpu.Instruction(obj.Code[0]).Decode()
	if fields.Addr != 2 {
		tt.Errorf("want JMP ADDR=2 (TARGET at offset 2), got %d", fields.Addr)
	}
}

func TestUnresolvedLabelIsError(tt *testing.T) {
	tt.Parallel()

	a := New(0)
	if err := a.Parse(strings.NewReader("JMP 0,NOWHERE\nHLT\n")); err != nil {
		tt.Fatalf("parse: %s", err)
	}

	if _, err := a.Link(); err == nil {
		tt.Fatal("want unresolved-label error, got nil")
	}
}

func TestCommentsAndBlankLinesSkipped(tt *testing.T) {
	tt.Parallel()

	src := "/ a comment\n\nAIR 0,5 / trailing comment\nHLT\n"
	obj := assembleSource(tt, 100, src)

	if len(obj.Code) != 2 {
		tt.Fatalf("want 2 words, got %d", len(obj.Code))
	}
}

func TestTrampolineEmittedForFarLabel(tt *testing.T) {
	tt.Parallel()

	var b strings.Builder

	b.WriteString("JMP 0,TARGET\n")
	for i := 0; i < 130; i++ {
		b.WriteString("HLT\n")
	}

	b.WriteString("TARGET: AIR 0,1\nHLT\n")

	obj := assembleSource(tt, 0, b.String())

	fields := cpu.Instruction(obj.Code[0]).Decode()
	if fields.Addr != 8 || !fields.I {
		tt.Fatalf("want trampoline emission (ADDR=8,I=true), got ADDR=%d I=%t", fields.Addr, fields.I)
	}

	if _, ok := obj.Trampolines[0]; !ok {
		tt.Fatal("want a trampoline entry for instruction at address 0")
	}
}

func TestIndirectOperandSetsIFlag(tt *testing.T) {
	tt.Parallel()

	obj := assembleSource(tt, 0, "JMP 0,@2\nHLT\n")

	fields := cpu.Instruction(obj.Code[0]).Decode()
	if fields.Addr != 2 || !fields.I {
		tt.Fatalf("want ADDR=2 I=true, got ADDR=%d I=%t", fields.Addr, fields.I)
	}
}

func TestUnknownMnemonicIsSkippedNotFatal(tt *testing.T) {
	tt.Parallel()

	a := New(100)
	if err := a.Parse(strings.NewReader("BOGUS 1,2,3\nHLT\n")); err != nil {
		tt.Fatalf("parse: %s", err)
	}

	if err := a.Err(); err == nil {
		tt.Fatal("want a syntax error recorded for the unknown mnemonic")
	}

	// HLT still assembles even though BOGUS failed.
	if len(a.code) != 1 {
		tt.Errorf("want 1 assembled word despite the bad line, got %d", len(a.code))
	}
}
