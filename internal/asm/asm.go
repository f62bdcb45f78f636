// Package asm implements the two-pass-in-one-traversal assembler: a text
// source is translated directly to object words while a single scan
// resolves (or forward-queues) every label reference.
package asm

// asm.go defines the Assembler, its label table, and the top-level Parse
// loop, in the teacher's Parser/SymbolTable/SyntaxError shape (see the
// reference tree's internal/asm/parser.go), adapted to a single combined
// scan rather than the teacher's separate generation pass.

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vn18/simulate/internal/cpu"
	"github.com/vn18/simulate/internal/word"
)

// LabelEntry tracks one symbol: its bound address (once known), the LIFO
// queue of instruction addresses still waiting on it, and the full list of
// referencing addresses (for diagnostics).
type LabelEntry struct {
	Address     word.Word
	Bound       bool
	ForwardRefs []int // LIFO: push on new forward reference, pop+patch on binding.
	Refs        []int
}

// SymbolTable maps label names to their entries.
type SymbolTable map[string]*LabelEntry

// SyntaxError reports a malformed source line. The offending instruction is
// skipped and assembly continues, per spec.md §7.
type SyntaxError struct {
	Line int
	Text string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("asm: line %d: %q: %s", e.Line, e.Text, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// ErrUnresolvedLabel is wrapped by a SyntaxError when assembly ends with a
// label still carrying queued forward references.
var ErrUnresolvedLabel = errors.New("asm: unresolved label")

// TrampolineThreshold is the smallest address that cannot fit the ADDR
// field directly and must be routed through the jump trampoline at mem[8].
const TrampolineThreshold = 128

// ObjectCode is the assembled result: a contiguous run of words starting at
// Orig, plus the trampoline map the loader installs into the engine for
// runtime indirect-jump resolution (spec.md §4.9).
type ObjectCode struct {
	Orig        word.Word
	Code        []word.Word
	Trampolines map[word.PC]word.Word
}

// Assembler holds accumulated state across one or more Parse calls.
type Assembler struct {
	symbols     SymbolTable
	code        map[word.Word]word.Word
	trampolines map[word.PC]word.Word
	loc         word.Word
	orig        word.Word
	errs        []error
}

// New creates an assembler that writes starting at orig.
func New(orig word.Word) *Assembler {
	return &Assembler{
		symbols:     make(SymbolTable),
		code:        make(map[word.Word]word.Word),
		trampolines: make(map[word.PC]word.Word),
		loc:         orig,
		orig:        orig,
	}
}

// Err returns every syntax error accumulated so far, joined.
func (a *Assembler) Err() error { return errors.Join(a.errs...) }

// Parse reads source lines from r until EOF, assembling each recognized
// instruction and resolving labels as they come into scope.
func (a *Assembler) Parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		if err := a.parseLine(lineNo, scanner.Text()); err != nil {
			a.errs = append(a.errs, err)
		}
	}

	return scanner.Err()
}

// parseLine implements spec.md §4.9's line grammar: blank lines and lines
// starting with `/` are comments; a `/` mid-line trims the remainder;
// `LABEL:` binds a symbol at the current write pointer; anything else is
// `MNEMONIC op1,op2,...`.
func (a *Assembler) parseLine(lineNo int, line string) error {
	if idx := strings.IndexByte(line, '/'); idx >= 0 {
		line = line[:idx]
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if label, rest, ok := splitLabel(line); ok {
		a.bindLabel(label)
		line = strings.TrimSpace(rest)

		if line == "" {
			return nil
		}
	}

	fields := strings.Fields(line)
	mnemonic := strings.ToUpper(fields[0])

	operandText := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	var operands []string
	if operandText != "" {
		for _, op := range strings.Split(operandText, ",") {
			operands = append(operands, strings.TrimSpace(op))
		}
	}

	opcode, spec, ok := lookupMnemonic(mnemonic)
	if !ok {
		return &SyntaxError{Line: lineNo, Text: line, Err: fmt.Errorf("unknown mnemonic %q", mnemonic)}
	}

	w, err := a.assemble(opcode, spec, operands)
	if err != nil {
		return &SyntaxError{Line: lineNo, Text: line, Err: err}
	}

	a.code[a.loc] = w
	a.loc++

	return nil
}

// splitLabel recognizes a leading "NAME:" and returns the label and the
// remainder of the line.
func splitLabel(line string) (label, rest string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", line, false
	}

	name := strings.TrimSpace(line[:idx])
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", line, false
	}

	return name, line[idx+1:], true
}

// bindLabel defines name at the current write pointer, patching any queued
// forward references.
func (a *Assembler) bindLabel(name string) {
	entry, ok := a.symbols[name]
	if !ok {
		a.symbols[name] = &LabelEntry{Address: a.loc, Bound: true}
		return
	}

	if entry.Bound {
		a.errs = append(a.errs, fmt.Errorf("asm: label %q redefined", name))
		return
	}

	entry.Address = a.loc
	entry.Bound = true

	for _, addr := range entry.ForwardRefs {
		a.patchAddr(word.Word(addr), entry.Address)
	}

	entry.ForwardRefs = nil
}

// resolve returns the address bound to name, queuing a forward reference at
// instrAddr if the label hasn't been seen yet.
func (a *Assembler) resolve(name string, instrAddr word.Word) word.Word {
	entry, ok := a.symbols[name]
	if !ok {
		entry = &LabelEntry{}
		a.symbols[name] = entry
	}

	entry.Refs = append(entry.Refs, int(instrAddr))

	if entry.Bound {
		return entry.Address
	}

	entry.ForwardRefs = append(entry.ForwardRefs, int(instrAddr))

	return 0
}

// patchAddr rewrites the ADDR field (or trampoline target) of the
// instruction at addr once its label becomes known.
func (a *Assembler) patchAddr(addr, target word.Word) {
	w, ok := a.code[addr]
	if !ok {
		return
	}

	fields := cpu.Instruction(w).Decode()

	if target >= TrampolineThreshold {
		fields.Addr = 8
		fields.I = true
		a.trampolines[word.PC(addr)&word.PCMask] = target
	} else {
		fields.Addr = uint8(target)
	}

	a.code[addr] = cpu.Encode(fields)
}

// Link finalizes assembly: it reports ErrUnresolvedLabel for any symbol
// still carrying forward references (spec.md §7's ParseError, and invariant
// 2 in §8), and returns the object code as a contiguous run from Orig.
func (a *Assembler) Link() (ObjectCode, error) {
	for name, entry := range a.symbols {
		if len(entry.ForwardRefs) > 0 {
			a.errs = append(a.errs, fmt.Errorf("%w: %q", ErrUnresolvedLabel, name))
		}
	}

	if err := a.Err(); err != nil {
		return ObjectCode{}, err
	}

	end := a.loc
	code := make([]word.Word, 0, int(end-a.orig))

	for addr := a.orig; addr < end; addr++ {
		code = append(code, a.code[addr])
	}

	return ObjectCode{Orig: a.orig, Code: code, Trampolines: a.trampolines}, nil
}

// assemble builds the instruction word for one parsed line.
func (a *Assembler) assemble(opcode cpu.Opcode, spec operandSpec, operands []string) (word.Word, error) {
	if len(operands) != len(spec.fields) {
		return 0, fmt.Errorf("%s: want %d operands, got %d", opcode, len(spec.fields), len(operands))
	}

	f := cpu.Fields{Opcode: opcode, Format: cpu.FormatOf(opcode)}

	for i, field := range spec.fields {
		val, isAddr, indirect, err := a.operandValue(operands[i], field)
		if err != nil {
			return 0, err
		}

		switch field {
		case fieldR:
			f.R = uint8(val)
		case fieldIX:
			f.IX = uint8(val)
		case fieldAddr:
			if isAddr && val >= TrampolineThreshold {
				f.Addr = 8
				f.I = true
				a.trampolines[word.PC(a.loc)&word.PCMask] = word.Word(val)
			} else {
				f.Addr = uint8(val)
				f.I = indirect
			}
		case fieldRX:
			f.RX = uint8(val)
		case fieldRY:
			f.RY = uint8(val)
		case fieldCount:
			f.Count = uint8(val)
		case fieldAL:
			f.AL = val != 0
		case fieldLR:
			f.LR = val != 0
		case fieldDevID:
			f.DevID = uint8(val)
		case fieldTrapCode:
			f.TrapCode = uint8(val)
		}
	}

	return cpu.Encode(f), nil
}

// operandValue parses one operand token. Address-bearing fields accept
// either a decimal literal or a label reference (alphabetic first
// character); everything else must be a literal. A leading `@` on an
// address operand requests one level of indirection (I=1) through that
// address, independent of the automatic ADDR≥128 trampoline.
func (a *Assembler) operandValue(tok string, field operandField) (value int64, isAddr, indirect bool, err error) {
	if field == fieldAddr && strings.HasPrefix(tok, "@") {
		indirect = true
		tok = tok[1:]
	}

	if field == fieldAddr && tok != "" && isAlpha(tok[0]) {
		return int64(a.resolve(tok, a.loc)), true, indirect, nil
	}

	v, err := strconv.ParseInt(tok, 0, 32)
	if err != nil {
		return 0, false, false, fmt.Errorf("bad operand %q: %w", tok, err)
	}

	return v, field == fieldAddr, indirect, nil
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
