package asm

// ops.go maps each mnemonic to its opcode and the ordered list of operand
// fields it expects, grounded on the per-opcode execution contracts in
// spec.md §4.7 and the seed scenarios in §8 (which fix each mnemonic's
// operand order and count).

import "github.com/vn18/simulate/internal/cpu"

type operandField uint8

const (
	fieldR operandField = iota
	fieldIX
	fieldAddr
	fieldRX
	fieldRY
	fieldCount
	fieldAL
	fieldLR
	fieldDevID
	fieldTrapCode
)

type operandSpec struct {
	fields []operandField
}

var mnemonicTable = map[string]cpu.Opcode{
	"LDR": cpu.OpLDR, "STR": cpu.OpSTR, "LDA": cpu.OpLDA,
	"LDX": cpu.OpLDX, "STX": cpu.OpSTX,
	"JZ": cpu.OpJZ, "JNE": cpu.OpJNE, "JCC": cpu.OpJCC, "JMP": cpu.OpJMP,
	"JSR": cpu.OpJSR, "RFS": cpu.OpRFS, "SOB": cpu.OpSOB, "JGE": cpu.OpJGE,
	"AMR": cpu.OpAMR, "SMR": cpu.OpSMR, "AIR": cpu.OpAIR, "SIR": cpu.OpSIR,
	"MLT": cpu.OpMLT, "DVD": cpu.OpDVD, "TRR": cpu.OpTRR,
	"AND": cpu.OpAND, "ORR": cpu.OpORR, "NOT": cpu.OpNOT,
	"SRC": cpu.OpSRC, "RRC": cpu.OpRRC,
	"IN": cpu.OpIN, "OUT": cpu.OpOUT,
	"TRAP": cpu.OpTRAP, "HLT": cpu.OpHLT,
}

var operandTable = map[string]operandSpec{
	"LDR": {[]operandField{fieldR, fieldIX, fieldAddr}},
	"STR": {[]operandField{fieldR, fieldIX, fieldAddr}},
	"LDA": {[]operandField{fieldR, fieldIX, fieldAddr}},
	"LDX": {[]operandField{fieldIX, fieldAddr}},
	"STX": {[]operandField{fieldIX, fieldAddr}},
	"JZ":  {[]operandField{fieldR, fieldIX, fieldAddr}},
	"JNE": {[]operandField{fieldR, fieldIX, fieldAddr}},
	"JCC": {[]operandField{fieldR, fieldIX, fieldAddr}},
	"JMP": {[]operandField{fieldIX, fieldAddr}},
	"JSR": {[]operandField{fieldIX, fieldAddr}},
	"RFS": {[]operandField{fieldAddr}},
	"SOB": {[]operandField{fieldR, fieldIX, fieldAddr}},
	"JGE": {[]operandField{fieldR, fieldIX, fieldAddr}},
	"AMR": {[]operandField{fieldR, fieldIX, fieldAddr}},
	"SMR": {[]operandField{fieldR, fieldIX, fieldAddr}},
	"AIR": {[]operandField{fieldR, fieldAddr}},
	"SIR": {[]operandField{fieldR, fieldAddr}},
	"MLT": {[]operandField{fieldRX, fieldRY}},
	"DVD": {[]operandField{fieldRX, fieldRY}},
	"TRR": {[]operandField{fieldRX, fieldRY}},
	"AND": {[]operandField{fieldRX, fieldRY}},
	"ORR": {[]operandField{fieldRX, fieldRY}},
	"NOT": {[]operandField{fieldRX}},
	"SRC": {[]operandField{fieldR, fieldCount, fieldAL, fieldLR}},
	"RRC": {[]operandField{fieldR, fieldCount, fieldAL}},
	"IN":  {[]operandField{fieldR, fieldDevID}},
	"OUT": {[]operandField{fieldR, fieldDevID}},
	"TRAP": {[]operandField{fieldTrapCode}},
	"HLT": {nil},
}

// lookupMnemonic returns the opcode and operand layout for a mnemonic, or
// ok=false if it isn't recognized (spec.md §7: unknown mnemonics yield a
// skipped, logged error — handled by the caller).
func lookupMnemonic(mnemonic string) (cpu.Opcode, operandSpec, bool) {
	op, ok := mnemonicTable[mnemonic]
	if !ok {
		return 0, operandSpec{}, false
	}

	return op, operandTable[mnemonic], true
}
