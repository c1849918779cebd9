package cpu

import (
	"fmt"
)

// Opcode is an instruction operation code.
type Opcode int

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_SET    = Opcode(0)  // SET
	OP_ADD    = Opcode(1)  // ADD
	OP_SUB    = Opcode(2)  // SUB
	OP_MUL    = Opcode(3)  // MUL
	OP_DIV    = Opcode(4)  // DIV
	OP_COPY   = Opcode(5)  // COPY
	OP_BRANCH = Opcode(6)  // BRANCH
	OP_BNE    = Opcode(7)  // BNE
	OP_BLT    = Opcode(8)  // BLT
	OP_POP    = Opcode(9)  // POP
	OP_PUSH   = Opcode(10) // PUSH
	OP_LOAD   = Opcode(11) // LOAD
	OP_SAVE   = Opcode(12) // SAVE
	OP_TRAP   = Opcode(15) // TRAP
)

// INSTRSIZE is the number of words in a single instruction and its arguments.
const INSTRSIZE = 4

// Opcodes lists every defined opcode.
var Opcodes = []Opcode{
	OP_SET, OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_COPY, OP_BRANCH,
	OP_BNE, OP_BLT, OP_POP, OP_PUSH, OP_LOAD, OP_SAVE, OP_TRAP,
}

// argKind describes how an instruction argument is decoded.
type argKind int

const (
	ARG_REG = argKind(iota) // register index
	ARG_IMM                 // immediate value or logical address
)

// opcodeArgs is the argument signature of each opcode.
// Trailing arguments not listed are ignored.
var opcodeArgs = map[Opcode][]argKind{
	OP_SET:    {ARG_REG, ARG_IMM},
	OP_ADD:    {ARG_REG, ARG_REG, ARG_REG},
	OP_SUB:    {ARG_REG, ARG_REG, ARG_REG},
	OP_MUL:    {ARG_REG, ARG_REG, ARG_REG},
	OP_DIV:    {ARG_REG, ARG_REG, ARG_REG},
	OP_COPY:   {ARG_REG, ARG_REG},
	OP_BRANCH: {ARG_IMM},
	OP_BNE:    {ARG_REG, ARG_REG, ARG_IMM},
	OP_BLT:    {ARG_REG, ARG_REG, ARG_IMM},
	OP_POP:    {ARG_REG},
	OP_PUSH:   {ARG_REG},
	OP_LOAD:   {ARG_REG, ARG_IMM},
	OP_SAVE:   {ARG_REG, ARG_IMM},
	OP_TRAP:   {},
}

// Valid returns true if the opcode is defined by the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeArgs[op]
	return ok
}

// Instruction is a decoded instruction: an opcode and three arguments.
type Instruction struct {
	Opcode Opcode
	Args   [3]int
}

// MakeInstruction creates an instruction from an opcode and its arguments.
func MakeInstruction(op Opcode, args ...int) (instr Instruction) {
	instr.Opcode = op
	copy(instr.Args[:], args)
	return
}

// DecodeInstruction decodes a fetched instruction.
func DecodeInstruction(words [INSTRSIZE]int) Instruction {
	return Instruction{
		Opcode: Opcode(words[0]),
		Args:   [3]int{words[1], words[2], words[3]},
	}
}

// Words encodes the instruction as it is stored in memory.
func (instr Instruction) Words() [INSTRSIZE]int {
	return [INSTRSIZE]int{int(instr.Opcode), instr.Args[0], instr.Args[1], instr.Args[2]}
}

// Valid returns true if the opcode is defined, and every register argument
// names a register.
func (instr Instruction) Valid() bool {
	kinds, ok := opcodeArgs[instr.Opcode]
	if !ok {
		return false
	}

	for n, kind := range kinds {
		if kind == ARG_REG && (instr.Args[n] < 0 || instr.Args[n] >= NUMREG) {
			return false
		}
	}

	return true
}

// String returns the human readable form of the instruction.
func (instr Instruction) String() (out string) {
	a := instr.Args
	switch instr.Opcode {
	case OP_SET:
		out = fmt.Sprintf("SET R%d = %d", a[0], a[1])
	case OP_ADD:
		out = fmt.Sprintf("ADD R%d = R%d + R%d", a[0], a[1], a[2])
	case OP_SUB:
		out = fmt.Sprintf("SUB R%d = R%d - R%d", a[0], a[1], a[2])
	case OP_MUL:
		out = fmt.Sprintf("MUL R%d = R%d * R%d", a[0], a[1], a[2])
	case OP_DIV:
		out = fmt.Sprintf("DIV R%d = R%d / R%d", a[0], a[1], a[2])
	case OP_COPY:
		out = fmt.Sprintf("COPY R%d = R%d", a[0], a[1])
	case OP_BRANCH:
		out = fmt.Sprintf("BRANCH @%d", a[0])
	case OP_BNE:
		out = fmt.Sprintf("BNE (R%d != R%d) @%d", a[0], a[1], a[2])
	case OP_BLT:
		out = fmt.Sprintf("BLT (R%d < R%d) @%d", a[0], a[1], a[2])
	case OP_POP:
		out = fmt.Sprintf("POP R%d", a[0])
	case OP_PUSH:
		out = fmt.Sprintf("PUSH R%d", a[0])
	case OP_LOAD:
		out = fmt.Sprintf("LOAD R%d <-- @%d", a[0], a[1])
	case OP_SAVE:
		out = fmt.Sprintf("SAVE R%d --> @%d", a[0], a[1])
	case OP_TRAP:
		out = "TRAP"
	default:
		out = fmt.Sprintf("?? %v %v", instr.Opcode, a)
	}

	return
}
