package cpu

import (
	"errors"

	"github.com/ezrec/sos/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalt               = errors.New(f("halt"))
	ErrIllegalMemory      = errors.New(f("illegal memory access"))
	ErrDivideByZero       = errors.New(f("divide by zero"))
	ErrIllegalInstruction = errors.New(f("illegal instruction"))
	ErrInterruptUnknown   = errors.New(f("interrupt unknown"))
	ErrTrapHandlerMissing = errors.New(f("trap handler missing"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOpcodeInvalid      = errors.New(f("opcode invalid"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
)

// IsFault returns true if the error is a protection fault.
func IsFault(err error) bool {
	return errors.Is(err, ErrIllegalMemory) ||
		errors.Is(err, ErrDivideByZero) ||
		errors.Is(err, ErrIllegalInstruction)
}

// ErrAddress is the physical address of an illegal memory access.
type ErrAddress int

func (ea ErrAddress) Error() string {
	return f("address %v", int(ea))
}

// ErrInstruction is the instruction that faulted.
type ErrInstruction Instruction

func (ei ErrInstruction) Error() string {
	return f("instruction %v", Instruction(ei).String())
}

func (ei ErrInstruction) Is(err error) (ok bool) {
	_, ok = err.(ErrInstruction)
	return
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
