package cpu

import (
	"errors"

	"github.com/ezrec/pulseos/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrNotExecuting = errors.New(f("cpu not executing"))
	ErrBusFault     = errors.New(f("bus fault"))

	// Assembler errors
	ErrEquateSyntax     = errors.New(f(".equ syntax"))
	ErrEquateDuplicate  = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate   = errors.New(f("label duplicated"))
	ErrMnemonicInvalid  = errors.New(f("mnemonic invalid"))
	ErrOperandMissing   = errors.New(f("operand missing"))
	ErrOperandExtra     = errors.New(f("excessive operands"))
	ErrOperandMode      = errors.New(f("addressing mode invalid"))
	ErrOperandRange     = errors.New(f("operand out of range"))
	ErrBranchRange      = errors.New(f("branch target out of range"))
	ErrProgramTooLarge  = errors.New(f("program too large"))
	ErrDirectiveInvalid = errors.New(f("directive invalid"))

	// Hex codec errors
	ErrHexOdd = errors.New(f("odd number of hex digits"))
)

// ErrOpcode is an opcode byte the CPU cannot decode.
type ErrOpcode uint8

func (eo ErrOpcode) Error() string {
	return f("invalid opcode 0x%02X", uint8(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrHexDigit string

func (err ErrHexDigit) Error() string {
	return f("'%v' is not a hex pair", string(err))
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
