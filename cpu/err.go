package cpu

import (
	"errors"

	"github.com/ezrec/hexad/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrStepLimit = errors.New(f("step limit exhausted"))

	// Instruction validation errors
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrTargetInvalid   = errors.New(f("target invalid"))
	ErrOpcodeArg1      = errors.New(f("arg1"))
	ErrOpcodeArg2      = errors.New(f("arg2"))

	// Sample inference errors
	ErrInferConflict   = errors.New(f("samples conflict"))
	ErrInferUnresolved = errors.New(f("samples ambiguous"))

	// Assembler errors
	ErrBindSyntax         = errors.New(f("#ip syntax"))
	ErrBindDuplicate      = errors.New(f("#ip duplicated"))
	ErrBindLate           = errors.New(f("#ip after instructions"))
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelMultiple      = errors.New(f("label multiple"))
	ErrJumpUnreachable    = errors.New(f("jump target unreachable"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro wihtout .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOperandMissing     = errors.New(f("operand missing"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrRawUnknown uint64

func (eu ErrRawUnknown) Error() string {
	return f("raw opcode %v unassigned", uint64(eu))
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

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
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
