package cpu

import (
	"errors"
	"fmt"
	"iter"
)

// OPCODES is the size of the opcode set.
const OPCODES = 16

// Op is one of the sixteen machine opcodes. The enum order is also the
// canonical numeric order used by raw instruction encodings.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_ADDR = Op(0)  // addr
	OP_ADDI = Op(1)  // addi
	OP_MULR = Op(2)  // mulr
	OP_MULI = Op(3)  // muli
	OP_BANR = Op(4)  // banr
	OP_BANI = Op(5)  // bani
	OP_BORR = Op(6)  // borr
	OP_BORI = Op(7)  // bori
	OP_SETR = Op(8)  // setr
	OP_SETI = Op(9)  // seti
	OP_GTIR = Op(10) // gtir
	OP_GTRI = Op(11) // gtri
	OP_GTRR = Op(12) // gtrr
	OP_EQIR = Op(13) // eqir
	OP_EQRI = Op(14) // eqri
	OP_EQRR = Op(15) // eqrr
)

// Ops iterates over the opcode set in canonical order.
func Ops() iter.Seq[Op] {
	return func(yield func(Op) bool) {
		for op := OP_ADDR; op <= OP_EQRR; op++ {
			if !yield(op) {
				return
			}
		}
	}
}

// Mode describes how an instruction operand is interpreted.
type Mode int

//go:generate go tool stringer -linecomment -type=Mode
const (
	MODE_REG  = Mode(0) // reg
	MODE_IMM  = Mode(1) // imm
	MODE_NONE = Mode(2) // none
)

// Modes returns the interpretation of operands A and B. The "r" and "i"
// mnemonic suffixes select register or immediate forms; set uses A only.
func (op Op) Modes() (a, b Mode) {
	switch op {
	case OP_ADDI, OP_MULI, OP_BANI, OP_BORI, OP_GTRI, OP_EQRI:
		a, b = MODE_REG, MODE_IMM
	case OP_SETR:
		a, b = MODE_REG, MODE_NONE
	case OP_SETI:
		a, b = MODE_IMM, MODE_NONE
	case OP_GTIR, OP_EQIR:
		a, b = MODE_IMM, MODE_REG
	default:
		a, b = MODE_REG, MODE_REG
	}

	return
}

// Code is a single decoded instruction. A and B are register indexes or
// literals per the opcode's operand modes; C is always a destination
// register index.
type Code struct {
	Op Op
	A  uint64
	B  uint64
	C  uint64
}

// Opcode represents a line of assembled code with its source location and
// generated instruction.
type Opcode struct {
	LineNo    int      // Source line number.
	Ip        int      // Instruction index.
	Words     []string // Source words after expansion.
	Code      Code     // Generated instruction.
	LinkLabel string   // Unresolved label reference, if any.
	LinkArg   int      // Operand slot the label patches (0=A, 1=B, 2=C).
}

// Validate checks the opcode tag and the register operands.
func (code Code) Validate() (err error) {
	if code.Op < OP_ADDR || code.Op > OP_EQRR {
		err = ErrOpcodeInvalid
		return
	}

	a, b := code.Op.Modes()
	if a == MODE_REG && code.A >= REGISTERS {
		err = errors.Join(ErrRegisterInvalid, ErrOpcodeArg1)
		return
	}
	if b == MODE_REG && code.B >= REGISTERS {
		err = errors.Join(ErrRegisterInvalid, ErrOpcodeArg2)
		return
	}
	if code.C >= REGISTERS {
		err = errors.Join(ErrRegisterInvalid, ErrTargetInvalid)
		return
	}

	return
}

// Apply executes the instruction against a register file. Exactly one
// register, the destination C, is written. Arithmetic wraps at 64 bits.
// Apply assumes a validated instruction; out-of-range register operands
// panic.
func (code Code) Apply(reg *Register) {
	ma, mb := code.Op.Modes()

	a := code.A
	if ma == MODE_REG {
		a = reg[code.A]
	}
	b := code.B
	if mb == MODE_REG {
		b = reg[code.B]
	}

	var out uint64
	switch code.Op {
	case OP_ADDR, OP_ADDI:
		out = a + b
	case OP_MULR, OP_MULI:
		out = a * b
	case OP_BANR, OP_BANI:
		out = a & b
	case OP_BORR, OP_BORI:
		out = a | b
	case OP_SETR, OP_SETI:
		out = a
	case OP_GTIR, OP_GTRI, OP_GTRR:
		if a > b {
			out = 1
		}
	case OP_EQIR, OP_EQRI, OP_EQRR:
		if a == b {
			out = 1
		}
	default:
		panic(ErrOpcodeInvalid)
	}

	reg[code.C] = out
}

// String returns the canonical assembly text for this instruction. The text
// round-trips through the assembler.
func (code Code) String() string {
	return fmt.Sprintf("%v %v %v %v", code.Op, code.A, code.B, code.C)
}
