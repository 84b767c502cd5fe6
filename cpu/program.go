package cpu

import (
	"fmt"
	"iter"
	"strings"
)

type Program struct {
	Bind    uint64 // Register bound to the instruction pointer.
	Opcodes []Opcode
}

// NewProgram builds a program directly from decoded instructions.
func NewProgram(bind uint64, codes ...Code) (prog *Program) {
	prog = &Program{Bind: bind}
	for n, code := range codes {
		prog.Opcodes = append(prog.Opcodes, Opcode{
			Ip:    n,
			Words: strings.Fields(code.String()),
			Code:  code,
		})
	}

	return
}

func (prog *Program) Len() int {
	return len(prog.Opcodes)
}

func (prog *Program) Fetch(ip uint64) Code {
	return prog.Opcodes[ip].Code
}

func (prog *Program) Debug(ip uint64) (op *Opcode) {
	if ip < uint64(len(prog.Opcodes)) {
		op = &prog.Opcodes[ip]
	}

	return
}

func (prog *Program) Codes() iter.Seq2[uint64, Code] {
	return func(yield func(ip uint64, code Code) bool) {
		for n := range prog.Opcodes {
			if !yield(uint64(n), prog.Opcodes[n].Code) {
				return
			}
		}
	}
}

// Listing renders the program as assembly text that reassembles to the
// same program.
func (prog *Program) Listing() string {
	var text strings.Builder
	fmt.Fprintf(&text, "#ip %v\n", prog.Bind)
	for _, code := range prog.Codes() {
		fmt.Fprintf(&text, "%v\n", code)
	}

	return text.String()
}
