// Package cpu implements the hexad register machine and its assembler.
//
// The machine consists of six 64-bit general-purpose registers (r0-r5) and an
// instruction pointer bound to one of them. Sixteen opcodes cover addition,
// multiplication, bitwise AND/OR, assignment, and greater-than/equality
// comparison, each in register ("r") and immediate ("i") operand forms.
// Programs jump by writing to the bound register: the pointer is stored into
// it before each instruction executes and read back (plus one) afterward, so
// the only halt condition is the pointer leaving the program.
//
// The assembler provides an assembly language for this instruction set,
// supporting macros, labels, equates, and compile-time expression evaluation.
package cpu
