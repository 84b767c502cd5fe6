package cpu

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Equal(uint64(0), prog.Bind)

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal(fmt.Sprintf("%v", REGISTERS), asm.Equate["REGISTERS"])
	assert.Equal(fmt.Sprintf("%v", OPCODES), asm.Equate["OPCODES"])
	assert.Equal(fmt.Sprintf("%v", uint64(HALT)), asm.Equate["HALT"])
}

func opEqual(t *testing.T, expected, opcodes []Opcode) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(opcodes))
	if len(expected) == len(opcodes) {
		for n := range len(expected) {
			assert.Equal(expected[n], opcodes[n])
		}
	}
}

func TestAssemblerBind(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"; count to 6 by skipping over an instruction",
		"#ip 0",
		"seti 5 0 1",
		"seti 6 0 2",
		"addi 0 1 0",
		"addr 1 2 3",
		"setr 1 0 0",
		"seti 8 0 4",
		"seti 9 0 5",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(uint64(0), prog.Bind)

	expected := []Opcode{
		{3, 0, []string{"seti", "5", "0", "1"}, Code{OP_SETI, 5, 0, 1}, "", 0},
		{4, 1, []string{"seti", "6", "0", "2"}, Code{OP_SETI, 6, 0, 2}, "", 0},
		{5, 2, []string{"addi", "0", "1", "0"}, Code{OP_ADDI, 0, 1, 0}, "", 0},
		{6, 3, []string{"addr", "1", "2", "3"}, Code{OP_ADDR, 1, 2, 3}, "", 0},
		{7, 4, []string{"setr", "1", "0", "0"}, Code{OP_SETR, 1, 0, 0}, "", 0},
		{8, 5, []string{"seti", "8", "0", "4"}, Code{OP_SETI, 8, 0, 4}, "", 0},
		{9, 6, []string{"seti", "9", "0", "5"}, Code{OP_SETI, 9, 0, 5}, "", 0},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		".equ CONST_10 0x10",
		"seti CONST_10 0 1",
		"seti $(CONST_10 + CONST_10) 0 2",
		".equ CONST_30 $(2 * CONST_10 + CONST_10)",
		"seti CONST_30 0 3",
		"seti $(LINENO * 8 + 0x10) 0 4",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(errors.Unwrap(err))
	}

	assert.Equal("0x10", asm.Equate["CONST_10"])
	assert.Equal("0x30", asm.Equate["CONST_30"])

	expected := []Opcode{
		{2, 0, []string{"seti", "0x10", "0", "1"}, Code{OP_SETI, 0x10, 0, 1}, "", 0},
		{3, 1, []string{"seti", "0x20", "0", "2"}, Code{OP_SETI, 0x20, 0, 2}, "", 0},
		{5, 2, []string{"seti", "0x30", "0", "3"}, Code{OP_SETI, 0x30, 0, 3}, "", 0},
		{6, 3, []string{"seti", "0x40", "0", "4"}, Code{OP_SETI, 0x40, 0, 4}, "", 0},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerChar(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"seti 'A' 0 0",
		"seti ' ' 0 1",
		"seti '\\n' 0 2",
		"seti '\\r' 0 3",
		"seti '\\e' 0 4",
		"seti '\\\\' 0 5",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Opcode{
		{1, 0, []string{"seti", "65", "0", "0"}, Code{OP_SETI, 65, 0, 0}, "", 0},
		{2, 1, []string{"seti", "32", "0", "1"}, Code{OP_SETI, 32, 0, 1}, "", 0},
		{3, 2, []string{"seti", "10", "0", "2"}, Code{OP_SETI, 10, 0, 2}, "", 0},
		{4, 3, []string{"seti", "13", "0", "3"}, Code{OP_SETI, 13, 0, 3}, "", 0},
		{5, 4, []string{"seti", "27", "0", "4"}, Code{OP_SETI, 27, 0, 4}, "", 0},
		{6, 5, []string{"seti", "92", "0", "5"}, Code{OP_SETI, 92, 0, 5}, "", 0},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		".macro SETADD rd a b",
		"seti a 0 rd",
		"addi rd b rd",
		".endm",
		"SETADD 1 8 8",
		".equ CONST_10 0x10",
		"SETADD 2 CONST_10 CONST_10",
		"SETADD 3 $(CONST_10 + CONST_10) $(~0)",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Opcode{
		{2, 0, []string{"seti", "8", "0", "1"}, Code{OP_SETI, 8, 0, 1}, "", 0},
		{3, 1, []string{"addi", "1", "8", "1"}, Code{OP_ADDI, 1, 8, 1}, "", 0},
		{2, 2, []string{"seti", "0x10", "0", "2"}, Code{OP_SETI, 0x10, 0, 2}, "", 0},
		{3, 3, []string{"addi", "2", "0x10", "2"}, Code{OP_ADDI, 2, 0x10, 2}, "", 0},
		{2, 4, []string{"seti", "0x20", "0", "3"}, Code{OP_SETI, 0x20, 0, 3}, "", 0},
		{3, 5, []string{"addi", "3", "0xffffffffffffffff", "3"}, Code{OP_ADDI, 3, ^uint64(0), 3}, "", 0},
	}

	opEqual(t, expected, prog.Opcodes)

	// '@' expands to a per-expansion prefix, giving macros local labels.
	program = []string{
		"#ip 5",
		"seti 0 0 0",
		".macro SPIN",
		"@top: jump @top",
		".endm",
		"SPIN",
	}

	prog, err = asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(uint64(5), prog.Bind)

	expected = []Opcode{
		{2, 0, []string{"seti", "0", "0", "0"}, Code{OP_SETI, 0, 0, 0}, "", 0},
		{4, 1, []string{"jump", "SPIN_4_top"}, Code{OP_SETI, 0, 0, 5}, "SPIN_4_top", 0},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"#ip 3",
		"start: seti 0 0 0",
		"loop: addi 0 1 0",
		"eqri 0 5 1",
		"addr 1 3 3",
		"jump loop",
		"halt",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(uint64(3), prog.Bind)
	assert.Equal(0, asm.Label["start"])
	assert.Equal(1, asm.Label["loop"])

	expected := []Opcode{
		{2, 0, []string{"seti", "0", "0", "0"}, Code{OP_SETI, 0, 0, 0}, "", 0},
		{3, 1, []string{"addi", "0", "1", "0"}, Code{OP_ADDI, 0, 1, 0}, "", 0},
		{4, 2, []string{"eqri", "0", "5", "1"}, Code{OP_EQRI, 0, 5, 1}, "", 0},
		{5, 3, []string{"addr", "1", "3", "3"}, Code{OP_ADDR, 1, 3, 3}, "", 0},
		{6, 4, []string{"jump", "loop"}, Code{OP_SETI, 0, 0, 3}, "loop", 0},
		{7, 5, []string{"halt"}, Code{OP_SETI, HALT, 0, 3}, "", 0},
	}

	opEqual(t, expected, prog.Opcodes)

	cpu := NewCpu(prog)
	cpu.Reset(0)
	assert.NoError(cpu.Run(0))
	assert.Equal(uint64(5), cpu.Register[0])
	assert.Equal(uint64(21), cpu.Steps)

	// Numeric jump targets work the same way.
	program = []string{
		"#ip 1",
		"seti 0 0 0",
		"jump 3",
		"seti 9 0 0",
		"halt",
	}

	prog, err = asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	expected = []Opcode{
		{2, 0, []string{"seti", "0", "0", "0"}, Code{OP_SETI, 0, 0, 0}, "", 0},
		{3, 1, []string{"jump", "3"}, Code{OP_SETI, 2, 0, 1}, "", 0},
		{4, 2, []string{"seti", "9", "0", "0"}, Code{OP_SETI, 9, 0, 0}, "", 0},
		{5, 3, []string{"halt"}, Code{OP_SETI, HALT, 0, 1}, "", 0},
	}

	opEqual(t, expected, prog.Opcodes)

	cpu = NewCpu(prog)
	cpu.Reset(0)
	assert.NoError(cpu.Run(0))
	assert.Equal(uint64(0), cpu.Register[0])
	assert.Equal(uint64(3), cpu.Steps)
}

func TestAssemblerLabelOperand(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"#ip 4",
		"entry: seti entry 0 0",
		"seti done 0 1",
		"",
		"done: final:",
		"halt",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(0, asm.Label["entry"])
	assert.Equal(2, asm.Label["done"])
	assert.Equal(2, asm.Label["final"])

	expected := []Opcode{
		{2, 0, []string{"seti", "entry", "0", "0"}, Code{OP_SETI, 0, 0, 0}, "entry", 0},
		{3, 1, []string{"seti", "done", "0", "1"}, Code{OP_SETI, 2, 0, 1}, "done", 0},
		{6, 2, []string{"halt"}, Code{OP_SETI, HALT, 0, 4}, "", 0},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("TUNE", "42")

	prog, err := asm.Parse(strings.NewReader("seti TUNE 0 0"))
	assert.NoError(err)
	assert.Equal("42", asm.Equate["TUNE"])

	expected := []Opcode{
		{1, 0, []string{"seti", "42", "0", "0"}, Code{OP_SETI, 42, 0, 0}, "", 0},
	}

	opEqual(t, expected, prog.Opcodes)

	// Predefines persist across parses and may be redefined.
	asm.Predefine("TUNE", "7")

	prog, err = asm.Parse(strings.NewReader("seti TUNE 0 0"))
	assert.NoError(err)

	expected = []Opcode{
		{1, 0, []string{"seti", "7", "0", "0"}, Code{OP_SETI, 7, 0, 0}, "", 0},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerParseFS(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.ParseFS(os.DirFS("testdata"), "trace.hx")
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(uint64(0), prog.Bind)
	assert.Equal(7, prog.Len())
	assert.Equal(Code{OP_SETI, 5, 0, 1}, prog.Fetch(0))

	_, err = asm.ParseFS(os.DirFS("testdata"), "missing.hx")
	assert.Error(err)
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors
	table := [](struct {
		prog string
		line int
	}){
		{"DUP:\nDUP:\n", 2},
		{"seti nothing 0 1", 1},
		{"jump nowhere", 1},
		{"start: jump start", 1},
		{"jump 0", 1},
		{"jump", 1},
		{"jump 1 2", 1},
		{"halt 1", 1},
		{"nop 1 2 3", 1},
		{"seti 1 2", 1},
		{"seti 1 2 3 4", 1},
		{"addr one two 0", 1},
		{"seti 0 0 9", 1},
		{"addr 9 0 0", 1},
		{"addr 0 9 0", 1},
		{"seti '' 0 1", 1},
		{"seti 'ab' 0 1", 1},
		{"seti ~zz 0 1", 1},
		{"seti $(\"aaa\") 0 1", 1},
		{"seti $(more(\"aaa\")) 0 1", 1},
		{"seti $(1 << 64) 0 1", 1},
		{".equ", 1},
		{".equ A", 1},
		{".equ A 1\n.equ A 2\n", 2},
		{".macro", 1},
		{".macro A B\n.endm\nA 1 2\n", 3},
		{".macro A B\nB 0 0 0\n.endm\nA bad\n", 4},
		{".macro A\n.macro B\n.endm\n.endm\n", 2},
		{".macro A\n.endm\n.macro A\n.endm\n", 3},
		{".macro A\n.endm\n.endm\n", 3},
		{".macro A\nseti 0 0 0\n", 2},
		{"#ip", 1},
		{"#ip 1 2", 1},
		{"#ip 6", 1},
		{"#ip x", 1},
		{"#ip 0\n#ip 1\n", 2},
		{"seti 0 0 1\n#ip 0\n", 2},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		var se *ErrSyntax
		assert.NotNil(err, entry.prog)
		if err != nil {
			assert.True(errors.As(err, &se), entry.prog)
			assert.Equal(entry.line, se.LineNo, entry.prog)
		}
	}
}
