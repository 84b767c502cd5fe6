package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
)

// REGISTERS is the size of the register file.
const REGISTERS = 6

// HALT is the bound register value that halts the machine: once the
// pointer increment wraps, it can never reenter a program.
const HALT = ^uint64(0)

var _cpu_defines = map[string]string{
	"REGISTERS": fmt.Sprintf("%v", REGISTERS),
	"OPCODES":   fmt.Sprintf("%v", OPCODES),
	"HALT":      fmt.Sprintf("%v", uint64(HALT)),
}

// Register is the machine's register file.
type Register [REGISTERS]uint64

// String renders the register file in trace listing form.
func (reg Register) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d, %d, %d]",
		reg[0], reg[1], reg[2], reg[3], reg[4], reg[5])
}

// Cpu is the simulation context for the six register machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Program *Program // Program to execute.

	Ip       uint64   // Current instruction pointer.
	Register Register // Register file.
	Steps    uint64   // Executed instruction count.
}

// NewCpu creates a new machine for a program.
func NewCpu(prog *Program) (cpu *Cpu) {
	cpu = &Cpu{
		Program: prog,
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset clears the machine state and seeds register 0.
func (cpu *Cpu) Reset(r0 uint64) {
	cpu.Ip = 0
	cpu.Register = Register{}
	cpu.Register[0] = r0
	cpu.Steps = 0
}

// Halted reports whether the instruction pointer is outside the program.
func (cpu *Cpu) Halted() bool {
	return cpu.Ip >= uint64(len(cpu.Program.Opcodes))
}

// Step performs one instruction cycle: halt check, bind write, execute,
// bind read back, increment. Returns false once the machine has halted.
func (cpu *Cpu) Step() (running bool) {
	size := uint64(len(cpu.Program.Opcodes))
	if cpu.Ip >= size {
		return
	}

	code := cpu.Program.Fetch(cpu.Ip)
	if cpu.Verbose {
		log.Printf("%4d: %v %v", cpu.Ip, code, cpu.Register)
	}

	cpu.Register[cpu.Program.Bind] = cpu.Ip
	code.Apply(&cpu.Register)
	cpu.Steps++

	cpu.Ip = cpu.Register[cpu.Program.Bind] + 1
	if cpu.Ip == 0 {
		// The increment wrapped; the pointer stays pinned outside.
		cpu.Ip = HALT
	}

	running = cpu.Ip < size
	return
}

// Run executes instructions until the machine halts. A non-zero limit
// bounds the number of executed instructions.
func (cpu *Cpu) Run(limit uint64) (err error) {
	for cpu.Step() {
		if limit != 0 && cpu.Steps >= limit {
			err = ErrStepLimit
			return
		}
	}

	return
}

// String returns the current machine state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("ip=%d %v steps=%d", cpu.Ip, cpu.Register, cpu.Steps)
	return
}
