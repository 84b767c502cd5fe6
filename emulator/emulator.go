// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/hexad/cpu"
	"github.com/ezrec/hexad/internal"
)

const (
	STEP_LIMIT   = 50_000_000 // Default instruction budget per run.
	RECENT_DEPTH = 8          // Executed records kept for post-mortem context.
)

var _emulator_defines = map[string]string{
	"STEP_LIMIT": fmt.Sprintf("%v", STEP_LIMIT),
}

// Record is one executed instruction with the register file around it.
type Record struct {
	Ip     uint64       // Pointer value when the instruction was fetched.
	Code   cpu.Code     // Instruction executed.
	Before cpu.Register // Registers after the bind write, before execution.
	After  cpu.Register // Registers after execution and read back.
}

// String renders the record as one trace listing line.
func (rec Record) String() string {
	return fmt.Sprintf("ip=%d %v %v %v", rec.Ip, rec.Before, rec.Code, rec.After)
}

// Emulator state. Machine + instruction budget + trace output.
type Emulator struct {
	Verbose  bool // If set, enables verbose logging.
	*cpu.Cpu      // Reference to the machine simulation.

	Trace  io.Writer              // Trace listing output, when set.
	Limit  uint64                 // Instruction budget per run (0 = STEP_LIMIT).
	Recent *internal.Ring[Record] // Most recently executed records.
}

// NewEmulator creates a new emulator with an empty program.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:    cpu.NewCpu(&cpu.Program{}),
		Recent: internal.NewRing[Record](RECENT_DEPTH),
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() (lineno int) {
	op := emu.Program.Debug(emu.Cpu.Ip)
	if op != nil {
		lineno = op.LineNo
	}

	return
}

// Tick executes a single instruction, recording it to the trace writer and
// the recent ring.
func (emu *Emulator) Tick() (done bool, err error) {
	emu.Cpu.Verbose = emu.Verbose

	ip := emu.Cpu.Ip
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Ip: ip, LineNo: lineno, Err: err}
		}
	}()

	if emu.Cpu.Halted() {
		done = true
		return
	}

	rec := Record{
		Ip:     ip,
		Code:   emu.Program.Fetch(ip),
		Before: emu.Cpu.Register,
	}
	rec.Before[emu.Program.Bind] = ip

	emu.Cpu.Step()

	rec.After = emu.Cpu.Register
	emu.Recent.Push(rec)

	if emu.Trace != nil {
		_, err = fmt.Fprintln(emu.Trace, rec)
	}

	return
}

// Run resets the machine with register 0 seeded, then executes until the
// program halts or the instruction budget runs out.
func (emu *Emulator) Run(r0 uint64) (register cpu.Register, steps uint64, err error) {
	limit := emu.Limit
	if limit == 0 {
		limit = STEP_LIMIT
	}

	emu.Recent.Reset()
	emu.Cpu.Reset(r0)

	var done bool
	for !done {
		done, err = emu.Tick()
		if err != nil {
			break
		}
		if !emu.Cpu.Halted() && emu.Cpu.Steps >= limit {
			err = &ErrRuntime{Ip: emu.Cpu.Ip, LineNo: emu.LineNo(), Err: cpu.ErrStepLimit}
			break
		}
	}

	if err != nil && emu.Verbose {
		for _, rec := range emu.Recent.Values() {
			log.Printf("%v", rec)
		}
	}

	register = emu.Cpu.Register
	steps = emu.Cpu.Steps

	return
}
