// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ezrec/hexad/cpu"
	"github.com/ezrec/hexad/emulator"
	"github.com/ezrec/hexad/internal"
	"github.com/ezrec/hexad/probe"
)

func main() {
	var compile string
	var list bool
	var r0 uint64
	var limit uint64
	var trace bool
	var bounds bool
	var checkpoint uint64
	var signal uint64
	var signals uint
	var verbose bool

	flag.StringVar(&compile, "c", "", ".hx file to compile")
	flag.BoolVar(&list, "l", false, "List the compiled program, do not execute")
	flag.Uint64Var(&r0, "r0", 0, "Initial register 0 value")
	flag.Uint64Var(&limit, "n", 0, "Instruction budget (0 = default)")
	flag.BoolVar(&trace, "t", false, "Trace each executed instruction")
	flag.BoolVar(&bounds, "p", false, "Probe for halting bounds, do not execute")
	flag.Uint64Var(&checkpoint, "checkpoint", 0, "Instruction index of the halt test")
	flag.Uint64Var(&signal, "signal", 0, "Register compared against register 0")
	flag.UintVar(&signals, "signals", 0, "Print the first N halt test values, do not execute")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(compile) == 0 {
		log.Fatalf("%v: No program to compile (-c)", os.Args[0])
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Limit = limit

	asm := &cpu.Assembler{Verbose: verbose}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	inf, err := os.Open(compile)
	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}
	defer inf.Close()

	prog, err := asm.Parse(inf)
	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}

	if list {
		fmt.Print(prog.Listing())
		return
	}

	if bounds || signals != 0 {
		pr := &probe.Probe{
			Verbose:    verbose,
			Program:    prog,
			Checkpoint: checkpoint,
			Signal:     signal,
			Seed:       r0,
			Strategy:   probe.STRATEGY_DIRECT,
			StepLimit:  limit,
		}

		if signals != 0 {
			for value := range internal.IterSeqLimit(pr.Signals(), int(signals)) {
				fmt.Println(value)
			}
			return
		}

		found, err := pr.FindBounds()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		fmt.Printf("first: %v\n", found.First)
		fmt.Printf("last: %v\n", found.Last)
		return
	}

	emu.Program = prog
	if trace {
		emu.Trace = os.Stdout
	}

	register, steps, err := emu.Run(r0)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("halted after %v steps: %v\n", steps, register)
}
