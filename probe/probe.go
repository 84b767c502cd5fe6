// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package probe analyzes programs whose only exit is an equality test
// between a generated signal register and register 0. Driving the program
// until the signal sequence repeats yields the register 0 values that halt
// it soonest and latest.
package probe

import (
	"errors"
	"iter"
	"log"

	"github.com/ezrec/hexad/cpu"
	"github.com/ezrec/hexad/translate"
)

var f = translate.From

var (
	ErrCheckpointInvalid = errors.New(f("checkpoint outside program"))
	ErrStrategyInvalid   = errors.New(f("strategy invalid"))
	ErrReduceMissing     = errors.New(f("reduce function missing"))
	ErrProbeHalt         = errors.New(f("halted before a repeat"))
	ErrProbeLimit        = errors.New(f("probe limit exhausted"))
)

// PROBE_LIMIT is the default cap on recorded signal values. Real inputs
// repeat within tens of thousands of values; the cap guards against a
// misconfigured checkpoint or signal register.
const PROBE_LIMIT = 1 << 20

// StepFunc derives the next signal value from the previous one, standing
// in for a full pass of the program's generator loop.
type StepFunc func(signal uint64) uint64

// Bounds are the two halting answers for a probed program. Seeding
// register 0 with First halts it in the fewest executed instructions,
// Last in the most.
type Bounds struct {
	First uint64 // First signal value the program tests.
	Last  uint64 // Last new signal value before the sequence repeats.
}

// Probe watches a program's halt test and derives its halting bounds.
type Probe struct {
	Verbose bool // Set to enable verbose logging.

	Program    *cpu.Program // Program under analysis.
	Checkpoint uint64       // Instruction index of the halt test.
	Signal     uint64       // Register compared against register 0 there.
	Seed       uint64       // Register 0 value that never matches a signal.
	Strategy   Strategy     // How to advance between checkpoint visits.
	Reduce     StepFunc     // Closed form pass, required by STRATEGY_REDUCED.
	Limit      uint64       // Cap on recorded values (0 = PROBE_LIMIT).
	StepLimit  uint64       // Direct strategy instruction cap (0 = unlimited).

	History History // Signal values observed at the checkpoint, in order.
}

// FindBounds drives the program until a signal value repeats, then reports
// the first and last new values observed at the checkpoint.
func (probe *Probe) FindBounds() (bounds Bounds, err error) {
	if probe.Checkpoint >= uint64(probe.Program.Len()) {
		err = ErrCheckpointInvalid
		return
	}
	if probe.Signal >= cpu.REGISTERS {
		err = cpu.ErrRegisterInvalid
		return
	}

	limit := probe.Limit
	if limit == 0 {
		limit = PROBE_LIMIT
	}

	probe.History.Reset()

	switch probe.Strategy {
	case STRATEGY_DIRECT:
		err = probe.direct(limit)
	case STRATEGY_REDUCED:
		err = probe.reduced(limit)
	default:
		err = ErrStrategyInvalid
	}
	if err != nil {
		return
	}

	values := probe.History.Values
	bounds = Bounds{
		First: values[0],
		Last:  values[len(values)-2],
	}

	return
}

// direct steps the machine, sampling the signal register whenever control
// reaches the checkpoint.
func (probe *Probe) direct(limit uint64) (err error) {
	mach := cpu.NewCpu(probe.Program)
	mach.Reset(probe.Seed)

	for {
		if mach.Ip == probe.Checkpoint {
			value := mach.Register[probe.Signal]
			if !probe.History.Push(value) {
				return
			}
			if probe.Verbose {
				log.Printf("%6d: %v", probe.History.Len(), value)
			}
			if uint64(probe.History.Len()) >= limit {
				err = ErrProbeLimit
				return
			}
		}

		if !mach.Step() {
			err = ErrProbeHalt
			return
		}
		if probe.StepLimit != 0 && mach.Steps >= probe.StepLimit {
			err = cpu.ErrStepLimit
			return
		}
	}
}

// reduced iterates the closed form pass instead of stepping the machine.
// The signal register starts at zero, like every register the seed does
// not touch.
func (probe *Probe) reduced(limit uint64) (err error) {
	if probe.Reduce == nil {
		err = ErrReduceMissing
		return
	}

	signal := uint64(0)
	for {
		signal = probe.Reduce(signal)
		if !probe.History.Push(signal) {
			return
		}
		if probe.Verbose {
			log.Printf("%6d: %v", probe.History.Len(), signal)
		}
		if uint64(probe.History.Len()) >= limit {
			err = ErrProbeLimit
			return
		}
	}
}

// Signals iterates the signal values seen at the checkpoint in program
// order, without repeat detection. The sequence does not terminate for a
// non-halting program; the consumer decides when to stop.
func (probe *Probe) Signals() iter.Seq[uint64] {
	if probe.Strategy == STRATEGY_REDUCED && probe.Reduce != nil {
		return func(yield func(uint64) bool) {
			signal := uint64(0)
			for {
				signal = probe.Reduce(signal)
				if !yield(signal) {
					return
				}
			}
		}
	}

	return func(yield func(uint64) bool) {
		mach := cpu.NewCpu(probe.Program)
		mach.Reset(probe.Seed)

		for {
			if mach.Ip == probe.Checkpoint {
				if !yield(mach.Register[probe.Signal]) {
					return
				}
			}
			if !mach.Step() {
				return
			}
		}
	}
}
