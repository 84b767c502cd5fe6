package cpu

import (
	"math/bits"
)

// Sample is one observed machine transition: the register file before, a
// raw numeric instruction, and the register file after.
type Sample struct {
	Before Register  // Register file before execution.
	Raw    [4]uint64 // Raw instruction: opcode number, A, B, C.
	After  Register  // Register file after execution.
}

// Matches returns the opcodes whose semantics are consistent with the
// sample. Opcodes whose operand modes reject the sample's operands are
// never consistent.
func (sample Sample) Matches() (ops []Op) {
	for op := range Ops() {
		code := Code{Op: op, A: sample.Raw[1], B: sample.Raw[2], C: sample.Raw[3]}
		if code.Validate() != nil {
			continue
		}
		register := sample.Before
		code.Apply(&register)
		if register == sample.After {
			ops = append(ops, op)
		}
	}

	return
}

// InferOps recovers the raw number to opcode assignment from observed
// samples by candidate elimination. A raw number whose candidates narrow
// to one opcode is solved, and strikes that opcode from every other raw
// number's candidates.
func InferOps(samples []Sample) (assign map[uint64]Op, err error) {
	all := uint16(1<<OPCODES - 1)

	candidate := map[uint64]uint16{}
	for _, sample := range samples {
		var mask uint16
		for _, op := range sample.Matches() {
			mask |= 1 << uint(op)
		}
		raw := sample.Raw[0]
		prior, ok := candidate[raw]
		if !ok {
			prior = all
		}
		candidate[raw] = prior & mask
	}

	assign = make(map[uint64]Op, len(candidate))
	taken := uint16(0)
	for len(assign) < len(candidate) {
		progress := false

		for raw, mask := range candidate {
			if _, done := assign[raw]; done {
				continue
			}
			mask &= ^taken
			if mask == 0 {
				err = ErrInferConflict
				return
			}
			if bits.OnesCount16(mask) == 1 {
				assign[raw] = Op(bits.TrailingZeros16(mask))
				taken |= mask
				progress = true
			}
		}

		if !progress {
			err = ErrInferUnresolved
			return
		}
	}

	return
}

// Decode converts raw numeric instructions into validated codes using an
// opcode assignment.
func Decode(assign map[uint64]Op, raws [][4]uint64) (codes []Code, err error) {
	codes = make([]Code, 0, len(raws))
	for _, raw := range raws {
		op, ok := assign[raw[0]]
		if !ok {
			err = ErrRawUnknown(raw[0])
			return
		}
		code := Code{Op: op, A: raw[1], B: raw[2], C: raw[3]}
		err = code.Validate()
		if err != nil {
			return
		}
		codes = append(codes, code)
	}

	return
}
