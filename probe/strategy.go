package probe

// Strategy selects how the probe advances between checkpoint visits.
type Strategy int

//go:generate go tool stringer -linecomment -type=Strategy
const (
	STRATEGY_DIRECT  = Strategy(0) // direct
	STRATEGY_REDUCED = Strategy(1) // reduced
)
