package probe

// History records signal values in observation order, tracking repeats.
// Values holds every pushed value; a repeated value lands in Values as its
// terminal element, so a completed history ends with a duplicate of some
// earlier value.
type History struct {
	Values []uint64

	seen map[uint64]struct{}
}

// Push appends a value, reporting false once the value repeats an earlier
// one.
func (hist *History) Push(value uint64) (ok bool) {
	if hist.seen == nil {
		hist.seen = make(map[uint64]struct{}, 64)
	}

	hist.Values = append(hist.Values, value)
	if _, repeat := hist.seen[value]; repeat {
		return
	}
	hist.seen[value] = struct{}{}

	ok = true
	return
}

// Seen reports whether a value has been observed.
func (hist *History) Seen(value uint64) (seen bool) {
	_, seen = hist.seen[value]
	return
}

// Len returns the number of recorded values.
func (hist *History) Len() int {
	return len(hist.Values)
}

// Reset discards all recorded values.
func (hist *History) Reset() {
	hist.Values = hist.Values[:0]
	clear(hist.seen)
}
