package sched

// Clock is the scheduler's nested time registry. For every pair of scales
// where outer is strictly coarser than inner, it records how many inner
// ticks have occurred within the current outer period. Entries where
// outer is at or below inner are never incremented, so Time(s, s) is
// always 0.
type Clock struct {
	// times[outer][inner] = inner ticks within the current outer period.
	times [numScales][numScales]int
}

func newClock() *Clock {
	return &Clock{}
}

// Time returns the number of inner ticks that have occurred within the
// current outer period.
func (c *Clock) Time(outer, inner TimeScale) int {
	return c.times[outer][inner]
}

// increment records one completed unit of scale: every strictly coarser
// outer scale sees one more tick of it.
func (c *Clock) increment(scale TimeScale) {
	for outer := int(scale) + 1; outer < numScales; outer++ {
		c.times[outer][scale]++
	}
}

// reset zeroes the counts of every scale at or finer than scale within
// scale's own period. Counts held by coarser scales are untouched.
func (c *Clock) reset(scale TimeScale) {
	for inner := 0; inner <= int(scale); inner++ {
		c.times[scale][inner] = 0
	}
}
