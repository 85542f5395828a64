package pipeline

import "annostream/internal/genome"

// cursor is the chromosome the driver is positioned on. The zero value is
// positioned on nothing, so the first step always reports a change.
type cursor struct {
	index   int
	started bool
}

// step moves the cursor onto ch and reports whether that is a new chromosome.
func (c cursor) step(ch genome.Chromosome) (cursor, bool) {
	if c.started && c.index == ch.Index {
		return c, false
	}
	return cursor{index: ch.Index, started: true}, true
}
