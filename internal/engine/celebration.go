package engine

// Celebration detects the moment the completed count reaches the total.
//
// It fires on the crossing edge only: a count that is already at the total
// when the detector is seeded, or that stays there, never fires again.
type Celebration struct {
	total int
	last  int
}

// NewCelebration creates a detector seeded with the count loaded from
// storage.
func NewCelebration(total, seed int) *Celebration {
	return &Celebration{total: total, last: seed}
}

// Observe records the new count and reports whether it just crossed from
// below the total to at-or-above it. A zero total never fires.
func (c *Celebration) Observe(count int) bool {
	fired := c.total > 0 && c.last < c.total && count >= c.total
	c.last = count
	return fired
}

// Total returns the count that triggers the celebration.
func (c *Celebration) Total() int {
	return c.total
}
