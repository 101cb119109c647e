package faction

// Counts holds the live agent count per faction, indexed by Faction.
type Counts [Count]int

// Total returns the sum of all counts.
func (c Counts) Total() int {
	return c[Fire] + c[Water] + c[Earth]
}

// Weakest returns the faction with the fewest agents.
// Ties go to the first faction in declaration order.
func (c Counts) Weakest() Faction {
	chosen := All[0]
	for _, f := range All[1:] {
		if c[f] < c[chosen] {
			chosen = f
		}
	}
	return chosen
}

// Strongest returns the faction with the most agents.
// Ties go to the first faction in declaration order.
func (c Counts) Strongest() Faction {
	chosen := All[0]
	for _, f := range All[1:] {
		if c[f] > c[chosen] {
			chosen = f
		}
	}
	return chosen
}

// Equilibrium scores how evenly agents are spread, in [0, 1].
// An empty population is perfectly balanced.
func (c Counts) Equilibrium() float64 {
	total := c.Total()
	if total == 0 {
		return 1
	}
	lo, hi := c[Fire], c[Fire]
	for _, f := range All[1:] {
		lo = min(lo, c[f])
		hi = max(hi, c[f])
	}
	balance := 1 - float64(hi-lo)/float64(total)
	return max(0, min(1, balance))
}

// Exhausted reports whether some faction has no agents while others do.
func (c Counts) Exhausted() bool {
	if c.Total() == 0 {
		return false
	}
	for _, f := range All {
		if c[f] == 0 {
			return true
		}
	}
	return false
}

// Dominant reports whether a single faction holds the whole nonzero population.
func (c Counts) Dominant() (Faction, bool) {
	total := c.Total()
	if total == 0 {
		return 0, false
	}
	for _, f := range All {
		if c[f] == total {
			return f, true
		}
	}
	return 0, false
}
