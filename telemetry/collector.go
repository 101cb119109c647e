package telemetry

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/equilibrium/faction"
)

// Collector accumulates events within time windows and produces WindowStats.
// Windows are measured in simulation seconds so pausing and time scaling do
// not distort them.
type Collector struct {
	windowDuration float64
	windowStart    float64

	wins          faction.Counts
	criticals     int
	interventions int
	combos        int
	drifted       int
	thinned       int
	fragments     int
	duplicates    int
	purged        int

	equilibrium []float64
}

// NewCollector creates a collector flushing every windowDuration seconds.
func NewCollector(windowDuration float64) *Collector {
	if windowDuration <= 0 {
		windowDuration = 1
	}
	return &Collector{windowDuration: windowDuration}
}

// RecordConversion records one conversion won by winner.
func (c *Collector) RecordConversion(winner faction.Faction, critical bool) {
	c.wins[winner]++
	if critical {
		c.criticals++
	}
}

// RecordIntervention records an applied ability.
func (c *Collector) RecordIntervention() {
	c.interventions++
}

// RecordCombo records a fired combo.
func (c *Collector) RecordCombo() {
	c.combos++
}

// RecordDrift records forced conversions.
func (c *Collector) RecordDrift(n int) {
	c.drifted += n
}

// RecordThinned records agents marked to fade.
func (c *Collector) RecordThinned(n int) {
	c.thinned += n
}

// RecordFragments records fragment spawns.
func (c *Collector) RecordFragments(n int) {
	c.fragments += n
}

// RecordDuplicates records duplicate spawns.
func (c *Collector) RecordDuplicates(n int) {
	c.duplicates += n
}

// RecordPurged records agents destroyed by purges and overloads.
func (c *Collector) RecordPurged(n int) {
	c.purged += n
}

// Sample records the equilibrium score of one step.
func (c *Collector) Sample(equilibrium float64) {
	c.equilibrium = append(c.equilibrium, equilibrium)
}

// ShouldFlush returns true once the current window has run its length.
func (c *Collector) ShouldFlush(now float64) bool {
	return now-c.windowStart >= c.windowDuration
}

// Flush produces a WindowStats for the window ending at now and resets the
// counters for the next window.
func (c *Collector) Flush(now float64, counts faction.Counts) WindowStats {
	s := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   now,

		Fire:  counts[faction.Fire],
		Water: counts[faction.Water],
		Earth: counts[faction.Earth],
		Total: counts.Total(),

		FireWins:  c.wins[faction.Fire],
		WaterWins: c.wins[faction.Water],
		EarthWins: c.wins[faction.Earth],
		Criticals: c.criticals,

		Interventions: c.interventions,
		Combos:        c.combos,
		Drifted:       c.drifted,
		Thinned:       c.thinned,
		Fragments:     c.fragments,
		Duplicates:    c.duplicates,
		Purged:        c.purged,
	}
	s.EquilibriumMean, s.EquilibriumStd, s.EquilibriumMin, s.EquilibriumMax = summarize(c.equilibrium)

	c.reset(now)
	return s
}

// Reset discards the current window and starts a new one at now.
func (c *Collector) Reset(now float64) {
	c.reset(now)
}

func (c *Collector) reset(now float64) {
	c.windowStart = now
	c.wins = faction.Counts{}
	c.criticals = 0
	c.interventions = 0
	c.combos = 0
	c.drifted = 0
	c.thinned = 0
	c.fragments = 0
	c.duplicates = 0
	c.purged = 0
	c.equilibrium = c.equilibrium[:0]
}

// summarize returns mean, standard deviation, min and max of xs.
func summarize(xs []float64) (mean, std, lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(xs, nil)
	if len(xs) > 1 {
		std = stat.StdDev(xs, nil)
	}
	return mean, std, floats.Min(xs), floats.Max(xs)
}
