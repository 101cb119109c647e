package systems

import (
	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/store"
)

// Census is the population picture after a step.
type Census struct {
	Counts      faction.Counts
	Total       int
	Equilibrium float64
	Weakest     faction.Faction
	Strongest   faction.Faction
}

// TakeCensus reads live counts from the store.
func TakeCensus(s *store.Store) Census {
	c := s.Counts()
	return Census{
		Counts:      c,
		Total:       c.Total(),
		Equilibrium: c.Equilibrium(),
		Weakest:     c.Weakest(),
		Strongest:   c.Strongest(),
	}
}
