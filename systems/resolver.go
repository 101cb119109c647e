package systems

import (
	"math"

	"github.com/pthm-cable/equilibrium/components"
	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/rng"
	"github.com/pthm-cable/equilibrium/store"
)

// Conversion records one resolved contact.
type Conversion struct {
	Winner   faction.Faction
	Loser    faction.Faction
	At       components.Position
	Critical bool
}

// ContactReport summarizes the contacts resolved in one step.
type ContactReport struct {
	Conversions []Conversion
	Bonus       faction.Counts // critical bonus conversions, by winner
	Fragments   faction.Counts // fragment spawns, by faction
	Duplicates  faction.Counts
	Bulwarks    int
}

// Total returns the number of agents that changed faction.
func (r *ContactReport) Total() int {
	return len(r.Conversions) + r.Bonus.Total()
}

// ResolverSystem applies cyclic dominance to contact pairs along with the
// secondary elemental effects.
type ResolverSystem struct {
	cfg *config.Config
	rng *rng.Stream
}

// NewResolverSystem creates a contact resolver.
func NewResolverSystem(cfg *config.Config, r *rng.Stream) *ResolverSystem {
	return &ResolverSystem{cfg: cfg, rng: r}
}

// Resolve processes contacts in order.
func (r *ResolverSystem) Resolve(s *store.Store, contacts []Contact, now float64) ContactReport {
	var report ContactReport
	for _, c := range contacts {
		r.resolve(s, c, now, &report)
	}
	return report
}

func (r *ResolverSystem) resolve(s *store.Store, c Contact, now float64, report *ContactReport) {
	posA, _, a, okA := s.Get(c.A)
	posB, _, b, okB := s.Get(c.B)
	if !okA || !okB || !a.Active() || !b.Active() {
		return
	}
	if a.Faction == b.Faction || a.Shielded || b.Shielded {
		return
	}
	if !a.ReadyForContact(now) || !b.ReadyForContact(now) {
		return
	}

	loserID := c.B
	winner, loser := a, b
	if faction.Beats(b.Faction, a.Faction) {
		loserID = c.A
		winner, loser = b, a
	}

	impact := components.Position{X: (posA.X + posB.X) / 2, Y: (posA.Y + posB.Y) / 2}
	wf, lf := winner.Faction, loser.Faction

	// Stamps go on before any spawn: growing the store invalidates component pointers.
	winner.NextInteractionAt = now + r.cfg.Interaction.AttackerRearm
	loser.InteractionGuardUntil = now + r.cfg.Interaction.DefenderGuard
	s.Convert(loserID, wf)

	conv := Conversion{Winner: wf, Loser: lf, At: impact}

	switch wf {
	case faction.Fire:
		r.fragment(s, impact, now, report)
	case faction.Water:
		r.duplicate(s, impact, now, report)
	case faction.Earth:
		r.bulwark(s, impact, now, report)
	}

	if r.rng.Chance(r.cfg.Elements.Critical.Chance) {
		conv.Critical = true
		r.critical(s, wf, impact, now, report)
	}
	report.Conversions = append(report.Conversions, conv)
}

// fragment spawns short-lived Fire fragments around the impact point.
func (r *ResolverSystem) fragment(s *store.Store, at components.Position, now float64, report *ContactReport) {
	fc := r.cfg.Elements.Fragment
	if !r.rng.Chance(fc.Chance) {
		return
	}
	n := r.rng.IntBetween(fc.Min, fc.Max)
	for i := 0; i < n && s.CanSpawn(1); i++ {
		id, ok := s.Spawn(faction.Fire, r.scatter(at, fc.Scatter), now)
		if !ok {
			break
		}
		_, _, a, _ := s.Get(id)
		a.Fragment = true
		a.ExpiresAt = now + fc.Lifetime
		report.Fragments[faction.Fire]++
	}
}

// duplicate spawns extra Water agents moving away from the impact point.
func (r *ResolverSystem) duplicate(s *store.Store, at components.Position, now float64, report *ContactReport) {
	dc := r.cfg.Elements.Duplicate
	if !r.rng.Chance(dc.Chance) {
		return
	}
	n := r.rng.IntBetween(dc.Min, dc.Max)
	for i := 0; i < n && s.CanSpawn(1); i++ {
		id, ok := s.Spawn(faction.Water, r.scatter(at, dc.Scatter), now)
		if !ok {
			break
		}
		pos, vel, a, _ := s.Get(id)
		heading := math.Atan2(pos.Y-at.Y, pos.X-at.X)
		if pos.X == at.X && pos.Y == at.Y {
			heading = r.rng.Angle()
		}
		*vel = components.Polar(heading, a.BaseSpeed*dc.Push)
		report.Duplicates[faction.Water]++
	}
}

// bulwark shields Earth agents around the impact point.
func (r *ResolverSystem) bulwark(s *store.Store, at components.Position, now float64, report *ContactReport) {
	bc := r.cfg.Elements.Bulwark
	for _, id := range s.Within(at, bc.Radius, ofFaction(faction.Earth)) {
		_, _, a, _ := s.Get(id)
		a.GrantShield(now + bc.Duration)
	}
	report.Bulwarks++
}

// critical applies the winner's rare area amplifier.
func (r *ResolverSystem) critical(s *store.Store, wf faction.Faction, at components.Position, now float64, report *ContactReport) {
	cc := r.cfg.Elements.Critical
	switch wf {
	case faction.Fire:
		prey := wf.Prey()
		ids := s.Nearest(at, cc.Fire.Radius, cc.Fire.Limit, func(a *components.Agent) bool {
			return a.Active() && a.Faction == prey && !a.Shielded
		})
		for _, id := range ids {
			if s.Convert(id, wf) {
				_, _, a, _ := s.Get(id)
				a.InteractionGuardUntil = now + r.cfg.Interaction.DefenderGuard
				report.Bonus[wf]++
			}
		}
	case faction.Water:
		for _, id := range s.Within(at, cc.Water.Radius, ofFaction(wf.Prey())) {
			_, _, a, _ := s.Get(id)
			a.SetTempo(cc.Water.Factor, now+cc.Water.Duration)
		}
	case faction.Earth:
		for _, id := range s.Within(at, cc.Earth.Radius, ofFaction(faction.Earth)) {
			_, _, a, _ := s.Get(id)
			a.GrantShield(now + cc.Earth.Duration)
		}
	}
}

func (r *ResolverSystem) scatter(at components.Position, radius float64) components.Position {
	off := components.Polar(r.rng.Angle(), r.rng.Between(0, radius))
	return components.Position{X: at.X + off.X, Y: at.Y + off.Y}
}

func ofFaction(f faction.Faction) store.Predicate {
	return func(a *components.Agent) bool {
		return a.Active() && a.Faction == f
	}
}
