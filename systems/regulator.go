package systems

import (
	"github.com/pthm-cable/equilibrium/components"
	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/rng"
	"github.com/pthm-cable/equilibrium/store"
)

// Drift is one forced conversion.
type Drift struct {
	From, To faction.Faction
}

// Regulation reports what the regulator did this step.
type Regulation struct {
	DriftRate float64 // zero while the operator is not idle
	Drifted   []Drift
	Thinned   faction.Counts // agents marked to fade, by faction
}

// RegulatorSystem keeps runs moving when the operator idles and thins the
// population above the soft cap.
type RegulatorSystem struct {
	cfg   *config.Config
	rng   *rng.Stream
	drift float64
	thin  float64
}

// NewRegulatorSystem creates a regulator with empty accumulators.
func NewRegulatorSystem(cfg *config.Config, r *rng.Stream) *RegulatorSystem {
	return &RegulatorSystem{cfg: cfg, rng: r}
}

// DriftRate returns the conversions per second applied after idle seconds
// without an ability at run time now.
func (r *RegulatorSystem) DriftRate(now, idle float64) float64 {
	rc := r.cfg.Regulator
	if idle <= rc.IdleThreshold {
		return 0
	}
	rate := rc.DriftBase + now*rc.DriftTimeRate + (idle-rc.IdleThreshold)*rc.DriftIdleRate
	return min(rate, rc.DriftMax)
}

// Update runs drift, then soft-cap thinning.
func (r *RegulatorSystem) Update(s *store.Store, now, idle, dt float64) Regulation {
	var reg Regulation
	r.updateDrift(s, now, idle, dt, &reg)
	r.updateThinning(s, now, dt, &reg)
	return reg
}

func (r *RegulatorSystem) updateDrift(s *store.Store, now, idle, dt float64, reg *Regulation) {
	reg.DriftRate = r.DriftRate(now, idle)
	if reg.DriftRate == 0 {
		r.drift = 0
		return
	}

	r.drift += reg.DriftRate * dt
	for r.drift >= 1 {
		r.drift -= 1
		counts := activeCounts(s)
		from, ok := weakestPresent(counts)
		to := counts.Strongest()
		if !ok || from == to {
			continue
		}
		id, ok := s.Pick(ofFaction(from))
		if ok && s.Convert(id, to) {
			reg.Drifted = append(reg.Drifted, Drift{From: from, To: to})
		}
	}
}

func (r *RegulatorSystem) updateThinning(s *store.Store, now, dt float64, reg *Regulation) {
	soft := r.cfg.Population.SoftCap
	counts := activeCounts(s)
	active := counts.Total()
	if active <= soft {
		r.thin = 0
		return
	}

	r.thin += float64(active-soft) * r.cfg.Regulator.ThinRate * dt
	for r.thin >= 1 && active > soft {
		r.thin -= 1
		f := counts.Strongest()
		id, ok := s.Pick(ofFaction(f))
		if !ok {
			break
		}
		_, _, a, _ := s.Get(id)
		a.Fading = true
		a.FadeAt = now + r.cfg.Regulator.FadeDuration
		counts[f]--
		active--
		reg.Thinned[f]++
	}
}

// activeCounts counts agents that are not fading out.
func activeCounts(s *store.Store) faction.Counts {
	var c faction.Counts
	s.ForEach(isActive, func(_ store.AgentID, _ *components.Position, _ *components.Velocity, a *components.Agent) {
		c[a.Faction]++
	})
	return c
}

// weakestPresent returns the smallest faction that still has agents.
func weakestPresent(c faction.Counts) (faction.Faction, bool) {
	best, found := faction.Fire, false
	for _, f := range faction.All {
		if c[f] == 0 {
			continue
		}
		if !found || c[f] < c[best] {
			best, found = f, true
		}
	}
	return best, found
}
