package systems

import (
	"math"

	"github.com/pthm-cable/equilibrium/components"
	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/rng"
	"github.com/pthm-cable/equilibrium/store"
)

// SpeedModifier reports the faction-wide velocity multiplier from active
// global effects. Abilities implements it.
type SpeedModifier interface {
	FactionFactor(f faction.Faction) float64
}

// Sweep reports what the timed-state sweep removed this step.
type Sweep struct {
	FragmentsExpired faction.Counts
	Faded            faction.Counts
}

// BehaviorSystem expires timed per-agent state and applies each faction's
// always-on movement bias.
type BehaviorSystem struct {
	cfg *config.Config
	rng *rng.Stream
}

// NewBehaviorSystem creates a new behavior system.
func NewBehaviorSystem(cfg *config.Config, r *rng.Stream) *BehaviorSystem {
	return &BehaviorSystem{cfg: cfg, rng: r}
}

// Update runs the expiry sweep, then steers every remaining agent.
func (b *BehaviorSystem) Update(s *store.Store, mod SpeedModifier, now, dt float64) Sweep {
	sweep := b.sweep(s, now)

	bc := b.cfg.Behavior
	relax := 1 - math.Exp(-bc.RelaxRate*dt)
	damping := math.Exp(-bc.EarthDamping * dt)

	s.ForEach(nil, func(_ store.AgentID, _ *components.Position, vel *components.Velocity, a *components.Agent) {
		scale := mod.FactionFactor(a.Faction) * a.TempoFactor(now)
		a.SpeedScale = max(b.cfg.Agent.MinSpeedScale, min(b.cfg.Agent.MaxSpeedScale, scale))
		target := a.BaseSpeed * a.SpeedScale

		if vel.Speed() == 0 {
			*vel = components.Polar(b.rng.Angle(), target)
		}

		switch a.Faction {
		case faction.Fire:
			vel.Rotate(b.rng.Between(-1, 1) * bc.FireJitter * dt)
		case faction.Water:
			a.WavePhase += bc.WaterWaveFrequency * dt
			vel.Rotate(math.Sin(a.WavePhase) * bc.WaterWaveAmplitude * dt)
		case faction.Earth:
			vel.Scale(damping)
		}

		speed := vel.Speed()
		speed += (target - speed) * relax
		vel.SetLength(min(speed, target*b.cfg.Agent.MaxSpeedFactor))
	})
	return sweep
}

// sweep clears elapsed shields and tempos, and removes expired fragments and
// agents whose fade has completed.
func (b *BehaviorSystem) sweep(s *store.Store, now float64) Sweep {
	var out Sweep
	var doomed []store.AgentID

	s.ForEach(nil, func(id store.AgentID, _ *components.Position, _ *components.Velocity, a *components.Agent) {
		switch {
		case a.Fading && now >= a.FadeAt:
			out.Faded[a.Faction]++
			doomed = append(doomed, id)
			return
		case a.Fragment && now >= a.ExpiresAt:
			out.FragmentsExpired[a.Faction]++
			doomed = append(doomed, id)
			return
		}
		if a.Shielded && now >= a.ShieldUntil {
			a.Shielded = false
			a.ShieldUntil = 0
		}
		if a.Tempo != 0 && now >= a.TempoUntil {
			a.Tempo = 0
			a.TempoUntil = 0
		}
	})

	for _, id := range doomed {
		s.Destroy(id)
	}
	return out
}
