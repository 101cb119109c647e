package systems

import (
	"fmt"

	"github.com/pthm-cable/equilibrium/components"
	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/store"
)

// Key identifies an operator ability. Valid keys are 1 through 5.
type Key int

const (
	KeySpawn Key = iota + 1
	KeySlow
	KeyBuff
	KeyShield
	KeyPurge
)

// KeyCount is the number of abilities.
const KeyCount = 5

// Keys lists every ability in key order.
var Keys = [KeyCount]Key{KeySpawn, KeySlow, KeyBuff, KeyShield, KeyPurge}

// Valid reports whether k names an ability.
func (k Key) Valid() bool {
	return k >= KeySpawn && k <= KeyPurge
}

func (k Key) String() string {
	switch k {
	case KeySpawn:
		return "spawn"
	case KeySlow:
		return "slow"
	case KeyBuff:
		return "buff"
	case KeyShield:
		return "shield"
	case KeyPurge:
		return "purge"
	}
	return fmt.Sprintf("key(%d)", int(k))
}

// NeedsPoint reports whether the ability requires a world target point.
func (k Key) NeedsPoint() bool {
	return k == KeySpawn || k == KeyPurge
}

// AbilityInfo describes an ability for HUD tooltips.
type AbilityInfo struct {
	Key         Key
	Name        string
	Description string
	Cooldown    float64
}

// Catalog returns the ability descriptions for cfg.
func Catalog(cfg *config.Config) [KeyCount]AbilityInfo {
	ac := cfg.Abilities
	cd := ac.Cooldowns
	return [KeyCount]AbilityInfo{
		{KeySpawn, "Seed", "Spawn one agent of the weakest faction at the target point.", cd.Spawn},
		{KeySlow, "Dampen", fmt.Sprintf("Slow the strongest faction to %.0f%% for %.0fs.", ac.SlowFactor*100, ac.SlowDuration), cd.Slow},
		{KeyBuff, "Surge", fmt.Sprintf("Speed the weakest faction to %.0f%% for %.0fs.", ac.BuffFactor*100, ac.BuffDuration), cd.Buff},
		{KeyShield, "Aegis", fmt.Sprintf("Shield the weakest faction from conversion for %.0fs.", ac.ShieldDuration), cd.Shield},
		{KeyPurge, "Purge", fmt.Sprintf("Destroy up to %d agents within %.0f of the target point.", ac.PurgeLimit, ac.PurgeRadius), cd.Purge},
	}
}

// Reason explains why an invocation was not applied.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonCooldown Reason = "cooldown"
	ReasonCap      Reason = "population-cap"
	ReasonNoPoint  Reason = "no-target-point"
	ReasonPaused   Reason = "paused"
	ReasonEnded    Reason = "ended"
)

// Target carries the optional world point an ability is aimed at.
type Target struct {
	HasPoint bool
	Point    components.Position
}

// At returns a target at p.
func At(p components.Position) Target {
	return Target{HasPoint: true, Point: p}
}

// Outcome reports the result of an invocation.
type Outcome struct {
	Key       Key
	Applied   bool
	Reason    Reason
	Remaining float64 // cooldown left when rejected for cooldown
	Faction   faction.Faction
	Point     components.Position
	Spawned   int
	Shielded  int
	Purged    int
}

// Effect is a global faction-wide speed multiplier. At most one slow and
// one buff exist at a time.
type Effect struct {
	Name      string
	Active    bool
	Target    faction.Faction
	Factor    float64
	ExpiresAt float64
}

// AbilitySystem owns ability cooldowns and the global timed effects.
type AbilitySystem struct {
	cfg     *config.Config
	readyAt [KeyCount + 1]float64

	slow Effect
	buff Effect
}

// NewAbilitySystem creates an ability system with every key ready.
func NewAbilitySystem(cfg *config.Config) *AbilitySystem {
	return &AbilitySystem{cfg: cfg}
}

// Cooldown returns the configured cooldown of k.
func (a *AbilitySystem) Cooldown(k Key) float64 {
	cd := a.cfg.Abilities.Cooldowns
	switch k {
	case KeySpawn:
		return cd.Spawn
	case KeySlow:
		return cd.Slow
	case KeyBuff:
		return cd.Buff
	case KeyShield:
		return cd.Shield
	case KeyPurge:
		return cd.Purge
	}
	panic(fmt.Sprintf("systems: unknown ability key %d", int(k)))
}

// Remaining returns the seconds until each key is ready, in key order.
func (a *AbilitySystem) Remaining(now float64) [KeyCount]float64 {
	var out [KeyCount]float64
	for i, k := range Keys {
		out[i] = max(0, a.readyAt[k]-now)
	}
	return out
}

// Ready reports whether k is off cooldown.
func (a *AbilitySystem) Ready(k Key, now float64) bool {
	return now >= a.readyAt[k]
}

// Invoke fires ability k. A key still cooling down, a missing target
// point or a spawn at the hard cap leaves every piece of state untouched
// and reports Applied=false.
func (a *AbilitySystem) Invoke(s *store.Store, k Key, t Target, now float64) Outcome {
	if !k.Valid() {
		panic(fmt.Sprintf("systems: unknown ability key %d", int(k)))
	}
	out := Outcome{Key: k, Point: t.Point}
	if !a.Ready(k, now) {
		out.Reason = ReasonCooldown
		out.Remaining = a.readyAt[k] - now
		return out
	}
	if k.NeedsPoint() && !t.HasPoint {
		out.Reason = ReasonNoPoint
		return out
	}

	ac := a.cfg.Abilities
	counts := s.Counts()
	switch k {
	case KeySpawn:
		out.Faction = counts.Weakest()
		if !s.CanSpawn(1) {
			out.Reason = ReasonCap
			return out
		}
		if _, ok := s.Spawn(out.Faction, t.Point, now); ok {
			out.Spawned = 1
		}
	case KeySlow:
		out.Faction = counts.Strongest()
		a.slow = Effect{Name: "slow", Active: true, Target: out.Faction, Factor: ac.SlowFactor, ExpiresAt: now + ac.SlowDuration}
	case KeyBuff:
		out.Faction = counts.Weakest()
		a.buff = Effect{Name: "buff", Active: true, Target: out.Faction, Factor: ac.BuffFactor, ExpiresAt: now + ac.BuffDuration}
	case KeyShield:
		out.Faction = counts.Weakest()
		for _, id := range s.IDs(ofFaction(out.Faction)) {
			_, _, ag, _ := s.Get(id)
			ag.GrantShield(now + ac.ShieldDuration)
			out.Shielded++
		}
	case KeyPurge:
		for _, id := range s.Nearest(t.Point, ac.PurgeRadius, ac.PurgeLimit, isActive) {
			if s.Destroy(id) {
				out.Purged++
			}
		}
	}

	a.readyAt[k] = now + a.Cooldown(k)
	out.Applied = true
	return out
}

// FactionFactor returns the product of active global effects on f.
func (a *AbilitySystem) FactionFactor(f faction.Faction) float64 {
	factor := 1.0
	if a.slow.Active && a.slow.Target == f {
		factor *= a.slow.Factor
	}
	if a.buff.Active && a.buff.Target == f {
		factor *= a.buff.Factor
	}
	return factor
}

// Effects returns the current slow and buff.
func (a *AbilitySystem) Effects() (slow, buff Effect) {
	return a.slow, a.buff
}

// Update expires timed global effects and returns the ones that ended.
func (a *AbilitySystem) Update(now float64) []Effect {
	var expired []Effect
	for _, e := range []*Effect{&a.slow, &a.buff} {
		if e.Active && now >= e.ExpiresAt {
			expired = append(expired, *e)
			*e = Effect{}
		}
	}
	return expired
}

// CancelAll revokes every pending global effect.
func (a *AbilitySystem) CancelAll() {
	a.slow = Effect{}
	a.buff = Effect{}
}

// ComboResult reports what a combo effect did.
type ComboResult struct {
	Kind     ComboKind
	Faction  faction.Faction
	Affected int
	Spawned  int
	Purged   int
}

// ApplyCombo runs the bonus effect of a completed sequence.
func (a *AbilitySystem) ApplyCombo(s *store.Store, m ComboMatch, now float64) ComboResult {
	cc := a.cfg.Combos
	res := ComboResult{Kind: m.Kind}

	switch m.Kind {
	case ComboFreeze:
		res.Faction = m.First.Faction
		for _, id := range s.Within(m.Second.Point, cc.Freeze.Radius, isActive) {
			_, _, ag, _ := s.Get(id)
			ag.SetTempo(cc.Freeze.Factor, now+cc.Freeze.Duration)
			res.Affected++
		}
	case ComboShieldWall:
		for _, id := range s.Within(m.First.Point, cc.ShieldWall.Radius, isActive) {
			_, _, ag, _ := s.Get(id)
			ag.GrantShield(now + cc.ShieldWall.Duration)
			res.Affected++
		}
	case ComboEscort:
		res.Faction = m.First.Faction
		for i := 0; i < cc.Escort.Count && s.CanSpawn(1); i++ {
			id, ok := s.Spawn(res.Faction, m.Second.Point, now)
			if !ok {
				break
			}
			_, _, ag, _ := s.Get(id)
			ag.GrantShield(now + cc.Escort.Duration)
			res.Spawned++
		}
	case ComboBloom:
		res.Faction = m.First.Faction
		for _, id := range s.IDs(ofFaction(res.Faction)) {
			_, _, ag, _ := s.Get(id)
			ag.SetTempo(cc.Bloom.Factor, now+cc.Bloom.Duration)
			res.Affected++
		}
	case ComboOverload:
		res.Faction = m.First.Faction
		spared := m.First.Faction
		pred := func(ag *components.Agent) bool {
			return ag.Active() && ag.Faction != spared
		}
		for _, id := range s.Nearest(m.Second.Point, cc.Overload.Radius, cc.Overload.Count, pred) {
			if s.Destroy(id) {
				res.Purged++
			}
		}
	}
	return res
}
