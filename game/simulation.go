package game

import (
	"math"

	"github.com/pthm-cable/equilibrium/components"
	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/store"
	"github.com/pthm-cable/equilibrium/systems"
	"github.com/pthm-cable/equilibrium/telemetry"
)

// Simulation is one run. It is single-threaded: Step, Invoke and the
// accessors must be called from the same goroutine.
type Simulation struct {
	ctx  *Context
	cfg  *config.Config
	mode Mode

	store     *store.Store
	arena     *systems.Arena
	behavior  *systems.BehaviorSystem
	resolver  *systems.ResolverSystem
	abilities *systems.AbilitySystem
	combos    *systems.ComboDetector
	regulator *systems.RegulatorSystem
	catalog   [systems.KeyCount]systems.AbilityInfo

	log     *telemetry.EventLog
	pending []telemetry.Event
	perf    *telemetry.PerfCollector

	now       float64
	timeScale float64
	paused    bool
	ended     bool

	stable        float64 // current streak above the equilibrium threshold
	longestStable float64
	lastAbilityAt float64
	interventions int
	purgeUsed     bool

	census  systems.Census
	summary *Summary
}

// New creates a run and spawns the initial population round-robin over the
// factions at random points.
func New(ctx *Context, mode Mode) *Simulation {
	cfg := ctx.Config
	s := &Simulation{
		ctx:       ctx,
		cfg:       cfg,
		mode:      mode,
		store:     store.New(cfg, ctx.RNG),
		arena:     systems.NewArena(cfg),
		behavior:  systems.NewBehaviorSystem(cfg, ctx.RNG),
		resolver:  systems.NewResolverSystem(cfg, ctx.RNG),
		abilities: systems.NewAbilitySystem(cfg),
		combos:    systems.NewComboDetector(cfg),
		regulator: systems.NewRegulatorSystem(cfg, ctx.RNG),
		catalog:   systems.Catalog(cfg),
		log:       telemetry.NewEventLog(cfg.Telemetry.EventLogSize),
		timeScale: 1,
	}

	for i := 0; i < cfg.Population.Initial; i++ {
		f := faction.All[i%faction.Count]
		if _, ok := s.store.Spawn(f, s.store.RandomPoint(), 0); !ok {
			break
		}
	}
	s.census = systems.TakeCensus(s.store)
	s.emit(telemetry.NewSystemEvent(0, "%s run started with seed %s", mode, ctx.Seed))
	return s
}

// SetProfiler attaches a phase timer. The caller brackets each Step with
// StartTick and EndTick. Nil detaches it.
func (s *Simulation) SetProfiler(p *telemetry.PerfCollector) {
	s.perf = p
}

func (s *Simulation) phase(name string) {
	if s.perf != nil {
		s.perf.StartPhase(name)
	}
}

func (s *Simulation) emit(e telemetry.Event) {
	s.log.Append(e)
	s.pending = append(s.pending, e)
}

// Step advances the run by dt seconds of wall time scaled by the time
// scale. A paused or ended run does not advance; its snapshot is returned
// unchanged.
func (s *Simulation) Step(dt float64) TickResult {
	if s.ended || s.paused || !(dt > 0) || math.IsInf(dt, 0) {
		return TickResult{Snapshot: s.Snapshot(), Events: s.drain()}
	}
	dt *= s.timeScale
	s.now += dt
	now := s.now
	rep := StepReport{DT: dt}

	s.phase(telemetry.PhaseAbilities)
	rep.Expired = s.abilities.Update(now)
	for _, e := range rep.Expired {
		s.emit(telemetry.NewSystemEvent(now, "%s on %s wore off", e.Name, e.Target.String()))
	}

	s.phase(telemetry.PhaseBehavior)
	rep.Sweep = s.behavior.Update(s.store, s.abilities, now, dt)
	if n := rep.Sweep.FragmentsExpired.Total(); n > 0 {
		s.emit(telemetry.NewFragmentExpiredEvent(now, n))
	}

	s.phase(telemetry.PhaseIntegrate)
	s.arena.Integrate(s.store, dt)

	s.phase(telemetry.PhaseContacts)
	contacts := s.arena.Contacts(s.store)

	s.phase(telemetry.PhaseResolve)
	rep.Contacts = s.resolver.Resolve(s.store, contacts, now)
	s.emitConversions(now, &rep.Contacts)

	s.phase(telemetry.PhaseRegulator)
	rep.Regulation = s.regulator.Update(s.store, now, now-s.lastAbilityAt, dt)
	for _, d := range rep.Regulation.Drifted {
		s.emit(telemetry.NewDriftEvent(now, d.From, d.To))
	}
	for _, f := range faction.All {
		if n := rep.Regulation.Thinned[f]; n > 0 {
			s.emit(telemetry.NewThinEvent(now, f, n))
		}
	}

	s.phase(telemetry.PhaseLifecycle)
	s.census = systems.TakeCensus(s.store)
	if s.census.Total > 0 && s.census.Equilibrium >= s.cfg.Lifecycle.EquilibriumThreshold {
		s.stable += dt
		s.longestStable = max(s.longestStable, s.stable)
	} else {
		s.stable = 0
	}

	var summary *Summary
	if s.terminated(s.census.Counts) {
		summary = s.finish()
	}

	return TickResult{
		Snapshot: s.Snapshot(),
		Report:   rep,
		Events:   s.drain(),
		Summary:  summary,
	}
}

func (s *Simulation) emitConversions(now float64, r *systems.ContactReport) {
	var won faction.Counts
	for _, c := range r.Conversions {
		won[c.Winner]++
	}
	for _, f := range faction.All {
		if n := won[f] + r.Bonus[f]; n > 0 {
			s.emit(telemetry.NewConversionEvent(now, f, n))
		}
	}
}

func (s *Simulation) drain() []telemetry.Event {
	out := s.pending
	s.pending = nil
	return out
}

// Outcome is the result of an operator command.
type Outcome struct {
	systems.Outcome
	Combo *systems.ComboResult // set when the invocation completed a combo
}

// Invoke validates cmd and fires its ability. Malformed commands return an
// error and change nothing. Expected refusals (cooldown, cap, paused, ended)
// return Applied=false and a Reason.
func (s *Simulation) Invoke(cmd Command) (Outcome, error) {
	v, err := cmd.validate()
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Outcome: systems.Outcome{Key: v.key, Point: v.target.Point}}
	switch {
	case s.ended:
		out.Reason = systems.ReasonEnded
		return out, nil
	case s.paused:
		out.Reason = systems.ReasonPaused
		return out, nil
	}

	now := s.now
	out.Outcome = s.abilities.Invoke(s.store, v.key, v.target, now)
	if !out.Applied {
		return out, nil
	}

	s.interventions++
	s.lastAbilityAt = now
	s.emitAbility(now, out.Outcome)

	rec := systems.ComboRecord{
		Key:      v.key,
		At:       now,
		HasPoint: v.target.HasPoint,
		Point:    v.target.Point,
		Faction:  out.Faction,
	}
	if v.key == systems.KeyPurge {
		s.purgeUsed = true
		if v.hasFac {
			rec.Faction = v.faction
		}
	}
	if m, ok := s.combos.Observe(rec); ok {
		res := s.abilities.ApplyCombo(s.store, m, now)
		out.Combo = &res
		s.emit(telemetry.NewComboEvent(now, res.Kind.String(), res.Affected+res.Spawned+res.Purged))
		if res.Spawned > 0 {
			s.emit(telemetry.NewSpawnEvent(now, res.Faction, res.Spawned))
		}
	}
	s.census = systems.TakeCensus(s.store)
	return out, nil
}

func (s *Simulation) emitAbility(now float64, o systems.Outcome) {
	info := s.catalog[o.Key-1]
	ac := s.cfg.Abilities
	switch o.Key {
	case systems.KeySpawn:
		s.emit(telemetry.NewSpawnEvent(now, o.Faction, o.Spawned))
	case systems.KeySlow:
		s.emit(telemetry.NewBuffEvent(now, o.Faction, info.Name, ac.SlowFactor, ac.SlowDuration))
	case systems.KeyBuff:
		s.emit(telemetry.NewBuffEvent(now, o.Faction, info.Name, ac.BuffFactor, ac.BuffDuration))
	case systems.KeyShield:
		s.emit(telemetry.NewSystemEvent(now, "%s shields %d %s", info.Name, o.Shielded, o.Faction.String()))
	case systems.KeyPurge:
		s.emit(telemetry.NewPurgeEvent(now, o.Purged))
	}
}

// TogglePause flips the paused flag of a running match and returns the new
// state. It never touches the population.
func (s *Simulation) TogglePause() bool {
	if s.ended {
		return s.paused
	}
	s.paused = !s.paused
	return s.paused
}

// Paused reports whether stepping is suspended.
func (s *Simulation) Paused() bool { return s.paused }

// Ended reports whether the run is over.
func (s *Simulation) Ended() bool { return s.ended }

// SetTimeScale sets the multiplier applied to every step's dt, clamped to
// the configured range. It returns the effective scale.
func (s *Simulation) SetTimeScale(scale float64) float64 {
	lc := s.cfg.Lifecycle
	if !finite(scale) {
		return s.timeScale
	}
	s.timeScale = max(lc.MinTimeScale, min(lc.MaxTimeScale, scale))
	return s.timeScale
}

// TimeScale returns the current time scale.
func (s *Simulation) TimeScale() float64 { return s.timeScale }

// Now returns elapsed simulation seconds.
func (s *Simulation) Now() float64 { return s.now }

// Mode returns the victory condition of the run.
func (s *Simulation) Mode() Mode { return s.mode }

// Seed returns the seed the run was created from.
func (s *Simulation) Seed() string { return s.ctx.Seed }

// Context returns the context the run was created with.
func (s *Simulation) Context() *Context { return s.ctx }

// Cooldowns returns remaining seconds per ability key, in key order.
func (s *Simulation) Cooldowns() [systems.KeyCount]float64 {
	return s.abilities.Remaining(s.now)
}

// Abilities returns the ability descriptions.
func (s *Simulation) Abilities() [systems.KeyCount]systems.AbilityInfo {
	return s.catalog
}

// Effects returns the active global slow and buff.
func (s *Simulation) Effects() (slow, buff systems.Effect) {
	return s.abilities.Effects()
}

// Interventions returns the number of applied abilities.
func (s *Simulation) Interventions() int { return s.interventions }

// ComboTriggers returns the number of combos fired.
func (s *Simulation) ComboTriggers() int { return s.combos.Triggers() }

// EventLog returns the bounded history of recent events.
func (s *Simulation) EventLog() *telemetry.EventLog { return s.log }

// Summary returns the terminal summary once the run has ended.
func (s *Simulation) Summary() *Summary { return s.summary }

// Snapshot returns the current presentation snapshot.
func (s *Simulation) Snapshot() Snapshot {
	return Snapshot{
		Mode:        s.mode,
		Elapsed:     s.now,
		Counts:      s.census.Counts,
		Equilibrium: s.census.Equilibrium,
		Total:       s.census.Total,
		Paused:      s.paused,
		Ended:       s.ended,
	}
}

// AgentView is a read-only copy of one agent for rendering.
type AgentView struct {
	Position components.Position
	Faction  faction.Faction
	Shielded bool
	Fragment bool
	Fading   bool
	Alpha    float64
}

// Agents appends a view of every live agent to dst and returns it.
func (s *Simulation) Agents(dst []AgentView) []AgentView {
	s.store.ForEach(nil, func(_ store.AgentID, pos *components.Position, _ *components.Velocity, a *components.Agent) {
		dst = append(dst, AgentView{
			Position: *pos,
			Faction:  a.Faction,
			Shielded: a.Shielded,
			Fragment: a.Fragment,
			Fading:   a.Fading,
			Alpha:    a.Alpha,
		})
	})
	return dst
}
