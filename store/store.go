// Package store owns every agent in the simulation. Agents live in an ark
// ECS world and are referenced everywhere by their generation-checked entity
// handle; no other package keeps its own collection of agents.
package store

import (
	"fmt"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/equilibrium/components"
	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/rng"
)

// AgentID is a stable, generation-checked agent handle.
type AgentID = ecs.Entity

// Visitor receives mutable access to one agent during iteration.
type Visitor func(id AgentID, pos *components.Position, vel *components.Velocity, a *components.Agent)

// Predicate selects agents during iteration. A nil predicate selects all.
type Predicate func(a *components.Agent) bool

// Store is the agent arena.
type Store struct {
	world *ecs.World
	cfg   *config.Config
	rng   *rng.Stream

	mapper *ecs.Map3[components.Position, components.Velocity, components.Agent]
	filter *ecs.Filter3[components.Position, components.Velocity, components.Agent]

	counts faction.Counts
	live   int
}

// New creates an empty store.
func New(cfg *config.Config, r *rng.Stream) *Store {
	world := ecs.NewWorld()
	return &Store{
		world:  world,
		cfg:    cfg,
		rng:    r,
		mapper: ecs.NewMap3[components.Position, components.Velocity, components.Agent](world),
		filter: ecs.NewFilter3[components.Position, components.Velocity, components.Agent](world),
	}
}

// Live returns the number of live agents.
func (s *Store) Live() int {
	return s.live
}

// Counts returns the live agent count per faction.
func (s *Store) Counts() faction.Counts {
	return s.counts
}

// Cap returns the hard population cap.
func (s *Store) Cap() int {
	return s.cfg.Population.HardCap
}

// CanSpawn reports whether n more agents fit under the hard cap.
func (s *Store) CanSpawn(n int) bool {
	return s.live+n <= s.cfg.Population.HardCap
}

// Spawn creates an agent of faction f at pos with a random heading.
// Returns false without creating anything when the hard cap is reached.
func (s *Store) Spawn(f faction.Faction, pos components.Position, now float64) (AgentID, bool) {
	if !f.Valid() {
		panic(fmt.Sprintf("store: spawn with unknown faction id %d", uint8(f)))
	}
	if !s.CanSpawn(1) {
		return AgentID{}, false
	}

	base := s.cfg.Derived.BaseSpeed[f]
	agent := components.Agent{
		Faction:    f,
		BaseSpeed:  base,
		SpeedScale: 1,
		SpawnedAt:  now,
		Alpha:      s.rng.Between(0.82, 1),
	}
	if f == faction.Water {
		agent.WavePhase = s.rng.Angle()
	}
	vel := components.Polar(s.rng.Angle(), base*s.rng.Between(s.cfg.Agent.InitialSpeedMin, s.cfg.Agent.InitialSpeedMax))
	p := s.clamp(pos)

	id := s.mapper.NewEntity(&p, &vel, &agent)
	s.counts[f]++
	s.live++
	return id, true
}

// Alive reports whether id refers to a live agent.
func (s *Store) Alive(id AgentID) bool {
	return !id.IsZero() && s.world.Alive(id)
}

// Get returns the components of a live agent.
func (s *Store) Get(id AgentID) (*components.Position, *components.Velocity, *components.Agent, bool) {
	if !s.Alive(id) {
		return nil, nil, nil, false
	}
	pos, vel, a := s.mapper.Get(id)
	return pos, vel, a, true
}

// Convert reassigns an agent to faction f. It clears the shield, resets the
// speed scale and kicks the velocity to the new base speed times the impact
// multiplier. Returns false if the agent is gone or already of faction f.
func (s *Store) Convert(id AgentID, f faction.Faction) bool {
	if !f.Valid() {
		panic(fmt.Sprintf("store: convert to unknown faction id %d", uint8(f)))
	}
	_, vel, a, ok := s.Get(id)
	if !ok || a.Faction == f {
		return false
	}

	s.counts[a.Faction]--
	s.counts[f]++

	a.Faction = f
	a.Shielded = false
	a.ShieldUntil = 0
	a.SpeedScale = 1
	a.Tempo = 0
	a.TempoUntil = 0
	a.BaseSpeed = s.cfg.Derived.BaseSpeed[f]

	target := a.BaseSpeed * s.cfg.Agent.ImpactMultiplier
	if vel.Speed() == 0 {
		*vel = components.Polar(s.rng.Angle(), target)
	} else {
		vel.SetLength(target)
	}
	return true
}

// Destroy removes an agent. Returns false if it was already gone.
func (s *Store) Destroy(id AgentID) bool {
	_, _, a, ok := s.Get(id)
	if !ok {
		return false
	}
	s.counts[a.Faction]--
	s.live--
	s.world.RemoveEntity(id)
	return true
}

// ForEach visits every agent matching pred in store order.
// The visitor may spawn, convert or destroy agents; agents destroyed during
// the pass are skipped and agents spawned during the pass are not visited.
func (s *Store) ForEach(pred Predicate, fn Visitor) {
	for _, id := range s.snapshotIDs() {
		pos, vel, a, ok := s.Get(id)
		if !ok {
			continue
		}
		if pred != nil && !pred(a) {
			continue
		}
		fn(id, pos, vel, a)
	}
}

// IDs returns the agents matching pred in store order.
func (s *Store) IDs(pred Predicate) []AgentID {
	ids := s.snapshotIDs()
	if pred == nil {
		return ids
	}
	out := ids[:0]
	for _, id := range ids {
		_, _, a, _ := s.Get(id)
		if pred(a) {
			out = append(out, id)
		}
	}
	return out
}

// Pick returns a uniformly random agent matching pred.
func (s *Store) Pick(pred Predicate) (AgentID, bool) {
	ids := s.IDs(pred)
	if len(ids) == 0 {
		return AgentID{}, false
	}
	return ids[s.rng.Intn(len(ids))], true
}

// Nearest returns up to limit agents matching pred within radius of point,
// closest first. Equal distances keep store order.
func (s *Store) Nearest(point components.Position, radius float64, limit int, pred Predicate) []AgentID {
	type hit struct {
		id     AgentID
		distSq float64
	}
	var hits []hit
	radiusSq := radius * radius
	s.ForEach(pred, func(id AgentID, pos *components.Position, _ *components.Velocity, _ *components.Agent) {
		if d := components.DistSq(point, *pos); d <= radiusSq {
			hits = append(hits, hit{id: id, distSq: d})
		}
	})
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distSq < hits[j].distSq })

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	ids := make([]AgentID, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

// Within returns every agent matching pred within radius of point, in store order.
func (s *Store) Within(point components.Position, radius float64, pred Predicate) []AgentID {
	var ids []AgentID
	radiusSq := radius * radius
	s.ForEach(pred, func(id AgentID, pos *components.Position, _ *components.Velocity, _ *components.Agent) {
		if components.DistSq(point, *pos) <= radiusSq {
			ids = append(ids, id)
		}
	})
	return ids
}

// ClampPoint keeps a point inside the padded world bounds.
func (s *Store) ClampPoint(p components.Position) components.Position {
	return s.clamp(p)
}

// RandomPoint returns a uniformly random point inside the padded world.
func (s *Store) RandomPoint() components.Position {
	w := s.cfg.World
	return components.Position{
		X: s.rng.Between(w.Padding, w.Width-w.Padding),
		Y: s.rng.Between(w.Padding, w.Height-w.Padding),
	}
}

func (s *Store) clamp(p components.Position) components.Position {
	w := s.cfg.World
	p.X = max(w.Padding, min(w.Width-w.Padding, p.X))
	p.Y = max(w.Padding, min(w.Height-w.Padding, p.Y))
	return p
}

// snapshotIDs collects live entities before visiting them, since the ECS
// world cannot add or remove entities while a query is open.
func (s *Store) snapshotIDs() []AgentID {
	ids := make([]AgentID, 0, s.live)
	query := s.filter.Query()
	for query.Next() {
		ids = append(ids, query.Entity())
	}
	return ids
}
