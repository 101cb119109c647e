package systems

import (
	"slices"

	"github.com/pthm-cable/equilibrium/components"
	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/store"
)

// Contact is an unordered pair of touching agents.
type Contact struct {
	A, B store.AgentID
}

// Arena is the reference spatial collaborator: it integrates motion inside
// the world bounds and reports touching pairs of active agents.
type Arena struct {
	width, height float64
	radius        float64

	grid  *SpatialGrid
	slots []slot
	cand  []int
}

type slot struct {
	id  store.AgentID
	pos components.Position
}

// NewArena creates an arena sized from the world config.
func NewArena(cfg *config.Config) *Arena {
	return &Arena{
		width:  cfg.World.Width,
		height: cfg.World.Height,
		radius: cfg.Agent.Radius,
		grid:   NewSpatialGrid(cfg.World.Width, cfg.World.Height, cfg.Physics.GridCellSize),
	}
}

// Integrate advances positions by dt and reflects agents off the walls.
func (a *Arena) Integrate(s *store.Store, dt float64) {
	s.ForEach(nil, func(_ store.AgentID, pos *components.Position, vel *components.Velocity, _ *components.Agent) {
		pos.X += vel.X * dt
		pos.Y += vel.Y * dt

		if pos.X < a.radius {
			pos.X = a.radius
			vel.X = -vel.X
		} else if pos.X > a.width-a.radius {
			pos.X = a.width - a.radius
			vel.X = -vel.X
		}
		if pos.Y < a.radius {
			pos.Y = a.radius
			vel.Y = -vel.Y
		} else if pos.Y > a.height-a.radius {
			pos.Y = a.height - a.radius
			vel.Y = -vel.Y
		}
	})
}

// Contacts returns every pair of active agents whose discs overlap.
// Pairs are ordered by the store order of their first member, then the second.
func (a *Arena) Contacts(s *store.Store) []Contact {
	a.grid.Clear()
	a.slots = a.slots[:0]
	s.ForEach(isActive, func(id store.AgentID, pos *components.Position, _ *components.Velocity, _ *components.Agent) {
		a.grid.Insert(len(a.slots), *pos)
		a.slots = append(a.slots, slot{id: id, pos: *pos})
	})

	reach := 2 * a.radius
	reachSq := reach * reach
	var contacts []Contact
	for i, si := range a.slots {
		a.cand = a.grid.Candidates(a.cand[:0], si.pos, reach)
		slices.Sort(a.cand)
		for _, j := range a.cand {
			if j <= i {
				continue
			}
			if components.DistSq(si.pos, a.slots[j].pos) <= reachSq {
				contacts = append(contacts, Contact{A: si.id, B: a.slots[j].id})
			}
		}
	}
	return contacts
}

func isActive(a *components.Agent) bool {
	return a.Active()
}
