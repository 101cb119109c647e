package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/equilibrium/components"
	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/store"
)

func TestArenaContacts(t *testing.T) {
	w := newTestWorld(t, nil)
	a := w.spawnN(t, faction.Fire, 1, pt(300, 300))[0]
	b := w.spawnN(t, faction.Earth, 1, pt(310, 300))[0]
	w.spawnN(t, faction.Water, 1, pt(340, 300))
	fading := w.spawnN(t, faction.Water, 1, pt(302, 300))[0]
	w.agent(t, fading).Fading = true

	contacts := NewArena(w.cfg).Contacts(w.s)
	if len(contacts) != 1 {
		t.Fatalf("contacts = %v, want exactly one", contacts)
	}
	if contacts[0] != (Contact{A: a, B: b}) {
		t.Errorf("contact = %+v, want {%v %v}", contacts[0], a, b)
	}
}

func TestArenaContactsAcrossCells(t *testing.T) {
	w := newTestWorld(t, nil)
	cell := w.cfg.Physics.GridCellSize
	w.spawnN(t, faction.Fire, 1, pt(cell*4-1, 200))
	w.spawnN(t, faction.Water, 1, pt(cell*4+1, 200))

	if got := len(NewArena(w.cfg).Contacts(w.s)); got != 1 {
		t.Errorf("contacts across a cell border = %d, want 1", got)
	}
}

func TestArenaIntegrateBounces(t *testing.T) {
	w := newTestWorld(t, nil)
	id := w.spawnN(t, faction.Fire, 1, pt(300, 300))[0]
	pos, vel, _, _ := w.s.Get(id)
	r := w.cfg.Agent.Radius
	*pos = components.Position{X: w.cfg.World.Width - r - 1, Y: 300}
	*vel = components.Velocity{X: 120, Y: 0}

	NewArena(w.cfg).Integrate(w.s, 1.0/60)

	if pos.X != w.cfg.World.Width-r {
		t.Errorf("x = %v, want clamped to %v", pos.X, w.cfg.World.Width-r)
	}
	if vel.X != -120 {
		t.Errorf("vx = %v, want reflected -120", vel.X)
	}
}

func TestBehaviorRelaxesTowardTarget(t *testing.T) {
	w := newTestWorld(t, nil)
	id := w.spawnN(t, faction.Water, 1, pt(300, 300))[0]
	_, vel, a, _ := w.s.Get(id)
	*vel = components.Velocity{X: 1, Y: 0}

	b := NewBehaviorSystem(w.cfg, w.rng)
	ab := NewAbilitySystem(w.cfg)
	for i := 0; i < 600; i++ {
		b.Update(w.s, ab, float64(i)/60, 1.0/60)
	}
	target := a.BaseSpeed * a.SpeedScale
	if math.Abs(vel.Speed()-target) > 0.01*target {
		t.Errorf("speed = %v, want near %v", vel.Speed(), target)
	}
}

func TestBehaviorAppliesFactionFactor(t *testing.T) {
	w := newTestWorld(t, nil)
	w.spawnN(t, faction.Fire, 3, pt(300, 300))
	w.spawnN(t, faction.Water, 1, pt(300, 300))
	ab := NewAbilitySystem(w.cfg)
	ab.Invoke(w.s, KeySlow, Target{}, 0)

	NewBehaviorSystem(w.cfg, w.rng).Update(w.s, ab, 0.1, 1.0/60)

	w.s.ForEach(nil, func(_ store.AgentID, _ *components.Position, _ *components.Velocity, a *components.Agent) {
		want := 1.0
		if a.Faction == faction.Fire {
			want = w.cfg.Abilities.SlowFactor
		}
		if a.SpeedScale != want {
			t.Errorf("%v speed scale = %v, want %v", a.Faction, a.SpeedScale, want)
		}
	})
}
