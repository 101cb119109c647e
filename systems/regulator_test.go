package systems

import (
	"testing"

	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/faction"
)

func TestDriftRate(t *testing.T) {
	cfg := config.Default()
	r := NewRegulatorSystem(cfg, nil)
	rc := cfg.Regulator

	tests := []struct {
		name      string
		now, idle float64
		want      float64
	}{
		{name: "active operator", now: 100, idle: 2, want: 0},
		{name: "at threshold", now: 100, idle: rc.IdleThreshold, want: 0},
		{name: "capped", now: 100, idle: 1000, want: rc.DriftMax},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.DriftRate(tc.now, tc.idle); got != tc.want {
				t.Errorf("DriftRate(%v, %v) = %v, want %v", tc.now, tc.idle, got, tc.want)
			}
		})
	}

	early := r.DriftRate(10, rc.IdleThreshold+1)
	late := r.DriftRate(200, rc.IdleThreshold+1)
	longer := r.DriftRate(10, rc.IdleThreshold+5)
	if early <= 0 || late <= early || longer <= early {
		t.Errorf("drift should grow with run time and idle time: early=%v late=%v longer=%v", early, late, longer)
	}
}

func TestDriftConvertsWeakestToStrongest(t *testing.T) {
	w := newTestWorld(t, nil)
	w.spawnN(t, faction.Fire, 5, pt(300, 300))
	w.spawnN(t, faction.Water, 3, pt(300, 300))
	w.spawnN(t, faction.Earth, 1, pt(300, 300))
	r := NewRegulatorSystem(w.cfg, w.rng)

	// Capped rate 2.5 for one second: two conversions, half carried over.
	reg := r.Update(w.s, 0, 1000, 1)
	if len(reg.Drifted) != 2 {
		t.Fatalf("drifted = %+v, want 2 conversions", reg.Drifted)
	}
	if reg.Drifted[0] != (Drift{From: faction.Earth, To: faction.Fire}) {
		t.Errorf("first drift = %+v, want earth to fire", reg.Drifted[0])
	}
	if reg.Drifted[1] != (Drift{From: faction.Water, To: faction.Fire}) {
		t.Errorf("second drift = %+v, want water to fire", reg.Drifted[1])
	}
	if got := w.s.Counts(); got != (faction.Counts{7, 2, 0}) {
		t.Errorf("counts = %v, want [7 2 0]", got)
	}

	// Carry of 0.5 plus 1.0 more crosses 1 once.
	reg = r.Update(w.s, 1, 1000, 0.4)
	if len(reg.Drifted) != 1 {
		t.Errorf("drifted after carry = %d, want 1", len(reg.Drifted))
	}
}

func TestDriftIdleResetsAccumulator(t *testing.T) {
	w := newTestWorld(t, nil)
	w.spawnN(t, faction.Fire, 5, pt(300, 300))
	w.spawnN(t, faction.Water, 3, pt(300, 300))
	r := NewRegulatorSystem(w.cfg, w.rng)

	r.Update(w.s, 0, 1000, 0.3) // accumulates 0.75
	r.Update(w.s, 0.3, 0, 0.1)  // operator acted
	reg := r.Update(w.s, 0.4, 1000, 0.1)
	if len(reg.Drifted) != 0 {
		t.Errorf("drift fired from a stale accumulator: %+v", reg.Drifted)
	}
}

func TestDriftNoopWhenBalanced(t *testing.T) {
	w := newTestWorld(t, nil)
	for _, f := range faction.All {
		w.spawnN(t, f, 4, pt(300, 300))
	}
	r := NewRegulatorSystem(w.cfg, w.rng)

	reg := r.Update(w.s, 0, 1000, 1)
	if len(reg.Drifted) != 0 {
		t.Errorf("drifted = %+v, want none with equal counts", reg.Drifted)
	}
}

func TestSoftCapThinning(t *testing.T) {
	w := newTestWorld(t, func(cfg *config.Config) {
		cfg.Population.HardCap = 20
		cfg.Population.SoftCap = 10
		cfg.Population.Initial = 0
	})
	w.spawnN(t, faction.Fire, 6, pt(300, 300))
	w.spawnN(t, faction.Water, 4, pt(300, 300))
	w.spawnN(t, faction.Earth, 4, pt(300, 300))
	r := NewRegulatorSystem(w.cfg, w.rng)

	// Excess 4 at 0.08/s for 10s accumulates 3.2.
	reg := r.Update(w.s, 0, 0, 10)
	if reg.Thinned.Total() != 3 || reg.Thinned[faction.Fire] != 3 {
		t.Fatalf("thinned = %v, want 3 fire", reg.Thinned)
	}
	if w.s.Live() != 14 {
		t.Errorf("live = %d, want 14 until the fade completes", w.s.Live())
	}

	b := NewBehaviorSystem(w.cfg, w.rng)
	sweep := b.Update(w.s, NewAbilitySystem(w.cfg), w.cfg.Regulator.FadeDuration, 1.0/60)
	if sweep.Faded.Total() != 3 {
		t.Errorf("faded = %v, want 3", sweep.Faded)
	}
	if w.s.Live() != 11 {
		t.Errorf("live = %d, want 11", w.s.Live())
	}
}
