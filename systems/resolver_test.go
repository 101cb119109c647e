package systems

import (
	"testing"

	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/faction"
)

// quiet disables every probabilistic secondary effect.
func quiet(cfg *config.Config) {
	cfg.Elements.Fragment.Chance = 0
	cfg.Elements.Duplicate.Chance = 0
	cfg.Elements.Critical.Chance = 0
}

func TestResolveConversion(t *testing.T) {
	tests := []struct {
		name       string
		a, b       faction.Faction
		wantWinner faction.Faction
		converts   bool
	}{
		{name: "fire beats earth", a: faction.Fire, b: faction.Earth, wantWinner: faction.Fire, converts: true},
		{name: "water beats fire from b", a: faction.Fire, b: faction.Water, wantWinner: faction.Water, converts: true},
		{name: "earth beats water", a: faction.Earth, b: faction.Water, wantWinner: faction.Earth, converts: true},
		{name: "same faction ignored", a: faction.Water, b: faction.Water, wantWinner: faction.Water},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := newTestWorld(t, quiet)
			a := w.spawnN(t, tc.a, 1, pt(300, 300))[0]
			b := w.spawnN(t, tc.b, 1, pt(305, 300))[0]
			r := NewResolverSystem(w.cfg, w.rng)

			report := r.Resolve(w.s, []Contact{{A: a, B: b}}, 1)
			if got := len(report.Conversions) == 1; got != tc.converts {
				t.Fatalf("converted = %v, want %v", got, tc.converts)
			}
			if w.agent(t, a).Faction != tc.wantWinner || w.agent(t, b).Faction != tc.wantWinner {
				t.Errorf("factions = %v/%v, want both %v", w.agent(t, a).Faction, w.agent(t, b).Faction, tc.wantWinner)
			}
		})
	}
}

func TestResolveStampsAndGuards(t *testing.T) {
	w := newTestWorld(t, quiet)
	fire := w.spawnN(t, faction.Fire, 1, pt(300, 300))[0]
	earth := w.spawnN(t, faction.Earth, 2, pt(305, 300))
	r := NewResolverSystem(w.cfg, w.rng)

	r.Resolve(w.s, []Contact{{A: fire, B: earth[0]}}, 1)
	if got := w.agent(t, fire).NextInteractionAt; got != 1+w.cfg.Interaction.AttackerRearm {
		t.Errorf("winner rearm = %v", got)
	}
	if got := w.agent(t, earth[0]).InteractionGuardUntil; got != 1+w.cfg.Interaction.DefenderGuard {
		t.Errorf("loser guard = %v", got)
	}

	// The winner has not re-armed yet.
	report := r.Resolve(w.s, []Contact{{A: fire, B: earth[1]}}, 1.1)
	if len(report.Conversions) != 0 || w.agent(t, earth[1]).Faction != faction.Earth {
		t.Error("contact resolved before the attacker re-armed")
	}

	report = r.Resolve(w.s, []Contact{{A: fire, B: earth[1]}}, 1+w.cfg.Interaction.AttackerRearm)
	if len(report.Conversions) != 1 {
		t.Error("contact not resolved after re-arm")
	}
}

func TestResolveIgnoresShielded(t *testing.T) {
	w := newTestWorld(t, quiet)
	fire := w.spawnN(t, faction.Fire, 1, pt(300, 300))[0]
	earth := w.spawnN(t, faction.Earth, 1, pt(305, 300))[0]
	w.agent(t, earth).GrantShield(5)
	r := NewResolverSystem(w.cfg, w.rng)

	report := r.Resolve(w.s, []Contact{{A: fire, B: earth}}, 1)
	if len(report.Conversions) != 0 || w.agent(t, earth).Faction != faction.Earth {
		t.Error("shielded agent was converted")
	}
}

func TestFragmentsRespectCapAndExpire(t *testing.T) {
	tests := []struct {
		name          string
		hardCap       int
		wantFragments int
	}{
		{name: "spawns fragments", hardCap: 600, wantFragments: 2},
		{name: "cap blocks fragments", hardCap: 2, wantFragments: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := newTestWorld(t, func(cfg *config.Config) {
				quiet(cfg)
				cfg.Elements.Fragment.Chance = 1
				cfg.Elements.Fragment.Min = 2
				cfg.Elements.Fragment.Max = 2
				cfg.Population.HardCap = tc.hardCap
				cfg.Population.SoftCap = tc.hardCap - 1
				cfg.Population.Initial = 0
			})
			fire := w.spawnN(t, faction.Fire, 1, pt(300, 300))[0]
			earth := w.spawnN(t, faction.Earth, 1, pt(305, 300))[0]
			r := NewResolverSystem(w.cfg, w.rng)

			report := r.Resolve(w.s, []Contact{{A: fire, B: earth}}, 1)
			if got := report.Fragments[faction.Fire]; got != tc.wantFragments {
				t.Fatalf("fragments = %d, want %d", got, tc.wantFragments)
			}
			if w.s.Live() != 2+tc.wantFragments {
				t.Fatalf("live = %d, want %d", w.s.Live(), 2+tc.wantFragments)
			}

			b := NewBehaviorSystem(w.cfg, w.rng)
			sweep := b.Update(w.s, NewAbilitySystem(w.cfg), 1+w.cfg.Elements.Fragment.Lifetime, 1.0/60)
			if sweep.FragmentsExpired.Total() != tc.wantFragments {
				t.Errorf("expired = %v, want %d", sweep.FragmentsExpired, tc.wantFragments)
			}
			if w.s.Live() != 2 {
				t.Errorf("live after expiry = %d, want 2", w.s.Live())
			}
		})
	}
}

func TestBulwarkShieldsNearbyEarth(t *testing.T) {
	w := newTestWorld(t, quiet)
	earth := w.spawnN(t, faction.Earth, 1, pt(300, 300))[0]
	water := w.spawnN(t, faction.Water, 1, pt(305, 300))[0]
	kin := w.spawnN(t, faction.Earth, 1, pt(400, 300))[0]
	distant := w.spawnN(t, faction.Earth, 1, pt(1000, 600))[0]
	r := NewResolverSystem(w.cfg, w.rng)

	report := r.Resolve(w.s, []Contact{{A: earth, B: water}}, 1)
	if report.Bulwarks != 1 {
		t.Fatalf("bulwarks = %d, want 1", report.Bulwarks)
	}
	if !w.agent(t, kin).Shielded {
		t.Error("nearby earth not shielded")
	}
	if w.agent(t, distant).Shielded {
		t.Error("distant earth shielded")
	}
}

func TestDuplicatesMoveAwayFromImpact(t *testing.T) {
	w := newTestWorld(t, func(cfg *config.Config) {
		quiet(cfg)
		cfg.Elements.Duplicate.Chance = 1
	})
	water := w.spawnN(t, faction.Water, 1, pt(300, 300))[0]
	fire := w.spawnN(t, faction.Fire, 1, pt(300, 305))[0]
	r := NewResolverSystem(w.cfg, w.rng)

	report := r.Resolve(w.s, []Contact{{A: water, B: fire}}, 1)
	n := report.Duplicates[faction.Water]
	if n < w.cfg.Elements.Duplicate.Min || n > w.cfg.Elements.Duplicate.Max {
		t.Fatalf("duplicates = %d, want within [%d, %d]", n, w.cfg.Elements.Duplicate.Min, w.cfg.Elements.Duplicate.Max)
	}
	if got := w.s.Counts()[faction.Water]; got != 2+n {
		t.Errorf("water count = %d, want %d", got, 2+n)
	}
}

func TestCriticalAreaEffects(t *testing.T) {
	const now = 1.0
	always := func(cfg *config.Config) {
		quiet(cfg)
		cfg.Elements.Critical.Chance = 1
	}

	tests := []struct {
		name          string
		winner, loser faction.Faction
	}{
		{name: "fire converts nearby prey up to the limit", winner: faction.Fire, loser: faction.Earth},
		{name: "water slows nearby prey", winner: faction.Water, loser: faction.Fire},
		{name: "earth shields nearby kin", winner: faction.Earth, loser: faction.Water},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := newTestWorld(t, always)
			cc := w.cfg.Elements.Critical
			winner := w.spawnN(t, tc.winner, 1, pt(300, 300))[0]
			loser := w.spawnN(t, tc.loser, 1, pt(305, 300))[0]
			r := NewResolverSystem(w.cfg, w.rng)

			switch tc.winner {
			case faction.Fire:
				prey := w.spawnN(t, faction.Earth, cc.Fire.Limit+1, pt(320, 300))
				shielded := w.spawnN(t, faction.Earth, 1, pt(310, 300))[0]
				w.agent(t, shielded).GrantShield(now + 5)
				far := w.spawnN(t, faction.Earth, 1, pt(300+2*cc.Fire.Radius, 300))[0]

				report := r.Resolve(w.s, []Contact{{A: winner, B: loser}}, now)
				if report.Bonus[faction.Fire] != cc.Fire.Limit {
					t.Fatalf("bonus = %v, want %d fire", report.Bonus, cc.Fire.Limit)
				}
				if len(report.Conversions) != 1 || !report.Conversions[0].Critical {
					t.Errorf("conversions = %+v, want one critical", report.Conversions)
				}
				if report.Total() != 1+cc.Fire.Limit {
					t.Errorf("total = %d, want %d", report.Total(), 1+cc.Fire.Limit)
				}

				converted := 0
				for _, id := range prey {
					a := w.agent(t, id)
					if a.Faction != faction.Fire {
						continue
					}
					converted++
					if a.InteractionGuardUntil != now+w.cfg.Interaction.DefenderGuard {
						t.Errorf("bonus conversion guard = %v", a.InteractionGuardUntil)
					}
				}
				if converted != cc.Fire.Limit {
					t.Errorf("converted %d nearby earth, want %d", converted, cc.Fire.Limit)
				}
				if w.agent(t, shielded).Faction != faction.Earth {
					t.Error("shielded earth converted by critical")
				}
				if w.agent(t, far).Faction != faction.Earth {
					t.Error("earth outside the radius converted")
				}

			case faction.Water:
				near := w.spawnN(t, faction.Fire, 2, pt(330, 300))
				far := w.spawnN(t, faction.Fire, 1, pt(300+2*cc.Water.Radius, 300))[0]

				report := r.Resolve(w.s, []Contact{{A: winner, B: loser}}, now)
				if len(report.Conversions) != 1 || !report.Conversions[0].Critical {
					t.Fatalf("conversions = %+v, want one critical", report.Conversions)
				}
				for _, id := range near {
					a := w.agent(t, id)
					if a.Tempo != cc.Water.Factor || a.TempoUntil != now+cc.Water.Duration {
						t.Errorf("nearby fire tempo = %v until %v, want %v until %v", a.Tempo, a.TempoUntil, cc.Water.Factor, now+cc.Water.Duration)
					}
				}
				if got := w.agent(t, far).TempoFactor(now); got != 1 {
					t.Errorf("distant fire tempo = %v, want 1", got)
				}

			case faction.Earth:
				// Past the bulwark radius but inside the critical one.
				d := (w.cfg.Elements.Bulwark.Radius + cc.Earth.Radius) / 2
				kin := w.spawnN(t, faction.Earth, 1, pt(300+d, 300))[0]
				far := w.spawnN(t, faction.Earth, 1, pt(300+d, 300+2*cc.Earth.Radius))[0]

				report := r.Resolve(w.s, []Contact{{A: winner, B: loser}}, now)
				if len(report.Conversions) != 1 || !report.Conversions[0].Critical {
					t.Fatalf("conversions = %+v, want one critical", report.Conversions)
				}
				a := w.agent(t, kin)
				if !a.Shielded || a.ShieldUntil != now+cc.Earth.Duration {
					t.Errorf("kin shield = %v until %v, want until %v", a.Shielded, a.ShieldUntil, now+cc.Earth.Duration)
				}
				if w.agent(t, far).Shielded {
					t.Error("earth outside the radius shielded")
				}
			}
		})
	}
}
