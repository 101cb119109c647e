package systems

import (
	"testing"

	"github.com/pthm-cable/equilibrium/components"
	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/rng"
	"github.com/pthm-cable/equilibrium/store"
)

// testWorld bundles a store with the config and stream it was built from.
type testWorld struct {
	cfg *config.Config
	rng *rng.Stream
	s   *store.Store
}

func newTestWorld(t *testing.T, mutate func(cfg *config.Config)) *testWorld {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
		if err := cfg.Finalize(); err != nil {
			t.Fatalf("Finalize: %v", err)
		}
	}
	r := rng.New("systems-test")
	return &testWorld{cfg: cfg, rng: r, s: store.New(cfg, r)}
}

// spawnN spawns n agents of f at p and returns their ids.
func (w *testWorld) spawnN(t *testing.T, f faction.Faction, n int, p components.Position) []store.AgentID {
	t.Helper()
	ids := make([]store.AgentID, 0, n)
	for i := 0; i < n; i++ {
		id, ok := w.s.Spawn(f, p, 0)
		if !ok {
			t.Fatalf("spawn %d of %v refused", i, f)
		}
		ids = append(ids, id)
	}
	return ids
}

func (w *testWorld) agent(t *testing.T, id store.AgentID) *components.Agent {
	t.Helper()
	_, _, a, ok := w.s.Get(id)
	if !ok {
		t.Fatalf("agent %v not alive", id)
	}
	return a
}

func pt(x, y float64) components.Position {
	return components.Position{X: x, Y: y}
}
