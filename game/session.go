package game

import "github.com/pthm-cable/equilibrium/telemetry"

// Session owns the current run and replaces it on restart or mode toggle.
// An ended run is never resumed; every restart builds a new Simulation.
type Session struct {
	sim  *Simulation
	perf *telemetry.PerfCollector
}

// NewSession starts a first run.
func NewSession(ctx *Context, mode Mode) *Session {
	return &Session{sim: New(ctx, mode)}
}

// Sim returns the current run.
func (s *Session) Sim() *Simulation {
	return s.sim
}

// SetProfiler attaches p to the current and every later run.
func (s *Session) SetProfiler(p *telemetry.PerfCollector) {
	s.perf = p
	s.sim.SetProfiler(p)
}

// Restart begins a new run in the same mode. With regenerate the run gets a
// fresh random seed, otherwise it replays the current one.
func (s *Session) Restart(regenerate bool) (*Simulation, error) {
	seed := s.sim.Seed()
	if regenerate {
		seed = ""
	}
	return s.start(seed, s.sim.Mode())
}

// ToggleMode begins a new run in the other mode with the current seed.
func (s *Session) ToggleMode() (*Simulation, error) {
	return s.start(s.sim.Seed(), s.sim.Mode().Other())
}

// SetMode begins a new run in mode with the current seed.
func (s *Session) SetMode(mode Mode) (*Simulation, error) {
	return s.start(s.sim.Seed(), mode)
}

func (s *Session) start(seed string, mode Mode) (*Simulation, error) {
	ctx, err := s.sim.Context().Reseed(seed)
	if err != nil {
		return nil, err
	}
	s.sim = New(ctx, mode)
	s.sim.SetProfiler(s.perf)
	return s.sim, nil
}
