package components

import "github.com/pthm-cable/equilibrium/faction"

// Agent holds faction membership and transient per-agent state.
// All times are simulation seconds.
type Agent struct {
	Faction    faction.Faction
	BaseSpeed  float64 // faction speed, set on spawn and conversion
	SpeedScale float64 // effective multiplier from active effects, clamped
	SpawnedAt  float64

	Shielded    bool
	ShieldUntil float64

	// Per-agent tempo from area effects (freeze, critical slow, bloom).
	Tempo      float64
	TempoUntil float64

	// Contact stamps: a contact resolves only once both have elapsed for both agents.
	NextInteractionAt     float64
	InteractionGuardUntil float64

	Fragment  bool
	ExpiresAt float64 // fragment removal time, zero for regular agents

	Fading bool
	FadeAt float64 // removal time once thinning marked the agent

	WavePhase float64 // Water sinusoidal steering phase
	Alpha     float64 // cosmetic, not part of the simulation contract
}

// ReadyForContact reports whether both contact stamps have elapsed.
func (a *Agent) ReadyForContact(now float64) bool {
	return now >= a.NextInteractionAt && now >= a.InteractionGuardUntil
}

// Active reports whether the agent takes part in contacts and regulation.
func (a *Agent) Active() bool {
	return !a.Fading
}

// GrantShield shields the agent until at least until.
func (a *Agent) GrantShield(until float64) {
	a.Shielded = true
	a.ShieldUntil = max(a.ShieldUntil, until)
}

// SetTempo applies a per-agent speed multiplier until the given time.
// A later call replaces an earlier one.
func (a *Agent) SetTempo(factor, until float64) {
	a.Tempo = factor
	a.TempoUntil = until
}

// TempoFactor returns the active per-agent multiplier at now.
func (a *Agent) TempoFactor(now float64) float64 {
	if a.Tempo == 0 || now >= a.TempoUntil {
		return 1
	}
	return a.Tempo
}
