package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/persist"
	"github.com/pthm-cable/equilibrium/telemetry"
)

// terminated applies the victory condition of the mode to the counts of
// the current step.
func (s *Simulation) terminated(c faction.Counts) bool {
	switch s.mode {
	case Balance:
		return c.Exhausted()
	case Domination:
		_, ok := c.Dominant()
		return ok
	}
	return false
}

// finish freezes the run, settles the best score, records the run and
// builds the terminal summary. The elapsed time is the score.
func (s *Simulation) finish() *Summary {
	s.ended = true
	s.abilities.CancelAll()
	s.combos.Reset()

	score := s.now
	sum := &Summary{
		Mode:          s.mode,
		Elapsed:       s.now,
		Score:         score,
		Best:          score,
		Counts:        s.census.Counts,
		Achievements:  s.achievements(),
		Seed:          s.ctx.Seed,
		Interventions: s.interventions,
		Combos:        s.combos.Triggers(),
		StableFor:     s.longestStable,
	}

	best, improved, err := persist.UpdateBest(s.ctx.Persist, s.mode.String(), score, s.mode.HigherIsBetter())
	if err != nil {
		slog.Warn("best score not saved", "mode", s.mode.String(), "error", err)
	}
	sum.Best, sum.NewBest = best, improved

	if s.ctx.Runs != nil {
		if err := s.ctx.Runs.RecordRun(sum.RunRecord(time.Now())); err != nil {
			slog.Warn("run not recorded", "error", err)
		}
	}

	s.emit(telemetry.NewSystemEvent(s.now, "%s run ended after %.1fs", s.mode, score))
	s.summary = sum
	return sum
}

// achievements tallies the run's counters against the configured thresholds.
func (s *Simulation) achievements() []string {
	lc := s.cfg.Lifecycle
	out := []string{}
	// Only the streak still running at the end counts.
	if s.stable >= lc.StableWindow {
		out = append(out, AchievementEquilibriumKeeper)
	}
	if !s.purgeUsed {
		out = append(out, AchievementMerciful)
	}
	if s.interventions <= lc.MinimalistMax {
		out = append(out, AchievementMinimalist)
	}
	if s.combos.Triggers() >= lc.ComboArtistMin {
		out = append(out, AchievementComboArtist)
	}
	if s.mode == Domination && s.now < lc.SwiftDominion {
		out = append(out, AchievementSwiftDominion)
	}
	return out
}
