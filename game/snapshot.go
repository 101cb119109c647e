package game

import (
	"time"

	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/persist"
	"github.com/pthm-cable/equilibrium/systems"
	"github.com/pthm-cable/equilibrium/telemetry"
)

// Snapshot is the per-step picture handed to presentation layers.
type Snapshot struct {
	Mode        Mode           `json:"mode"`
	Elapsed     float64        `json:"elapsed"`
	Counts      faction.Counts `json:"counts"`
	Equilibrium float64        `json:"equilibrium"`
	Total       int            `json:"total"`
	Paused      bool           `json:"paused"`
	Ended       bool           `json:"ended"`
}

// Achievement names.
const (
	AchievementEquilibriumKeeper = "EquilibriumKeeper"
	AchievementMerciful          = "Merciful"
	AchievementMinimalist        = "Minimalist"
	AchievementComboArtist       = "ComboArtist"
	AchievementSwiftDominion     = "SwiftDominion"
)

// Summary is emitted once when a run ends.
type Summary struct {
	Mode          Mode           `json:"mode"`
	Elapsed       float64        `json:"elapsed"`
	Score         float64        `json:"score"`
	Best          float64        `json:"best"`
	NewBest       bool           `json:"new_best"`
	Counts        faction.Counts `json:"counts"`
	Achievements  []string       `json:"achievements"`
	Seed          string         `json:"seed"`
	Interventions int            `json:"interventions"`
	Combos        int            `json:"combos"`
	StableFor     float64        `json:"stable_for"`
}

// RunRecord converts the summary into a run history entry.
func (s Summary) RunRecord(endedAt time.Time) persist.RunRecord {
	return persist.RunRecord{
		Mode:         s.Mode.String(),
		Seed:         s.Seed,
		Score:        s.Score,
		Best:         s.Best,
		NewBest:      s.NewBest,
		Achievements: s.Achievements,
		EndedAt:      endedAt,
	}
}

// StepReport exposes what the systems did during one step, for telemetry.
type StepReport struct {
	DT         float64
	Contacts   systems.ContactReport
	Regulation systems.Regulation
	Sweep      systems.Sweep
	Expired    []systems.Effect
}

// TickResult is the output of one Step.
type TickResult struct {
	Snapshot Snapshot
	Report   StepReport
	Events   []telemetry.Event
	Summary  *Summary // set on the step the run ends
}

// Advanced reports whether the step moved simulation time.
func (r TickResult) Advanced() bool {
	return r.Report.DT > 0
}
