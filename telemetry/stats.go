package telemetry

import "log/slog"

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStart float64 `csv:"-"`
	WindowEnd   float64 `csv:"window_end"`

	// Population at window end
	Fire  int `csv:"fire"`
	Water int `csv:"water"`
	Earth int `csv:"earth"`
	Total int `csv:"total"`

	// Conversions won during the window, by winner
	FireWins  int `csv:"fire_wins"`
	WaterWins int `csv:"water_wins"`
	EarthWins int `csv:"earth_wins"`
	Criticals int `csv:"criticals"`

	Interventions int `csv:"interventions"`
	Combos        int `csv:"combos"`
	Drifted       int `csv:"drifted"`
	Thinned       int `csv:"thinned"`
	Fragments     int `csv:"fragments"`
	Duplicates    int `csv:"duplicates"`
	Purged        int `csv:"purged"`

	// Equilibrium samples taken every step
	EquilibriumMean float64 `csv:"equilibrium_mean"`
	EquilibriumStd  float64 `csv:"equilibrium_std"`
	EquilibriumMin  float64 `csv:"equilibrium_min"`
	EquilibriumMax  float64 `csv:"equilibrium_max"`
}

// Share returns the largest and smallest faction shares of the population.
func (s WindowStats) Share() (lo, hi float64) {
	if s.Total == 0 {
		return 0, 0
	}
	t := float64(s.Total)
	lo = float64(min(s.Fire, s.Water, s.Earth)) / t
	hi = float64(max(s.Fire, s.Water, s.Earth)) / t
	return lo, hi
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("window_start", s.WindowStart),
		slog.Float64("window_end", s.WindowEnd),
		slog.Int("fire", s.Fire),
		slog.Int("water", s.Water),
		slog.Int("earth", s.Earth),
		slog.Int("total", s.Total),
		slog.Int("fire_wins", s.FireWins),
		slog.Int("water_wins", s.WaterWins),
		slog.Int("earth_wins", s.EarthWins),
		slog.Int("criticals", s.Criticals),
		slog.Int("interventions", s.Interventions),
		slog.Int("combos", s.Combos),
		slog.Int("drifted", s.Drifted),
		slog.Int("thinned", s.Thinned),
		slog.Int("fragments", s.Fragments),
		slog.Int("duplicates", s.Duplicates),
		slog.Int("purged", s.Purged),
		slog.Float64("equilibrium_mean", s.EquilibriumMean),
		slog.Float64("equilibrium_std", s.EquilibriumStd),
		slog.Float64("equilibrium_min", s.EquilibriumMin),
		slog.Float64("equilibrium_max", s.EquilibriumMax),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
