// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/equilibrium/faction"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World       WorldConfig       `yaml:"world"`
	Agent       AgentConfig       `yaml:"agent"`
	Behavior    BehaviorConfig    `yaml:"behavior"`
	Population  PopulationConfig  `yaml:"population"`
	Interaction InteractionConfig `yaml:"interaction"`
	Elements    ElementsConfig    `yaml:"elements"`
	Abilities   AbilitiesConfig   `yaml:"abilities"`
	Combos      CombosConfig      `yaml:"combos"`
	Regulator   RegulatorConfig   `yaml:"regulator"`
	Lifecycle   LifecycleConfig   `yaml:"lifecycle"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds arena dimensions.
type WorldConfig struct {
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Padding float64 `yaml:"padding"` // spawn and target points are clamped this far inside the bounds
}

// PerFaction holds one value per faction.
type PerFaction struct {
	Fire  float64 `yaml:"fire"`
	Water float64 `yaml:"water"`
	Earth float64 `yaml:"earth"`
}

// Of returns the value for f.
func (p PerFaction) Of(f faction.Faction) float64 {
	switch f {
	case faction.Fire:
		return p.Fire
	case faction.Water:
		return p.Water
	case faction.Earth:
		return p.Earth
	}
	panic(fmt.Sprintf("config: unknown faction id %d", uint8(f)))
}

// AgentConfig holds agent movement parameters.
type AgentConfig struct {
	BaseSpeed        float64    `yaml:"base_speed"`        // world units per second before faction factor
	SpeedFactor      PerFaction `yaml:"speed_factor"`      // per-faction multiplier on base speed
	InitialSpeedMin  float64    `yaml:"initial_speed_min"` // spawn speed variance, fraction of base speed
	InitialSpeedMax  float64    `yaml:"initial_speed_max"`
	MaxSpeedFactor   float64    `yaml:"max_speed_factor"`  // hard velocity ceiling, fraction of target speed
	ImpactMultiplier float64    `yaml:"impact_multiplier"` // velocity kick applied on conversion
	MinSpeedScale    float64    `yaml:"min_speed_scale"`
	MaxSpeedScale    float64    `yaml:"max_speed_scale"`
	Radius           float64    `yaml:"radius"` // contact radius used by the arena
}

// BehaviorConfig holds the always-on per-faction movement biases.
type BehaviorConfig struct {
	FireJitter         float64 `yaml:"fire_jitter"`          // max heading jitter, radians per second
	WaterWaveFrequency float64 `yaml:"water_wave_frequency"` // phase advance, radians per second
	WaterWaveAmplitude float64 `yaml:"water_wave_amplitude"` // turn rate at peak phase, radians per second
	EarthDamping       float64 `yaml:"earth_damping"`        // exponential damping rate per second
	RelaxRate          float64 `yaml:"relax_rate"`           // exponential relax toward target speed per second
}

// PopulationConfig holds population limits.
type PopulationConfig struct {
	Initial int `yaml:"initial"`
	HardCap int `yaml:"hard_cap"`
	SoftCap int `yaml:"soft_cap"`
}

// InteractionConfig holds the per-agent contact cooldown stamps.
type InteractionConfig struct {
	AttackerRearm float64 `yaml:"attacker_rearm"` // seconds before a winner can convert again
	DefenderGuard float64 `yaml:"defender_guard"` // seconds a freshly converted agent is protected
}

// ElementsConfig holds the secondary effects of resolved contacts.
type ElementsConfig struct {
	Fragment  FragmentConfig  `yaml:"fragment"`  // Fire beats Earth
	Duplicate DuplicateConfig `yaml:"duplicate"` // Water beats Fire
	Bulwark   AreaConfig      `yaml:"bulwark"`   // Earth beats Water
	Critical  CriticalConfig  `yaml:"critical"`
}

// FragmentConfig controls short-lived fragment spawns.
type FragmentConfig struct {
	Chance   float64 `yaml:"chance"`
	Min      int     `yaml:"min"`
	Max      int     `yaml:"max"`
	Lifetime float64 `yaml:"lifetime"`
	Scatter  float64 `yaml:"scatter"`
}

// DuplicateConfig controls duplication spawns.
type DuplicateConfig struct {
	Chance  float64 `yaml:"chance"`
	Min     int     `yaml:"min"`
	Max     int     `yaml:"max"`
	Scatter float64 `yaml:"scatter"`
	Push    float64 `yaml:"push"` // speed multiplier away from the impact point
}

// AreaConfig describes a radius-limited timed effect.
type AreaConfig struct {
	Radius   float64 `yaml:"radius"`
	Duration float64 `yaml:"duration"`
	Factor   float64 `yaml:"factor"`
	Limit    int     `yaml:"limit"`
}

// CriticalConfig controls the rare faction-specific amplifier.
type CriticalConfig struct {
	Chance float64    `yaml:"chance"`
	Fire   AreaConfig `yaml:"fire"`  // bonus conversions of nearby prey
	Water  AreaConfig `yaml:"water"` // area slow on nearby prey
	Earth  AreaConfig `yaml:"earth"` // area shield on nearby kin
}

// AbilitiesConfig holds the five operator interventions.
type AbilitiesConfig struct {
	Cooldowns      CooldownConfig `yaml:"cooldowns"`
	SlowFactor     float64        `yaml:"slow_factor"`
	SlowDuration   float64        `yaml:"slow_duration"`
	BuffFactor     float64        `yaml:"buff_factor"`
	BuffDuration   float64        `yaml:"buff_duration"`
	ShieldDuration float64        `yaml:"shield_duration"`
	PurgeRadius    float64        `yaml:"purge_radius"`
	PurgeLimit     int            `yaml:"purge_limit"`
}

// CooldownConfig holds cooldown seconds per ability key.
type CooldownConfig struct {
	Spawn  float64 `yaml:"spawn"`
	Slow   float64 `yaml:"slow"`
	Buff   float64 `yaml:"buff"`
	Shield float64 `yaml:"shield"`
	Purge  float64 `yaml:"purge"`
}

// CombosConfig holds per-combo windows and parameters.
type CombosConfig struct {
	Freeze     ComboConfig `yaml:"freeze"`      // 2 then 5
	ShieldWall ComboConfig `yaml:"shield_wall"` // 1 then 4
	Escort     ComboConfig `yaml:"escort"`      // 4 then 1
	Bloom      ComboConfig `yaml:"bloom"`       // 3 then 2
	Overload   ComboConfig `yaml:"overload"`    // 3 then 5
}

// ComboConfig parameterizes one combo.
type ComboConfig struct {
	Window   float64 `yaml:"window"`
	Radius   float64 `yaml:"radius"`
	Duration float64 `yaml:"duration"`
	Factor   float64 `yaml:"factor"`
	Count    int     `yaml:"count"`
}

// RegulatorConfig holds anti-stalemate drift and soft-cap thinning parameters.
type RegulatorConfig struct {
	IdleThreshold float64 `yaml:"idle_threshold"`  // seconds without an ability before drift starts
	DriftBase     float64 `yaml:"drift_base"`      // conversions per second once idle
	DriftTimeRate float64 `yaml:"drift_time_rate"` // added per second of run time
	DriftIdleRate float64 `yaml:"drift_idle_rate"` // added per second idle beyond the threshold
	DriftMax      float64 `yaml:"drift_max"`       // ceiling on the drift rate
	ThinRate      float64 `yaml:"thin_rate"`       // despawns per second per agent above the soft cap
	FadeDuration  float64 `yaml:"fade_duration"`   // seconds between thinning mark and removal
}

// LifecycleConfig holds run termination and achievement thresholds.
type LifecycleConfig struct {
	EquilibriumThreshold float64 `yaml:"equilibrium_threshold"`
	StableWindow         float64 `yaml:"stable_window"`
	MinimalistMax        int     `yaml:"minimalist_max"`
	ComboArtistMin       int     `yaml:"combo_artist_min"`
	SwiftDominion        float64 `yaml:"swift_dominion"`
	MinTimeScale         float64 `yaml:"min_time_scale"`
	MaxTimeScale         float64 `yaml:"max_time_scale"`
}

// PhysicsConfig holds the reference arena integration parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`
	GridCellSize float64 `yaml:"grid_cell_size"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	EventLogSize        int     `yaml:"event_log_size"`
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	BaseSpeed   [faction.Count]float64 // Agent.BaseSpeed * SpeedFactor per faction
	ComboWindow float64                // widest combo window
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize validates the config and recomputes derived values.
// Call it after mutating a loaded config.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	if c.World.Width <= 2*c.World.Padding || c.World.Height <= 2*c.World.Padding {
		return fmt.Errorf("world %vx%v too small for padding %v", c.World.Width, c.World.Height, c.World.Padding)
	}
	if c.Population.HardCap <= 0 {
		return fmt.Errorf("population.hard_cap must be positive, got %d", c.Population.HardCap)
	}
	if c.Population.SoftCap <= 0 || c.Population.SoftCap >= c.Population.HardCap {
		return fmt.Errorf("population.soft_cap %d must be in (0, hard_cap %d)", c.Population.SoftCap, c.Population.HardCap)
	}
	if c.Population.Initial < 0 || c.Population.Initial > c.Population.HardCap {
		return fmt.Errorf("population.initial %d outside [0, %d]", c.Population.Initial, c.Population.HardCap)
	}
	if c.Agent.MinSpeedScale <= 0 || c.Agent.MinSpeedScale > c.Agent.MaxSpeedScale {
		return fmt.Errorf("agent speed scale range [%v, %v] is invalid", c.Agent.MinSpeedScale, c.Agent.MaxSpeedScale)
	}
	probs := map[string]float64{
		"elements.fragment.chance":  c.Elements.Fragment.Chance,
		"elements.duplicate.chance": c.Elements.Duplicate.Chance,
		"elements.critical.chance":  c.Elements.Critical.Chance,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %v", name, p)
		}
	}
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	if c.Physics.GridCellSize <= 0 {
		return fmt.Errorf("physics.grid_cell_size must be positive, got %v", c.Physics.GridCellSize)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	for _, f := range faction.All {
		c.Derived.BaseSpeed[f] = c.Agent.BaseSpeed * c.Agent.SpeedFactor.Of(f)
	}

	c.Derived.ComboWindow = 0
	for _, combo := range []ComboConfig{c.Combos.Freeze, c.Combos.ShieldWall, c.Combos.Escort, c.Combos.Bloom, c.Combos.Overload} {
		c.Derived.ComboWindow = max(c.Derived.ComboWindow, combo.Window)
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
