package systems

import (
	"github.com/pthm-cable/equilibrium/components"
	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/faction"
)

// ComboKind identifies a two-step ability sequence.
type ComboKind uint8

const (
	ComboNone ComboKind = iota
	ComboFreeze
	ComboShieldWall
	ComboEscort
	ComboBloom
	ComboOverload
)

var comboNames = [...]string{
	ComboNone:       "none",
	ComboFreeze:     "freeze",
	ComboShieldWall: "shield-wall",
	ComboEscort:     "escort",
	ComboBloom:      "bloom",
	ComboOverload:   "overload",
}

func (k ComboKind) String() string {
	if int(k) < len(comboNames) {
		return comboNames[k]
	}
	return "unknown"
}

// ComboDef is a directional sequence: First then Second within Window seconds.
type ComboDef struct {
	Kind   ComboKind
	First  Key
	Second Key
	Window float64
}

// ComboDefs returns the combo table built from config.
func ComboDefs(cfg *config.Config) []ComboDef {
	c := cfg.Combos
	return []ComboDef{
		{Kind: ComboFreeze, First: KeySlow, Second: KeyPurge, Window: c.Freeze.Window},
		{Kind: ComboShieldWall, First: KeySpawn, Second: KeyShield, Window: c.ShieldWall.Window},
		{Kind: ComboEscort, First: KeyShield, Second: KeySpawn, Window: c.Escort.Window},
		{Kind: ComboBloom, First: KeyBuff, Second: KeySlow, Window: c.Bloom.Window},
		{Kind: ComboOverload, First: KeyBuff, Second: KeyPurge, Window: c.Overload.Window},
	}
}

// ComboRecord is one successful ability invocation.
type ComboRecord struct {
	Key      Key
	At       float64
	HasPoint bool
	Point    components.Position
	Faction  faction.Faction // faction the ability targeted
}

// ComboMatch is a completed sequence.
type ComboMatch struct {
	Kind   ComboKind
	First  ComboRecord
	Second ComboRecord
}

// ComboDetector matches recent invocations against the combo table.
type ComboDetector struct {
	defs     []ComboDef
	horizon  float64
	records  []ComboRecord
	triggers int
}

// NewComboDetector creates a detector for the configured combos.
func NewComboDetector(cfg *config.Config) *ComboDetector {
	return &ComboDetector{
		defs:    ComboDefs(cfg),
		horizon: cfg.Derived.ComboWindow,
	}
}

// Observe records a successful invocation and reports the combo it completes.
// At most one combo fires per invocation; the matched first record is
// consumed so it cannot complete another sequence.
func (d *ComboDetector) Observe(rec ComboRecord) (ComboMatch, bool) {
	d.prune(rec.At)
	d.records = append(d.records, rec)
	newest := len(d.records) - 1

	bestIdx := -1
	var bestDef ComboDef
	for _, def := range d.defs {
		if def.Second != rec.Key {
			continue
		}
		for i := newest - 1; i >= 0; i-- {
			r := d.records[i]
			if r.Key != def.First || rec.At-r.At > def.Window {
				continue
			}
			if i > bestIdx {
				bestIdx, bestDef = i, def
			}
			break
		}
	}
	if bestIdx < 0 {
		return ComboMatch{}, false
	}

	first := d.records[bestIdx]
	d.records = append(d.records[:bestIdx], d.records[bestIdx+1:]...)
	d.triggers++
	return ComboMatch{Kind: bestDef.Kind, First: first, Second: rec}, true
}

// Triggers returns how many combos have fired.
func (d *ComboDetector) Triggers() int {
	return d.triggers
}

// Reset drops all pending records.
func (d *ComboDetector) Reset() {
	d.records = d.records[:0]
}

func (d *ComboDetector) prune(now float64) {
	keep := d.records[:0]
	for _, r := range d.records {
		if now-r.At <= d.horizon {
			keep = append(keep, r)
		}
	}
	d.records = keep
}
