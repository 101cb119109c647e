// Package faction defines the three factions and their cyclic dominance rule.
package faction

import (
	"fmt"
	"strings"
)

// Faction identifies one of the three agent factions.
type Faction uint8

const (
	Fire  Faction = iota // A
	Water                // B
	Earth                // C
)

// Count is the number of factions. The set is closed.
const Count = 3

// All lists the factions in declaration order. Tie-breaks follow this order.
var All = [Count]Faction{Fire, Water, Earth}

// Outcome is the result of one faction meeting another.
type Outcome int8

const (
	Neutral Outcome = iota
	Wins
	Loses
)

// prey[f] is the faction that f converts.
var prey = [Count]Faction{
	Fire:  Earth,
	Water: Fire,
	Earth: Water,
}

// Valid reports whether f is one of the three factions.
func (f Faction) Valid() bool {
	return f < Count
}

func (f Faction) mustValid() {
	if !f.Valid() {
		panic(fmt.Sprintf("faction: unknown faction id %d", uint8(f)))
	}
}

// Beats reports whether attacker converts defender on contact.
// Panics on an unrecognized faction id.
func Beats(attacker, defender Faction) bool {
	attacker.mustValid()
	defender.mustValid()
	return prey[attacker] == defender
}

// Resolve returns the outcome of attacker meeting defender from the attacker's side.
func Resolve(attacker, defender Faction) Outcome {
	switch {
	case Beats(attacker, defender):
		return Wins
	case Beats(defender, attacker):
		return Loses
	default:
		return Neutral
	}
}

// Prey returns the faction f converts.
func (f Faction) Prey() Faction {
	f.mustValid()
	return prey[f]
}

// String returns the short faction name.
func (f Faction) String() string {
	switch f {
	case Fire:
		return "Fire"
	case Water:
		return "Water"
	case Earth:
		return "Earth"
	default:
		return fmt.Sprintf("Faction(%d)", uint8(f))
	}
}

// DisplayName returns the in-game label shown to the operator.
func (f Faction) DisplayName() string {
	switch f {
	case Fire:
		return "Thermal Protocol"
	case Water:
		return "Liquid Node"
	case Earth:
		return "Core Process"
	default:
		return f.String()
	}
}

// Parse converts a name ("fire", "A", "Thermal Protocol") into a Faction.
func Parse(s string) (Faction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fire", "a", "thermal", "thermal protocol":
		return Fire, nil
	case "water", "b", "liquid", "liquid node":
		return Water, nil
	case "earth", "c", "core", "core process":
		return Earth, nil
	}
	return 0, fmt.Errorf("faction: unknown faction %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Faction) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("faction: unknown faction id %d", uint8(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Faction) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
