package game

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pthm-cable/equilibrium/components"
	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/systems"
)

// Command is an operator's ability invocation as it arrives from outside.
type Command struct {
	Key     int                  `json:"key"`
	Point   *components.Position `json:"point,omitempty"`
	Faction string               `json:"faction,omitempty"` // optional context for combos
}

// validated is a Command that passed boundary checks.
type validated struct {
	key     systems.Key
	target  systems.Target
	faction faction.Faction
	hasFac  bool
}

func (c Command) validate() (validated, error) {
	v := validated{key: systems.Key(c.Key)}
	if !v.key.Valid() {
		return v, fmt.Errorf("%w: %d", ErrUnknownAbility, c.Key)
	}
	if c.Point != nil {
		if !finite(c.Point.X) || !finite(c.Point.Y) {
			return v, fmt.Errorf("%w: (%v, %v)", ErrInvalidPoint, c.Point.X, c.Point.Y)
		}
		v.target = systems.At(*c.Point)
	}
	if c.Faction != "" {
		f, err := faction.Parse(c.Faction)
		if err != nil {
			return v, fmt.Errorf("%w: %q", ErrUnknownFaction, c.Faction)
		}
		v.faction, v.hasFac = f, true
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ScheduledCommand is a command to issue once simulation time reaches At.
type ScheduledCommand struct {
	At      float64
	Command Command
}

// ParseScript parses a schedule of whitespace or ';' separated
// entries "t:key" or "t:key@x,y", for example "1.5:2 3:5@640,360".
func ParseScript(s string) ([]ScheduledCommand, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]ScheduledCommand, 0, len(fields))
	for _, f := range fields {
		at, rest, ok := strings.Cut(f, ":")
		if !ok {
			return nil, fmt.Errorf("script entry %q: missing ':'", f)
		}
		t, err := strconv.ParseFloat(at, 64)
		if err != nil || !finite(t) || t < 0 {
			return nil, fmt.Errorf("script entry %q: bad time", f)
		}
		keyStr, point, hasPoint := strings.Cut(rest, "@")
		key, err := strconv.Atoi(keyStr)
		if err != nil {
			return nil, fmt.Errorf("script entry %q: bad key: %w", f, err)
		}
		cmd := Command{Key: key}
		if hasPoint {
			xs, ys, ok := strings.Cut(point, ",")
			if !ok {
				return nil, fmt.Errorf("script entry %q: point must be x,y", f)
			}
			x, errX := strconv.ParseFloat(xs, 64)
			y, errY := strconv.ParseFloat(ys, 64)
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("script entry %q: bad point", f)
			}
			cmd.Point = &components.Position{X: x, Y: y}
		}
		if _, err := cmd.validate(); err != nil {
			return nil, fmt.Errorf("script entry %q: %w", f, err)
		}
		out = append(out, ScheduledCommand{At: t, Command: cmd})
	}
	for i := 1; i < len(out); i++ {
		if out[i].At < out[i-1].At {
			return nil, fmt.Errorf("script entries must be in time order")
		}
	}
	return out, nil
}
