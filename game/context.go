// Package game runs one arena match: it steps the systems in a fixed order,
// routes operator commands to the ability controller, and decides when and
// how a run ends.
package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/persist"
	"github.com/pthm-cable/equilibrium/rng"
)

// Boundary errors. Commands failing with one of these mutate nothing.
var (
	ErrUnknownAbility = errors.New("unknown ability key")
	ErrInvalidPoint   = errors.New("invalid target point")
	ErrUnknownFaction = errors.New("unknown faction")
	ErrUnknownMode    = errors.New("unknown mode")
)

// Context carries everything a Simulation needs from its surroundings:
// configuration, the random stream and the persistence ports. There are no
// package-level globals.
type Context struct {
	Config  *config.Config
	RNG     *rng.Stream
	Persist persist.Store
	Runs    persist.RunLog // optional
	Seed    string
}

// NewContext resolves the run seed and builds its random stream. The seed is
// the explicit one when non-blank, else the stored one, else a fresh random
// seed. The resolved seed is written back to the store.
func NewContext(cfg *config.Config, p persist.Store, runs persist.RunLog, seed string) (*Context, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if p == nil {
		p = persist.NewMemory()
	}

	seed = strings.TrimSpace(seed)
	if seed == "" {
		stored, ok, err := p.Get(persist.KeySeed)
		if err != nil {
			return nil, fmt.Errorf("read seed: %w", err)
		}
		if ok {
			seed = strings.TrimSpace(stored)
		}
	}
	if seed == "" {
		seed = rng.NewSeed()
	}
	if err := p.Set(persist.KeySeed, seed); err != nil {
		return nil, fmt.Errorf("write seed: %w", err)
	}

	return &Context{
		Config:  cfg,
		RNG:     rng.New(seed),
		Persist: p,
		Runs:    runs,
		Seed:    seed,
	}, nil
}

// Reseed returns a context for a new run sharing config and ports. An empty
// seed regenerates one.
func (c *Context) Reseed(seed string) (*Context, error) {
	if strings.TrimSpace(seed) == "" {
		seed = rng.NewSeed()
	}
	return NewContext(c.Config, c.Persist, c.Runs, seed)
}

// Mode selects the victory condition of a run.
type Mode uint8

const (
	// Balance ends when any faction dies out; longer runs score better.
	Balance Mode = iota
	// Domination ends when one faction holds everyone; faster runs score better.
	Domination
)

func (m Mode) String() string {
	switch m {
	case Balance:
		return "balance"
	case Domination:
		return "domination"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// HigherIsBetter reports the score ordering of the mode.
func (m Mode) HigherIsBetter() bool {
	return m == Balance
}

// Other returns the mode a toggle switches to.
func (m Mode) Other() Mode {
	if m == Balance {
		return Domination
	}
	return Balance
}

// ParseMode converts a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "balance":
		return Balance, nil
	case "domination":
		return Domination, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
