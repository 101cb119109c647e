package game

import "fmt"

// ControlKind selects what a Control asks the runner to do.
type ControlKind string

const (
	ControlInvoke     ControlKind = "invoke"
	ControlPause      ControlKind = "pause"
	ControlRestart    ControlKind = "restart"
	ControlToggleMode ControlKind = "toggle-mode"
	ControlSetMode    ControlKind = "set-mode"
	ControlTimeScale  ControlKind = "time-scale"
)

// Control is a request from a presentation layer: an ability invocation or
// one of the pause, restart and mode requests.
type Control struct {
	Kind       ControlKind `json:"kind"`
	Command    Command     `json:"command"`
	Regenerate bool        `json:"regenerate,omitempty"` // restart with a fresh seed
	Mode       string      `json:"mode,omitempty"`
	Scale      float64     `json:"scale,omitempty"`
}

// Apply executes c against the session. Only ControlInvoke produces an
// Outcome.
func (s *Session) Apply(c Control) (*Outcome, error) {
	switch c.Kind {
	case ControlInvoke:
		out, err := s.sim.Invoke(c.Command)
		if err != nil {
			return nil, err
		}
		return &out, nil
	case ControlPause:
		s.sim.TogglePause()
	case ControlRestart:
		if _, err := s.Restart(c.Regenerate); err != nil {
			return nil, err
		}
	case ControlToggleMode:
		if _, err := s.ToggleMode(); err != nil {
			return nil, err
		}
	case ControlSetMode:
		m, err := ParseMode(c.Mode)
		if err != nil {
			return nil, err
		}
		if _, err := s.SetMode(m); err != nil {
			return nil, err
		}
	case ControlTimeScale:
		s.sim.SetTimeScale(c.Scale)
	default:
		return nil, fmt.Errorf("unknown control %q", c.Kind)
	}
	return nil, nil
}
