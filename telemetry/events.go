// Package telemetry records what happened during a run: structured events,
// windowed statistics, milestone bookmarks, and their file outputs.
package telemetry

import (
	"fmt"

	"github.com/pthm-cable/equilibrium/faction"
)

// EventKind identifies an event.
type EventKind string

const (
	EventSpawn           EventKind = "spawn"
	EventBuffApplied     EventKind = "buff-applied"
	EventSystemMessage   EventKind = "system-message"
	EventConversion      EventKind = "conversion"
	EventPurge           EventKind = "purge"
	EventCombo           EventKind = "combo"
	EventDrift           EventKind = "drift"
	EventThin            EventKind = "thin"
	EventFragmentExpired EventKind = "fragment-expired"
)

// Event is one structured log entry stamped with simulation time.
type Event struct {
	Kind    EventKind `json:"kind"`
	At      float64   `json:"at"`
	Faction string    `json:"faction,omitempty"`
	Count   int       `json:"count,omitempty"`
	Message string    `json:"message"`
}

// NewSpawnEvent records agents added by an ability or combo.
func NewSpawnEvent(at float64, f faction.Faction, n int) Event {
	return Event{
		Kind:    EventSpawn,
		At:      at,
		Faction: f.String(),
		Count:   n,
		Message: fmt.Sprintf("%d %s spawned", n, f.String()),
	}
}

// NewBuffEvent records a speed effect landing on a faction.
func NewBuffEvent(at float64, f faction.Faction, effect string, factor, duration float64) Event {
	return Event{
		Kind:    EventBuffApplied,
		At:      at,
		Faction: f.String(),
		Message: fmt.Sprintf("%s x%.2f on %s for %.0fs", effect, factor, f.String(), duration),
	}
}

// NewSystemEvent records a free-form message.
func NewSystemEvent(at float64, format string, args ...any) Event {
	return Event{
		Kind:    EventSystemMessage,
		At:      at,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewConversionEvent records conversions won by f during one step.
func NewConversionEvent(at float64, f faction.Faction, n int) Event {
	return Event{
		Kind:    EventConversion,
		At:      at,
		Faction: f.String(),
		Count:   n,
		Message: fmt.Sprintf("%s converted %d", f.String(), n),
	}
}

// NewPurgeEvent records agents destroyed by a purge.
func NewPurgeEvent(at float64, n int) Event {
	return Event{
		Kind:    EventPurge,
		At:      at,
		Count:   n,
		Message: fmt.Sprintf("purge removed %d", n),
	}
}

// NewComboEvent records a combo firing.
func NewComboEvent(at float64, name string, affected int) Event {
	return Event{
		Kind:    EventCombo,
		At:      at,
		Count:   affected,
		Message: fmt.Sprintf("combo %s hit %d", name, affected),
	}
}

// NewDriftEvent records a forced conversion.
func NewDriftEvent(at float64, from, to faction.Faction) Event {
	return Event{
		Kind:    EventDrift,
		At:      at,
		Faction: to.String(),
		Count:   1,
		Message: fmt.Sprintf("drift moved one %s to %s", from.String(), to.String()),
	}
}

// NewThinEvent records agents marked for removal above the soft cap.
func NewThinEvent(at float64, f faction.Faction, n int) Event {
	return Event{
		Kind:    EventThin,
		At:      at,
		Faction: f.String(),
		Count:   n,
		Message: fmt.Sprintf("thinning %d %s", n, f.String()),
	}
}

// NewFragmentExpiredEvent records fragments that timed out.
func NewFragmentExpiredEvent(at float64, n int) Event {
	return Event{
		Kind:    EventFragmentExpired,
		At:      at,
		Count:   n,
		Message: fmt.Sprintf("%d fragments dissolved", n),
	}
}

// EventLog is a bounded ring of the most recent events.
type EventLog struct {
	buf   []Event
	start int
	n     int
}

// NewEventLog creates a log holding at most size events.
func NewEventLog(size int) *EventLog {
	if size < 1 {
		size = 1
	}
	return &EventLog{buf: make([]Event, size)}
}

// Append adds e, evicting the oldest event when full.
func (l *EventLog) Append(e Event) {
	if l.n < len(l.buf) {
		l.buf[(l.start+l.n)%len(l.buf)] = e
		l.n++
		return
	}
	l.buf[l.start] = e
	l.start = (l.start + 1) % len(l.buf)
}

// Events returns the retained events, oldest first.
func (l *EventLog) Events() []Event {
	out := make([]Event, l.n)
	for i := range out {
		out[i] = l.buf[(l.start+i)%len(l.buf)]
	}
	return out
}

// Len returns the number of retained events.
func (l *EventLog) Len() int {
	return l.n
}

// Clear drops every event.
func (l *EventLog) Clear() {
	l.start, l.n = 0, 0
}
