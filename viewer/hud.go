package viewer

import (
	"fmt"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/game"
	"github.com/pthm-cable/equilibrium/systems"
	"github.com/pthm-cable/equilibrium/telemetry"
)

const (
	panelWidth   = 300
	buttonHeight = 28
	logLines     = 12
)

// HUD draws the side panel: run status, faction counts, ability buttons and
// the recent event log. Button presses are returned as controls.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD(r *Renderer) *HUD {
	return &HUD{renderer: r}
}

// Draw renders the panel at x and returns controls requested by clicks.
func (h *HUD) Draw(x, screenH int32, sim *game.Simulation, threshold float64, fps int32) []game.Control {
	r := h.renderer
	t := r.Theme
	var out []game.Control

	r.DrawPanel(x, 0, panelWidth, screenH)
	inner := x + t.Padding
	width := int32(panelWidth) - 2*t.Padding
	snap := sim.Snapshot()

	y := r.DrawSectionHeader(inner, t.Padding, "Equilibrium Arena")
	y = r.DrawLabelValue(inner, y, "Mode", snap.Mode.String())
	y = r.DrawLabelValue(inner, y, "Seed", sim.Seed())
	y = r.DrawLabelValue(inner, y, "Elapsed", fmt.Sprintf("%.1fs", snap.Elapsed))
	y = r.DrawLabelValue(inner, y, "Speed", fmt.Sprintf("%.2gx | FPS %d", sim.TimeScale(), fps))
	status := "Running"
	switch {
	case snap.Ended:
		status = "Ended"
	case snap.Paused:
		status = "PAUSED"
	}
	y = r.DrawLabelValue(inner, y, "Status", status)
	y += 6

	y = r.DrawSectionHeader(inner, y, "Factions")
	for _, f := range faction.All {
		share := float32(0)
		if snap.Total > 0 {
			share = float32(snap.Counts[f]) / float32(snap.Total)
		}
		y = r.DrawBar(inner, y, f.DisplayName(), share, fmt.Sprintf("%d", snap.Counts[f]), FactionColor(f), width)
	}
	y = r.DrawEquilibriumBar(inner, y, snap.Equilibrium, threshold, width)
	y += 6

	y = r.DrawSectionHeader(inner, y, "Abilities")
	cooldowns := sim.Cooldowns()
	for i, info := range sim.Abilities() {
		label := abilityLabel(info, cooldowns[i])
		if gui.Button(rl.Rectangle{X: float32(inner), Y: float32(y), Width: float32(width), Height: buttonHeight}, label) {
			out = append(out, game.Control{Kind: game.ControlInvoke, Command: game.Command{Key: int(info.Key)}})
		}
		y += buttonHeight + 4
	}
	slow, buff := sim.Effects()
	y = r.DrawLabelValue(inner, y, "Slow", effectLabel(slow, snap.Elapsed))
	y = r.DrawLabelValue(inner, y, "Buff", effectLabel(buff, snap.Elapsed))
	y += 6

	half := (width - 4) / 2
	pauseLabel := "Pause"
	if snap.Paused {
		pauseLabel = "Resume"
	}
	if gui.Button(rl.Rectangle{X: float32(inner), Y: float32(y), Width: float32(half), Height: buttonHeight}, pauseLabel) {
		out = append(out, game.Control{Kind: game.ControlPause})
	}
	if gui.Button(rl.Rectangle{X: float32(inner + half + 4), Y: float32(y), Width: float32(half), Height: buttonHeight}, "Restart") {
		out = append(out, game.Control{Kind: game.ControlRestart})
	}
	y += buttonHeight + 4
	if gui.Button(rl.Rectangle{X: float32(inner), Y: float32(y), Width: float32(width), Height: buttonHeight}, "Switch to "+snap.Mode.Other().String()) {
		out = append(out, game.Control{Kind: game.ControlToggleMode})
	}
	y += buttonHeight + 10

	y = r.DrawSectionHeader(inner, y, "Events")
	h.drawLog(inner, y, sim.EventLog().Events())

	rl.DrawText("1-5 ability at cursor | Space pause | R restart | Tab mode", inner, screenH-20, 10, rl.Gray)
	return out
}

func (h *HUD) drawLog(x, y int32, events []telemetry.Event) {
	t := h.renderer.Theme
	start := max(0, len(events)-logLines)
	for i := len(events) - 1; i >= start; i-- {
		e := events[i]
		rl.DrawText(fmt.Sprintf("%6.1f %s", e.At, e.Message), x, y, t.FontSize-1, t.ValueColor)
		y += t.LineHeight - 2
	}
}

// DrawSummary draws the end-of-run overlay centered in the arena area.
func (h *HUD) DrawSummary(cx, cy int32, sum *game.Summary) {
	r := h.renderer
	t := r.Theme
	const w, hgt = 340, 190
	x, y := cx-w/2, cy-hgt/2
	r.DrawPanel(x, y, w, hgt)

	y = r.DrawSectionHeader(x+t.Padding, y+t.Padding, "Run over: "+sum.Mode.String())
	score := fmt.Sprintf("%.1fs", sum.Score)
	if sum.NewBest {
		score += "  NEW BEST"
	}
	y = r.DrawLabelValue(x+t.Padding, y, "Score", score)
	y = r.DrawLabelValue(x+t.Padding, y, "Best", fmt.Sprintf("%.1fs", sum.Best))
	y = r.DrawLabelValue(x+t.Padding, y, "Interventions", fmt.Sprintf("%d", sum.Interventions))
	y = r.DrawLabelValue(x+t.Padding, y, "Combos", fmt.Sprintf("%d", sum.Combos))
	achievements := "none"
	if len(sum.Achievements) > 0 {
		achievements = strings.Join(sum.Achievements, ", ")
	}
	y = r.DrawLabelValue(x+t.Padding, y, "Achievements", achievements)
	rl.DrawText("R restart | Tab switch mode", x+t.Padding, y+10, t.FontSize, rl.Gray)
}

func abilityLabel(info systems.AbilityInfo, remaining float64) string {
	if remaining > 0 {
		return fmt.Sprintf("%d %s (%.1fs)", info.Key, info.Name, remaining)
	}
	return fmt.Sprintf("%d %s", info.Key, info.Name)
}

func effectLabel(e systems.Effect, now float64) string {
	if !e.Active {
		return "-"
	}
	return fmt.Sprintf("%s x%.2f %.0fs", e.Target.DisplayName(), e.Factor, max(0, e.ExpiresAt-now))
}
