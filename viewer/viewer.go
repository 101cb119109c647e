// Package viewer is an optional raylib window over a game.Runner: agents
// drawn as discs, a raygui side panel, and keyboard and mouse controls.
package viewer

import (
	"context"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/equilibrium/camera"
	"github.com/pthm-cable/equilibrium/components"
	"github.com/pthm-cable/equilibrium/game"
)

// Options configures the window.
type Options struct {
	Title     string
	TargetFPS int32
	MaxTicks  int // close after N steps, 0 = unlimited
}

// Viewer owns the window and drives the runner once per frame.
type Viewer struct {
	runner   *game.Runner
	opts     Options
	renderer *Renderer
	hud      *HUD
	camera   *camera.Camera

	screenW, screenH float32
	agents           []game.AgentView
}

// New creates a viewer. Call Run to open the window.
func New(r *game.Runner, opts Options) *Viewer {
	if opts.Title == "" {
		opts.Title = "Equilibrium"
	}
	if opts.TargetFPS <= 0 {
		opts.TargetFPS = 60
	}
	renderer := NewRenderer()
	return &Viewer{
		runner:   r,
		opts:     opts,
		renderer: renderer,
		hud:      NewHUD(renderer),
	}
}

// Run opens the window and loops until it is closed or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	world := v.runner.Sim().Context().Config.World
	v.screenW = float32(world.Width) + panelWidth
	v.screenH = float32(world.Height)

	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(v.screenW), int32(v.screenH), v.opts.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(v.opts.TargetFPS)

	v.camera = camera.New(v.screenW-panelWidth, v.screenH, float32(world.Width), float32(world.Height))

	for !rl.WindowShouldClose() {
		if ctx.Err() != nil {
			return nil
		}
		v.handleInput()
		v.runner.Update()
		v.draw()

		if v.opts.MaxTicks > 0 && v.runner.Ticks() >= v.opts.MaxTicks {
			break
		}
	}
	return nil
}

func (v *Viewer) handleInput() {
	v.handleResize()

	for key := int32(rl.KeyOne); key <= rl.KeyFive; key++ {
		if rl.IsKeyPressed(key) {
			v.apply(game.Control{
				Kind:    game.ControlInvoke,
				Command: game.Command{Key: int(key-rl.KeyOne) + 1, Point: v.cursorPoint()},
			})
		}
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		v.apply(game.Control{Kind: game.ControlPause})
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.apply(game.Control{Kind: game.ControlRestart, Regenerate: rl.IsKeyDown(rl.KeyLeftShift)})
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.apply(game.Control{Kind: game.ControlToggleMode})
	}
	if rl.IsKeyPressed(rl.KeyComma) {
		v.apply(game.Control{Kind: game.ControlTimeScale, Scale: v.runner.Sim().TimeScale() / 2})
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		v.apply(game.Control{Kind: game.ControlTimeScale, Scale: v.runner.Sim().TimeScale() * 2})
	}

	v.handleCameraInput()
}

func (v *Viewer) apply(c game.Control) {
	_ = v.runner.Apply(c) // rejections are logged by the runner
}

// cursorPoint returns the world point under the mouse, or nil when the
// cursor is outside the arena.
func (v *Viewer) cursorPoint() *components.Position {
	m := rl.GetMousePosition()
	if m.X >= v.screenW-panelWidth {
		return nil
	}
	wx, wy := v.camera.ScreenToWorld(m.X, m.Y)
	if !v.camera.InWorld(wx, wy) {
		return nil
	}
	return &components.Position{X: float64(wx), Y: float64(wy)}
}

func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenW && h == v.screenH {
		return
	}
	v.screenW, v.screenH = w, h
	v.camera.Resize(max(1, w-panelWidth), h)
}

func (v *Viewer) handleCameraInput() {
	panSpeed := float32(8.0) / v.camera.Zoom
	if rl.IsKeyDown(rl.KeyRight) {
		v.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.camera.Pan(0, -panSpeed)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.camera.Reset()
	}
}

func (v *Viewer) draw() {
	sim := v.runner.Sim()
	cfg := sim.Context().Config
	t := v.renderer.Theme

	rl.BeginDrawing()
	defer rl.EndDrawing()
	rl.ClearBackground(t.Background)

	x0, y0 := v.camera.WorldToScreen(0, 0)
	x1, y1 := v.camera.WorldToScreen(float32(cfg.World.Width), float32(cfg.World.Height))
	arena := rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	rl.DrawRectangleRec(arena, t.ArenaBg)
	rl.DrawRectangleLinesEx(arena, 1, t.ArenaBorder)

	radius := float32(cfg.Agent.Radius)
	v.agents = sim.Agents(v.agents[:0])
	for _, a := range v.agents {
		wx, wy := float32(a.Position.X), float32(a.Position.Y)
		if !v.camera.IsVisible(wx, wy, radius) {
			continue
		}
		sx, sy := v.camera.WorldToScreen(wx, wy)
		r := v.camera.Scale(radius)
		if a.Fragment {
			r *= 0.6
		}
		c := FactionColor(a.Faction)
		alpha := a.Alpha
		if a.Fading {
			alpha *= 0.4
		}
		c.A = uint8(255 * max(0, min(1, alpha)))
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, c)
		if a.Shielded {
			rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, r+2, t.Shield)
		}
	}

	if p := v.cursorPoint(); p != nil {
		sx, sy := v.camera.WorldToScreen(float32(p.X), float32(p.Y))
		rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, v.camera.Scale(float32(cfg.Abilities.PurgeRadius)), rl.Fade(rl.White, 0.25))
	}

	arenaW := v.screenW - panelWidth
	for _, c := range v.hud.Draw(int32(arenaW), int32(v.screenH), sim, cfg.Lifecycle.EquilibriumThreshold, rl.GetFPS()) {
		v.apply(c)
	}
	if sum := sim.Summary(); sum != nil {
		v.hud.DrawSummary(int32(arenaW/2), int32(v.screenH/2), sum)
	}
}
