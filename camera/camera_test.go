package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNewFitsArena(t *testing.T) {
	tests := []struct {
		name                 string
		vw, vh, ww, wh, zoom float32
	}{
		{"same size", 1280, 720, 1280, 720, 1},
		{"half size window", 640, 360, 1280, 720, 0.5},
		{"tall window letterboxes", 1280, 1280, 1280, 720, 1},
		{"wide window pillarboxes", 2000, 720, 1280, 720, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cam := New(tc.vw, tc.vh, tc.ww, tc.wh)
			if !near(cam.Zoom, tc.zoom) || cam.Zoom != cam.MinZoom {
				t.Errorf("zoom = %v (min %v), want %v", cam.Zoom, cam.MinZoom, tc.zoom)
			}
			if cam.X != tc.ww/2 || cam.Y != tc.wh/2 {
				t.Errorf("center = (%v, %v)", cam.X, cam.Y)
			}
		})
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 1280, 720)

	sx, sy := cam.WorldToScreen(640, 360)
	if !near(sx, 640) || !near(sy, 360) {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 1280, 720)
	cam.SetZoom(2)
	cam.Pan(100, -50)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestLetterboxClickOutsideWorld(t *testing.T) {
	cam := New(1280, 1280, 1280, 720)

	wx, wy := cam.ScreenToWorld(640, 10)
	if cam.InWorld(wx, wy) {
		t.Errorf("letterbox point (%v, %v) reported inside the arena", wx, wy)
	}
	wx, wy = cam.ScreenToWorld(640, 640)
	if !cam.InWorld(wx, wy) || !near(wx, 640) || !near(wy, 360) {
		t.Errorf("center maps to (%v, %v)", wx, wy)
	}
}

func TestPanClampsToArena(t *testing.T) {
	cam := New(1280, 720, 1280, 720)

	cam.Pan(500, 500)
	if cam.X != 640 || cam.Y != 360 {
		t.Errorf("pan at fit zoom moved camera to (%v, %v)", cam.X, cam.Y)
	}

	cam.SetZoom(2)
	cam.Pan(-10000, 10000)
	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	if !near(minX, 0) || !near(maxY, 720) || maxX > 1280 || minY < 0 {
		t.Errorf("visible bounds (%v,%v)-(%v,%v) left the arena", minX, minY, maxX, maxY)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 1280, 720)

	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
	cam.SetZoom(0.01)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}
	cam.ZoomBy(2)
	if !near(cam.Zoom, 2*cam.MinZoom) {
		t.Errorf("ZoomBy(2) = %v", cam.Zoom)
	}
}

func TestResizeKeepsFit(t *testing.T) {
	cam := New(1280, 720, 1280, 720)
	cam.Resize(640, 360)
	if !near(cam.Zoom, 0.5) || cam.Zoom != cam.MinZoom {
		t.Errorf("zoom after resize = %v", cam.Zoom)
	}
	if !near(cam.Scale(10), 5) {
		t.Errorf("Scale(10) = %v", cam.Scale(10))
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 1280, 720)
	cam.SetZoom(2)

	if !cam.IsVisible(640, 360, 5) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(10, 10, 5) {
		t.Error("corner should be culled at 2x zoom")
	}
}
