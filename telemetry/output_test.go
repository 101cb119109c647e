package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/persist"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(b)), "\n")
}

func TestOutputManager(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	for i := 1; i <= 2; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEnd: float64(i * 10), Fire: i, Total: i}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkRunaway, At: 20, Faction: "Fire", Description: "Fire holds 70% of the arena"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	run := persist.RunRecord{
		Mode:         "balance",
		Seed:         "abc",
		Score:        42.5,
		Best:         42.5,
		NewBest:      true,
		Achievements: []string{"merciful", "minimalist"},
		EndedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := om.WriteRun(run); err != nil {
		t.Fatalf("WriteRun: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tel := readLines(t, filepath.Join(dir, "telemetry.csv"))
	if len(tel) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header + 2", len(tel))
	}
	if !strings.HasPrefix(tel[0], "window_end,fire,water,earth,total") {
		t.Errorf("telemetry header = %q", tel[0])
	}
	if strings.Contains(tel[0], "window_start") {
		t.Error("window_start should not be exported")
	}

	bm := readLines(t, filepath.Join(dir, "bookmarks.csv"))
	if len(bm) != 2 || bm[0] != "type,at,faction,description" {
		t.Errorf("bookmarks.csv = %q", bm)
	}

	runs := readLines(t, filepath.Join(dir, "runs.csv"))
	if len(runs) != 2 {
		t.Fatalf("runs.csv = %q", runs)
	}
	if runs[1] != "2026-01-02T03:04:05Z,balance,abc,42.5,42.5,true,merciful;minimalist" {
		t.Errorf("run row = %q", runs[1])
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}

func TestNilOutputManager(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteRun(persist.RunRecord{}); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" || om.Close() != nil {
		t.Error("nil manager should be inert")
	}
}
