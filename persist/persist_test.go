package persist

import (
	"path/filepath"
	"testing"
)

func openStores(t *testing.T) map[string]interface {
	Store
	RunLog
} {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "state", "equilibrium.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]interface {
		Store
		RunLog
	}{
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func TestGetSet(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(KeySeed); err != nil || ok {
				t.Fatalf("Get on empty store = ok %v err %v", ok, err)
			}
			if err := s.Set(KeySeed, "abc123"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(KeySeed, "def456"); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			v, ok, err := s.Get(KeySeed)
			if err != nil || !ok || v != "def456" {
				t.Errorf("Get = %q, %v, %v; want def456", v, ok, err)
			}
		})
	}
}

func TestUpdateBest(t *testing.T) {
	tests := []struct {
		name         string
		higherBetter bool
		scores       []float64
		wantBest     []float64
		wantImproved []bool
	}{
		{
			name:         "balance keeps the longest run",
			higherBetter: true,
			scores:       []float64{40, 30, 55},
			wantBest:     []float64{40, 40, 55},
			wantImproved: []bool{true, false, true},
		},
		{
			name:         "domination keeps the fastest run",
			higherBetter: false,
			scores:       []float64{90, 120, 60},
			wantBest:     []float64{90, 90, 60},
			wantImproved: []bool{true, false, true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewMemory()
			for i, score := range tc.scores {
				best, improved, err := UpdateBest(s, "mode", score, tc.higherBetter)
				if err != nil {
					t.Fatalf("UpdateBest: %v", err)
				}
				if best != tc.wantBest[i] || improved != tc.wantImproved[i] {
					t.Errorf("score %v: best=%v improved=%v, want %v %v", score, best, improved, tc.wantBest[i], tc.wantImproved[i])
				}
			}
		})
	}
}

func TestBestScoreIgnoresNonPositive(t *testing.T) {
	s := NewMemory()
	s.Set(BestKey("domination"), "0")
	if _, ok, _ := BestScore(s, "domination"); ok {
		t.Error("zero best reported as present")
	}
	best, improved, _ := UpdateBest(s, "domination", 300, false)
	if !improved || best != 300 {
		t.Errorf("UpdateBest over zero = %v %v, want 300 true", best, improved)
	}
}

func TestRunLog(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			runs := []RunRecord{
				{Mode: "balance", Seed: "a", Score: 10, Best: 10, NewBest: true, Achievements: []string{"merciful"}},
				{Mode: "domination", Seed: "b", Score: 80, Best: 80, Achievements: []string{}},
				{Mode: "balance", Seed: "c", Score: 5, Best: 10, Achievements: []string{"minimalist", "merciful"}},
			}
			for _, r := range runs {
				if err := s.RecordRun(r); err != nil {
					t.Fatalf("RecordRun: %v", err)
				}
			}
			got, err := s.Runs(2)
			if err != nil {
				t.Fatalf("Runs: %v", err)
			}
			if len(got) != 2 || got[0].Seed != "c" || got[1].Seed != "b" {
				t.Fatalf("Runs(2) = %+v, want c then b", got)
			}
			if len(got[0].Achievements) != 2 || got[0].Achievements[0] != "minimalist" {
				t.Errorf("achievements = %v", got[0].Achievements)
			}
			all, _ := s.Runs(0)
			if len(all) != 3 || !all[2].NewBest {
				t.Errorf("Runs(0) = %+v", all)
			}
		})
	}
}
