package rng

import "testing"

func TestSameSeedSameStream(t *testing.T) {
	a := New("abc123")
	b := New("abc123")
	for i := 0; i < 1000; i++ {
		if x, y := a.Uint32(), b.Uint32(); x != y {
			t.Fatalf("draw %d diverged: %d vs %d", i, x, y)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New("abc123")
	b := New("abc124")
	same := 0
	for i := 0; i < 100; i++ {
		if a.Uint32() == b.Uint32() {
			same++
		}
	}
	if same > 2 {
		t.Errorf("streams for different seeds matched %d/100 draws", same)
	}
}

func TestSeedIsTrimmed(t *testing.T) {
	if New("  seed ").Seed() != "seed" {
		t.Error("seed should be trimmed")
	}
	if New(" seed").Uint32() != New("seed").Uint32() {
		t.Error("whitespace should not change the stream")
	}
}

func TestRanges(t *testing.T) {
	s := New("ranges")
	for i := 0; i < 10000; i++ {
		if f := s.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %v", f)
		}
		if v := s.Between(2, 5); v < 2 || v >= 5 {
			t.Fatalf("Between out of range: %v", v)
		}
		if n := s.Intn(7); n < 0 || n >= 7 {
			t.Fatalf("Intn out of range: %v", n)
		}
		if n := s.IntBetween(1, 3); n < 1 || n > 3 {
			t.Fatalf("IntBetween out of range: %v", n)
		}
	}
	if s.Between(3, 3) != 3 {
		t.Error("Between with empty range should return lo")
	}
	if s.Chance(0) {
		t.Error("Chance(0) must be false")
	}
}

func TestNewSeed(t *testing.T) {
	a, b := NewSeed(), NewSeed()
	if len(a) != 12 {
		t.Errorf("len(NewSeed()) = %d, want 12", len(a))
	}
	if a == b {
		t.Error("two generated seeds should differ")
	}
}
