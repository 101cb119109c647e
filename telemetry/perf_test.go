package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseContacts)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseResolve)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgStep <= 0 {
		t.Error("expected positive average step duration")
	}
	for _, phase := range []string{PhaseContacts, PhaseResolve} {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("expected %s phase to be tracked", phase)
		}
	}
	if stats.MinStep > stats.AvgStep || stats.AvgStep > stats.MaxStep {
		t.Errorf("min/avg/max out of order: %v %v %v", stats.MinStep, stats.AvgStep, stats.MaxStep)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseBehavior)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgStep <= 0 {
		t.Error("expected positive average step duration after window filled")
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 3; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(time.Millisecond)
		pc.StartPhase("slow")
		time.Sleep(8 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if fast, slow := stats.PhasePct["fast"], stats.PhasePct["slow"]; slow <= fast {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slow, fast)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgStep != 0 {
		t.Error("expected zero avg step duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70] with 16ms frames, got %v", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgStep:  250 * time.Microsecond,
		PhasePct: map[string]float64{PhaseResolve: 40, PhaseContacts: 25},
	}
	row := s.ToCSV(12.5)
	if row.WindowEnd != 12.5 || row.AvgStepUS != 250 {
		t.Errorf("row = %+v", row)
	}
	if row.ResolvePct != 40 || row.ContactsPct != 25 || row.BehaviorPct != 0 {
		t.Errorf("phase columns = %+v", row)
	}
}
