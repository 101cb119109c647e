package game

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pthm-cable/equilibrium/faction"
	"github.com/pthm-cable/equilibrium/telemetry"
)

// Publisher receives runner output for presentation layers. Calls happen on
// the runner goroutine.
type Publisher interface {
	PublishSnapshot(Snapshot)
	PublishEvents([]telemetry.Event)
	PublishSummary(Summary)
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Mode           Mode
	LogStats       bool    // log window stats and bookmarks via slog
	StatsWindow    float64 // seconds, 0 uses config
	OutputDir      string  // CSV, config and journal output, empty disables
	StepsPerUpdate int
	Script         []ScheduledCommand // replayed at the start of every run
	AutoRestart    bool               // start a fresh-seed run when one ends
	MaxRuns        int                // stop after N ended runs, 0 = unlimited
	Publisher      Publisher
}

// Runner drives a Session at the fixed step, feeding telemetry and a
// publisher. It is the headless loop and the viewer's driver.
type Runner struct {
	session *Session
	opts    RunnerOptions
	dt      float64

	collector *telemetry.Collector
	bookmarks *telemetry.BookmarkDetector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	journal   *telemetry.EventJournal

	controls chan Control
	script   []ScheduledCommand
	ticks    int
	runs     int
	last     TickResult
}

// NewRunner starts the first run and opens the outputs.
func NewRunner(ctx *Context, opts RunnerOptions) (*Runner, error) {
	cfg := ctx.Config
	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	window := cfg.Telemetry.StatsWindow
	if opts.StatsWindow > 0 {
		window = opts.StatsWindow
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, err
	}
	journal, err := telemetry.OpenEventJournal(opts.OutputDir)
	if err != nil {
		output.Close()
		return nil, err
	}

	r := &Runner{
		session:   NewSession(ctx, opts.Mode),
		opts:      opts,
		dt:        cfg.Physics.DT,
		collector: telemetry.NewCollector(window),
		bookmarks: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Lifecycle.EquilibriumThreshold),
		perf:      telemetry.NewPerfCollector(int(window / cfg.Physics.DT)),
		output:    output,
		journal:   journal,
		controls:  make(chan Control, 64),
		script:    opts.Script,
	}
	r.session.SetProfiler(r.perf)
	r.logStart()
	return r, nil
}

// Controls returns the channel other goroutines send requests on. Requests
// are applied at the start of the next Update.
func (r *Runner) Controls() chan<- Control {
	return r.controls
}

// SetPublisher replaces the publisher. Call it before the first Update.
func (r *Runner) SetPublisher(p Publisher) {
	r.opts.Publisher = p
}

// Session returns the driven session.
func (r *Runner) Session() *Session {
	return r.session
}

// Sim returns the current run.
func (r *Runner) Sim() *Simulation {
	return r.session.Sim()
}

// Ticks returns the number of steps taken across all runs.
func (r *Runner) Ticks() int {
	return r.ticks
}

// Runs returns the number of runs that have ended.
func (r *Runner) Runs() int {
	return r.runs
}

// Last returns the result of the latest step.
func (r *Runner) Last() TickResult {
	return r.last
}

// Apply executes a control on the runner goroutine.
func (r *Runner) Apply(c Control) error {
	prev := r.session.Sim()
	out, err := r.session.Apply(c)
	if err != nil {
		slog.Warn("control rejected", "kind", string(c.Kind), "error", err)
		return err
	}
	if out != nil {
		r.recordOutcome(*out)
	}
	if r.session.Sim() != prev {
		r.resetRun()
	}
	r.flushEvents(r.session.Sim().drain())
	return nil
}

// Update applies pending controls and advances StepsPerUpdate steps.
func (r *Runner) Update() {
	for drained := false; !drained; {
		select {
		case c := <-r.controls:
			_ = r.Apply(c)
		default:
			drained = true
		}
	}

	for i := 0; i < r.opts.StepsPerUpdate; i++ {
		if !r.step() {
			break
		}
	}
	if r.opts.Publisher != nil {
		r.opts.Publisher.PublishSnapshot(r.last.Snapshot)
	}
}

// Done reports whether the runner has nothing left to do.
func (r *Runner) Done() bool {
	if r.opts.MaxRuns > 0 && r.runs >= r.opts.MaxRuns {
		return true
	}
	return r.Sim().Ended() && !r.opts.AutoRestart
}

// Run loops Update until ctx is cancelled, maxTicks steps have run (0 =
// unlimited) or Done.
func (r *Runner) Run(ctx context.Context, maxTicks int) error {
	for {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		r.Update()
		if maxTicks > 0 && r.ticks >= maxTicks {
			slog.Info("max ticks reached", "ticks", r.ticks)
			return nil
		}
		if r.Done() {
			return nil
		}
	}
}

// step runs one fixed step. It returns false when the run did not advance.
func (r *Runner) step() bool {
	sim := r.Sim()
	if sim.Ended() {
		if !r.opts.AutoRestart || r.Done() {
			return false
		}
		if _, err := r.session.Restart(true); err != nil {
			slog.Error("restart failed", "error", err)
			return false
		}
		r.resetRun()
		sim = r.Sim()
	}

	if sim.Paused() {
		// Controls applied while paused still queue events.
		r.last = sim.Step(r.dt)
		r.flushEvents(r.last.Events)
		return false
	}

	r.perf.StartTick()
	r.runScript(sim)
	res := sim.Step(r.dt)
	r.last = res
	r.flushEvents(res.Events)
	if !res.Advanced() {
		r.perf.EndTick()
		return false
	}
	r.ticks++
	r.record(res)
	r.perf.EndTick()

	if res.Summary != nil {
		r.finishRun(*res.Summary)
	}
	return true
}

// runScript fires scheduled commands whose time has come. Commands run
// before the step that crosses their time.
func (r *Runner) runScript(sim *Simulation) {
	for len(r.script) > 0 && r.script[0].At <= sim.Now()+r.dt*sim.TimeScale() {
		sc := r.script[0]
		r.script = r.script[1:]
		out, err := sim.Invoke(sc.Command)
		if err != nil {
			slog.Warn("scripted command rejected", "at", sc.At, "key", sc.Command.Key, "error", err)
			continue
		}
		r.recordOutcome(out)
		if !out.Applied {
			slog.Debug("scripted command not applied", "at", sc.At, "key", sc.Command.Key, "reason", string(out.Reason))
		}
	}
}

func (r *Runner) recordOutcome(out Outcome) {
	if !out.Applied {
		return
	}
	r.collector.RecordIntervention()
	r.collector.RecordPurged(out.Purged)
	if out.Combo != nil {
		r.collector.RecordCombo()
		r.collector.RecordPurged(out.Combo.Purged)
	}
}

func (r *Runner) record(res TickResult) {
	c := r.collector
	rep := res.Report
	r.perf.StartPhase(telemetry.PhaseTelemetry)

	for _, conv := range rep.Contacts.Conversions {
		c.RecordConversion(conv.Winner, conv.Critical)
	}
	for _, f := range faction.All {
		for i := 0; i < rep.Contacts.Bonus[f]; i++ {
			c.RecordConversion(f, false)
		}
	}
	c.RecordDrift(len(rep.Regulation.Drifted))
	c.RecordThinned(rep.Regulation.Thinned.Total())
	c.RecordFragments(rep.Contacts.Fragments.Total())
	c.RecordDuplicates(rep.Contacts.Duplicates.Total())
	c.Sample(res.Snapshot.Equilibrium)

	now := res.Snapshot.Elapsed
	if !c.ShouldFlush(now) && res.Summary == nil {
		return
	}
	stats := c.Flush(now, res.Snapshot.Counts)
	perf := r.perf.Stats()
	if r.opts.LogStats {
		stats.LogStats()
		perf.LogStats()
	}
	if err := r.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := r.output.WritePerf(perf, now); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	for _, bm := range r.bookmarks.Check(stats) {
		if r.opts.LogStats {
			bm.LogBookmark()
		}
		if err := r.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

func (r *Runner) flushEvents(events []telemetry.Event) {
	if len(events) == 0 {
		return
	}
	if err := r.journal.Write(events...); err != nil {
		slog.Error("failed to write events", "error", err)
	}
	if r.opts.Publisher != nil {
		r.opts.Publisher.PublishEvents(events)
	}
}

func (r *Runner) finishRun(sum Summary) {
	r.runs++
	slog.Info("run ended",
		"mode", sum.Mode.String(),
		"seed", sum.Seed,
		"score", sum.Score,
		"best", sum.Best,
		"new_best", sum.NewBest,
		"achievements", sum.Achievements,
		"interventions", sum.Interventions,
		"combos", sum.Combos,
	)
	if err := r.output.WriteRun(sum.RunRecord(time.Now())); err != nil {
		slog.Error("failed to write run", "error", err)
	}
	if r.opts.Publisher != nil {
		r.opts.Publisher.PublishSummary(sum)
	}
}

// resetRun restarts per-run telemetry after the session switched runs.
func (r *Runner) resetRun() {
	r.collector.Reset(0)
	r.bookmarks.Reset()
	r.script = r.opts.Script
	r.last = TickResult{Snapshot: r.Sim().Snapshot()}
	r.logStart()
}

func (r *Runner) logStart() {
	sim := r.Sim()
	slog.Info("run started",
		"mode", sim.Mode().String(),
		"seed", sim.Seed(),
		"population", sim.Snapshot().Total,
	)
}

// Close flushes and closes outputs.
func (r *Runner) Close() error {
	return errors.Join(r.journal.Close(), r.output.Close())
}
