package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/equilibrium/faction"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNearExtinction    BookmarkType = "near_extinction"
	BookmarkComeback          BookmarkType = "comeback"
	BookmarkRunaway           BookmarkType = "runaway"
	BookmarkStableEquilibrium BookmarkType = "stable_equilibrium"
)

const (
	extinctionShare = 0.05 // share at or below which a faction is endangered
	recoveryShare   = 0.20 // share an endangered faction must regain
	runawayShare    = 0.60
	stableWindows   = 5
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	At          float64      `csv:"at"`
	Faction     string       `csv:"faction"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"at", b.At,
		"faction", b.Faction,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in a run from window stats.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	threshold float64 // equilibrium score counted as balanced

	endangered   [faction.Count]bool
	lows         [faction.Count]int
	runaway      bool
	stableStreak int
}

// NewBookmarkDetector creates a detector with the given history size.
// threshold is the equilibrium score a window must hold throughout to count
// toward a stable streak.
func NewBookmarkDetector(historySize int, threshold float64) *BookmarkDetector {
	if historySize < stableWindows {
		historySize = stableWindows
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
		threshold:   threshold,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if stats.Total > 0 {
		bookmarks = append(bookmarks, bd.checkExtinction(stats)...)
		if b := bd.checkRunaway(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	if b := bd.checkStable(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

// History returns the retained window stats, oldest first.
func (bd *BookmarkDetector) History() []WindowStats {
	if !bd.historyFull {
		return append([]WindowStats(nil), bd.history[:bd.historyIdx]...)
	}
	out := make([]WindowStats, 0, bd.historySize)
	out = append(out, bd.history[bd.historyIdx:]...)
	return append(out, bd.history[:bd.historyIdx]...)
}

// Reset clears history and streaks, for a restarted run.
func (bd *BookmarkDetector) Reset() {
	bd.historyIdx = 0
	bd.historyFull = false
	bd.endangered = [faction.Count]bool{}
	bd.lows = [faction.Count]int{}
	bd.runaway = false
	bd.stableStreak = 0
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func counts(stats WindowStats) faction.Counts {
	return faction.Counts{stats.Fire, stats.Water, stats.Earth}
}

// checkExtinction flags factions falling to a sliver of the population and
// reports a comeback once a flagged faction regains a real share.
func (bd *BookmarkDetector) checkExtinction(stats WindowStats) []Bookmark {
	var out []Bookmark
	c := counts(stats)
	total := float64(stats.Total)
	for _, f := range faction.All {
		share := float64(c[f]) / total
		switch {
		case !bd.endangered[f] && share <= extinctionShare:
			bd.endangered[f] = true
			bd.lows[f] = c[f]
			out = append(out, Bookmark{
				Type:        BookmarkNearExtinction,
				At:          stats.WindowEnd,
				Faction:     f.String(),
				Description: fmt.Sprintf("%s down to %d of %d", f.String(), c[f], stats.Total),
			})
		case bd.endangered[f] && share >= recoveryShare:
			bd.endangered[f] = false
			out = append(out, Bookmark{
				Type:        BookmarkComeback,
				At:          stats.WindowEnd,
				Faction:     f.String(),
				Description: fmt.Sprintf("%s recovered from %d to %d", f.String(), bd.lows[f], c[f]),
			})
		case bd.endangered[f] && c[f] < bd.lows[f]:
			bd.lows[f] = c[f]
		}
	}
	return out
}

// checkRunaway fires when one faction first crosses the runaway share. It
// re-arms once no faction holds that share.
func (bd *BookmarkDetector) checkRunaway(stats WindowStats) *Bookmark {
	c := counts(stats)
	f := c.Strongest()
	share := float64(c[f]) / float64(stats.Total)
	if share < runawayShare {
		bd.runaway = false
		return nil
	}
	if bd.runaway {
		return nil
	}
	bd.runaway = true
	return &Bookmark{
		Type:        BookmarkRunaway,
		At:          stats.WindowEnd,
		Faction:     f.String(),
		Description: fmt.Sprintf("%s holds %.0f%% of the arena", f.String(), share*100),
	}
}

func (bd *BookmarkDetector) checkStable(stats WindowStats) *Bookmark {
	if stats.Total == 0 || stats.EquilibriumMin < bd.threshold {
		bd.stableStreak = 0
		return nil
	}
	bd.stableStreak++
	if bd.stableStreak != stableWindows { // trigger exactly once per streak
		return nil
	}
	span := stats.WindowEnd
	if h := bd.History(); len(h) >= stableWindows-1 {
		span -= h[len(h)-(stableWindows-1)].WindowStart
	}
	return &Bookmark{
		Type:        BookmarkStableEquilibrium,
		At:          stats.WindowEnd,
		Description: fmt.Sprintf("Equilibrium held above %.2f for %.0fs", bd.threshold, span),
	}
}
