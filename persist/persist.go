// Package persist is the storage port for the few scalars that outlive a
// run: the active seed, best scores per mode, and the run history.
package persist

import (
	"fmt"
	"strconv"
	"time"
)

// Keys used by the simulation.
const (
	KeySeed       = "seed"
	bestKeyPrefix = "best."
)

// Store reads and writes string values by key.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// RunRecord is one finished run.
type RunRecord struct {
	Mode         string    `json:"mode"`
	Seed         string    `json:"seed"`
	Score        float64   `json:"score"`
	Best         float64   `json:"best"`
	NewBest      bool      `json:"new_best"`
	Achievements []string  `json:"achievements"`
	EndedAt      time.Time `json:"ended_at"`
}

// RunLog appends and lists finished runs.
type RunLog interface {
	RecordRun(r RunRecord) error
	Runs(limit int) ([]RunRecord, error)
}

// BestKey returns the key holding the best score of mode.
func BestKey(mode string) string {
	return bestKeyPrefix + mode
}

// BestScore returns the stored best score of mode. A missing, unparsable or
// non-positive value means no best yet.
func BestScore(s Store, mode string) (float64, bool, error) {
	raw, ok, err := s.Get(BestKey(mode))
	if err != nil || !ok {
		return 0, false, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, false, nil
	}
	return v, true, nil
}

// UpdateBest stores score as the best of mode when it improves on the
// previous one. higherBetter selects the comparison. It returns the best
// score after the update and whether score set a new record.
func UpdateBest(s Store, mode string, score float64, higherBetter bool) (float64, bool, error) {
	prev, ok, err := BestScore(s, mode)
	if err != nil {
		return score, false, fmt.Errorf("read best score: %w", err)
	}
	improved := !ok || (higherBetter && score > prev) || (!higherBetter && score < prev)
	if !improved {
		return prev, false, nil
	}
	if err := s.Set(BestKey(mode), strconv.FormatFloat(score, 'f', -1, 64)); err != nil {
		return score, true, fmt.Errorf("write best score: %w", err)
	}
	return score, true, nil
}
