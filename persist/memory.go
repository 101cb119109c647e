package persist

import "sync"

// Memory is an in-process Store and RunLog.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
	runs   []RunRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) RecordRun(r RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

// Runs returns up to limit runs, newest first. limit <= 0 returns all.
func (m *Memory) Runs(limit int) ([]RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]RunRecord, 0, n)
	for i := len(m.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}
