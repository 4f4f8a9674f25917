package keys

import (
	"sync"

	"shardring/ring"
)

// recentWindow bounds how many migrations Stats reports.
const recentWindow = 10

// Migration records one administrative key move.
type Migration struct {
	Key  string
	From string
	To   string
}

// MigrationStats summarizes administrative migration activity.
type MigrationStats struct {
	TotalMigrations  int
	RecentMigrations []Migration
}

// Manager wraps a ring with an explicit key -> node assignment map and a
// migration log. MigrateKeys overrides hash placement (for example to drain
// a node before decommissioning it); the override holds until the next
// Rebalance, which may move the keys back depending on topology at that
// time.
type Manager struct {
	mu          sync.Mutex
	ring        *ring.Ring
	assignments map[string]string
	migrations  int
	recent      []Migration
}

// NewManager creates a manager on top of r.
func NewManager(r *ring.Ring) *Manager {
	return &Manager{
		ring:        r,
		assignments: make(map[string]string),
	}
}

// AddKey places key via the ring and mirrors the assignment. Returns
// ("", false) on an empty ring.
func (m *Manager) AddKey(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owner, ok := m.ring.AddKey(key)
	if !ok {
		return "", false
	}
	m.assignments[key] = owner
	return owner, true
}

// RemoveKey stops tracking key. Returns false when the key is unknown.
func (m *Manager) RemoveKey(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ring.RemoveKey(key) {
		return false
	}
	delete(m.assignments, key)
	return true
}

// Assignment returns the tracked owner of key.
func (m *Manager) Assignment(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owner, ok := m.assignments[key]
	return owner, ok
}

// MigrateKeys moves every key currently on fromNode to toNode regardless of
// where the ring would place them, logging one migration per key. Ring
// topology is untouched. Returns false when either node is unknown.
func (m *Manager) MigrateKeys(fromNode, toNode string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ring.HasNode(fromNode) || !m.ring.HasNode(toNode) {
		return 0, false
	}
	if fromNode == toNode {
		return 0, true
	}

	moved := 0
	for _, key := range m.ring.KeysOf(fromNode) {
		if !m.ring.ReassignKey(key, toNode) {
			continue
		}
		m.assignments[key] = toNode
		m.record(Migration{Key: key, From: fromNode, To: toNode})
		moved++
	}
	return moved, true
}

// Rebalance restores ring-derived placement and refreshes the local
// assignment map. Returns the number of keys that moved.
func (m *Manager) Rebalance() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	moved := m.ring.Rebalance()
	m.assignments = m.ring.Assignments()
	return moved
}

// Stats returns the migration totals and the most recent migrations, newest
// last, bounded to the last ten.
func (m *Manager) Stats() MigrationStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MigrationStats{
		TotalMigrations:  m.migrations,
		RecentMigrations: append([]Migration(nil), m.recent...),
	}
}

func (m *Manager) record(mig Migration) {
	m.migrations++
	m.recent = append(m.recent, mig)
	if len(m.recent) > recentWindow {
		m.recent = m.recent[len(m.recent)-recentWindow:]
	}
}
