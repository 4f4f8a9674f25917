package keys

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shardring/ring"
)

func newTestRing(t *testing.T, nodeIDs ...string) *ring.Ring {
	t.Helper()
	r := ring.New()
	for _, id := range nodeIDs {
		added, err := r.AddNode(id, 1)
		require.NoError(t, err)
		require.True(t, added)
	}
	return r
}

func TestManager_AddRemoveKey(t *testing.T) {
	r := newTestRing(t, "s1", "s2")
	m := NewManager(r)

	owner, ok := m.AddKey("k1")
	require.True(t, ok)

	derived, found := r.GetNode("k1")
	require.True(t, found)
	assert.Equal(t, derived, owner)

	tracked, ok := m.Assignment("k1")
	require.True(t, ok)
	assert.Equal(t, owner, tracked)

	assert.True(t, m.RemoveKey("k1"))
	assert.False(t, m.RemoveKey("k1"))
	_, ok = m.Assignment("k1")
	assert.False(t, ok)
}

func TestManager_AddKey_EmptyRing(t *testing.T) {
	m := NewManager(ring.New())

	owner, ok := m.AddKey("k1")
	assert.False(t, ok)
	assert.Empty(t, owner)
	_, tracked := m.Assignment("k1")
	assert.False(t, tracked)
}

func TestManager_MigrateKeys_DrainsNode(t *testing.T) {
	r := newTestRing(t, "s1", "s2", "s3")
	m := NewManager(r)

	for i := 0; i < 100; i++ {
		_, ok := m.AddKey(fmt.Sprintf("key-%d", i))
		require.True(t, ok)
	}
	drained := r.KeysOf("s1")
	require.NotEmpty(t, drained, "s1 owns no keys; distribution is broken")
	totalBefore := r.Stats().TotalKeys

	moved, ok := m.MigrateKeys("s1", "s2")
	require.True(t, ok)
	assert.Equal(t, len(drained), moved)

	assert.Empty(t, r.KeysOf("s1"), "drained node must own no keys")
	for _, key := range drained {
		owner, tracked := m.Assignment(key)
		require.True(t, tracked)
		assert.Equal(t, "s2", owner)
	}

	// Migration moves keys between nodes; it never loses any.
	assert.Equal(t, totalBefore, r.Stats().TotalKeys)

	stats := m.Stats()
	assert.Equal(t, moved, stats.TotalMigrations)
	assert.LessOrEqual(t, len(stats.RecentMigrations), 10)
}

func TestManager_MigrateKeys_UnknownNode(t *testing.T) {
	r := newTestRing(t, "s1", "s2")
	m := NewManager(r)
	m.AddKey("k1")

	moved, ok := m.MigrateKeys("ghost", "s2")
	assert.False(t, ok)
	assert.Zero(t, moved)

	moved, ok = m.MigrateKeys("s1", "ghost")
	assert.False(t, ok)
	assert.Zero(t, moved)
}

func TestManager_MigrateKeys_SameNode(t *testing.T) {
	r := newTestRing(t, "s1", "s2")
	m := NewManager(r)
	m.AddKey("k1")

	moved, ok := m.MigrateKeys("s1", "s1")
	assert.True(t, ok)
	assert.Zero(t, moved)
	assert.Zero(t, m.Stats().TotalMigrations)
}

func TestManager_Rebalance_RestoresRingPlacement(t *testing.T) {
	r := newTestRing(t, "s1", "s2", "s3")
	m := NewManager(r)

	for i := 0; i < 200; i++ {
		_, ok := m.AddKey(fmt.Sprintf("key-%d", i))
		require.True(t, ok)
	}
	migrated, ok := m.MigrateKeys("s1", "s3")
	require.True(t, ok)
	require.Positive(t, migrated)

	// The override diverges tracked placement from hash placement until the
	// rebalance reconciles them.
	moved := m.Rebalance()
	assert.Equal(t, migrated, moved)

	for key, owner := range r.Assignments() {
		derived, found := r.GetNode(key)
		require.True(t, found)
		assert.Equal(t, derived, owner, "key %s", key)

		tracked, ok := m.Assignment(key)
		require.True(t, ok)
		assert.Equal(t, owner, tracked, "manager out of sync for key %s", key)
	}
}

func TestManager_Stats_RecentWindowBounded(t *testing.T) {
	r := newTestRing(t, "s1", "s2")
	m := NewManager(r)

	total := 0
	for i := 0; i < 60; i++ {
		key := fmt.Sprintf("key-%d", i)
		owner, ok := m.AddKey(key)
		require.True(t, ok)
		if owner == "s1" {
			moved, ok := m.MigrateKeys("s1", "s2")
			require.True(t, ok)
			total += moved
		}
	}
	require.Greater(t, total, 10, "need more than ten migrations to exercise the window")

	stats := m.Stats()
	assert.Equal(t, total, stats.TotalMigrations)
	assert.Len(t, stats.RecentMigrations, 10)
	// Newest entries are kept.
	for _, mig := range stats.RecentMigrations {
		assert.Equal(t, "s1", mig.From)
		assert.Equal(t, "s2", mig.To)
	}
}
