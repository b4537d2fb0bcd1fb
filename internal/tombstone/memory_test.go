package tombstone

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AddAndLookup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	assert.False(t, s.IsTombstoned("g1", "a1"))

	require.NoError(t, s.Add(ctx, "g1", "a1"))
	assert.True(t, s.IsTombstoned("g1", "a1"))

	// идемпотентность
	require.NoError(t, s.Add(ctx, "g1", "a1"))
	assert.True(t, s.IsTombstoned("g1", "a1"))

	// другой scope не затронут
	assert.False(t, s.IsTombstoned("g2", "a1"))
}

func TestMemoryStore_Remove(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "g1", "a1"))
	require.NoError(t, s.Remove(ctx, "g1", "a1"))
	assert.False(t, s.IsTombstoned("g1", "a1"))

	// removing a missing pair is a no-op
	require.NoError(t, s.Remove(ctx, "g1", "zz"))
}

func TestMemoryStore_LoadAll(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "g1", "a1"))
	require.NoError(t, s.Add(ctx, "g1", "a2"))
	require.NoError(t, s.Add(ctx, "g2", "b1"))

	got, err := s.LoadAll(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"a1": {}, "a2": {}}, got)
}
