package cache

import (
	"context"
	"testing"
	"time"

	"scanteate/pkg/session"
	"scanteate/pkg/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, userID int64) *session.Record {
	return &session.Record{
		Session:   session.Session{ID: id, UserID: userID, ExpiresAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		Principal: session.Principal{ID: userID, Role: user.RoleUser},
	}
}

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, session.ErrCacheMiss)

	full := record("a", 1)
	full.User = &user.User{ID: 1}
	require.NoError(t, m.Set(ctx, full, time.Minute))

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Session.ID)
	assert.Nil(t, got.User, "only the short shape is cached")

	got.Session.ExpiresAt = time.Time{}
	again, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, again.Session.ExpiresAt.IsZero(), "callers get a copy")

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "a")
	assert.ErrorIs(t, err, session.ErrCacheMiss, "entry expired")

	require.NoError(t, m.Set(ctx, record("b", 1), 0))
	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, session.ErrCacheMiss, "non-positive ttl is not stored")

	stats := m.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(3), stats.Misses)
	assert.Equal(t, 0, stats.Size)
}

func TestMemory_DeleteUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, record("a1", 1), time.Minute))
	require.NoError(t, m.Set(ctx, record("a2", 1), time.Minute))
	require.NoError(t, m.Set(ctx, record("b1", 2), time.Minute))

	require.NoError(t, m.DeleteUser(ctx, 1))

	_, err := m.Get(ctx, "a1")
	assert.ErrorIs(t, err, session.ErrCacheMiss)
	_, err = m.Get(ctx, "a2")
	assert.ErrorIs(t, err, session.ErrCacheMiss)
	_, err = m.Get(ctx, "b1")
	assert.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "b1"))
	require.NoError(t, m.Delete(ctx, "b1"))
	assert.Equal(t, 0, m.Stats().Size)
	assert.Equal(t, int64(3), m.Stats().Deletes)
}

func TestMemory_EvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)

	require.NoError(t, m.Set(ctx, record("short", 1), time.Second))
	require.NoError(t, m.Set(ctx, record("long", 1), time.Hour))
	require.NoError(t, m.Set(ctx, record("new", 2), time.Hour))

	_, err := m.Get(ctx, "short")
	assert.ErrorIs(t, err, session.ErrCacheMiss)
	_, err = m.Get(ctx, "long")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "new")
	assert.NoError(t, err)

	assert.Equal(t, int64(1), m.Stats().Evictions)
	assert.Equal(t, 2, m.Stats().Size)
}
