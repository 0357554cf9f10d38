package journal

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisJournal(t *testing.T, ttl time.Duration) (*RedisJournal, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisJournal(client, ttl), mr
}

func exerciseJournal(t *testing.T, j Journal) {
	ctx := context.Background()
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	pending, err := j.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, j.Begin(ctx, Entry{ID: "b", Source: "b.md", ParentIDs: []string{"b_p0_1"}, StartedAt: base.Add(time.Second)}))
	require.NoError(t, j.Begin(ctx, Entry{ID: "a", Source: "a.md", ParentIDs: []string{"a_p0_1", "a_p1_2"}, StartedAt: base}))

	pending, err = j.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ID)
	assert.Equal(t, []string{"a_p0_1", "a_p1_2"}, pending[0].ParentIDs)
	assert.True(t, base.Equal(pending[0].StartedAt))
	assert.Equal(t, "b", pending[1].ID)

	require.NoError(t, j.Commit(ctx, "a"))
	require.NoError(t, j.Commit(ctx, "missing"))

	pending, err = j.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b.md", pending[0].Source)
}

func TestRedisJournal(t *testing.T) {
	j, _ := newRedisJournal(t, 0)
	exerciseJournal(t, j)
}

func TestMemoryJournal(t *testing.T) {
	exerciseJournal(t, NewMemoryJournal())
}

func TestRedisJournalExpiry(t *testing.T) {
	j, mr := newRedisJournal(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, j.Begin(ctx, Entry{ID: "x", StartedAt: time.Now()}))

	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"x"))
	mr.FastForward(2 * time.Minute)

	pending, err := j.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRedisJournalCorruptEntry(t *testing.T) {
	j, mr := newRedisJournal(t, 0)
	require.NoError(t, mr.Set(keyPrefix+"bad", "{"))

	_, err := j.Pending(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal journal entry")
}

func TestRedisJournalUnavailable(t *testing.T) {
	j, mr := newRedisJournal(t, 0)
	mr.Close()

	err := j.Begin(context.Background(), Entry{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set journal entry failed")
}
