package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/peterkuimelis/frontline/internal/game"
)

func newMatch(id string) *game.MatchState {
	now := time.Now()
	return &game.MatchState{ID: id, Status: game.StatusWaiting, HostID: "alice", CreatedAt: now, LastActive: now}
}

func recv(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return c
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
		return Change{}
	}
}

func TestMemoryCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(zaptest.NewLogger(t))
	m := newMatch("m1")
	require.NoError(t, s.Create(ctx, m))
	assert.ErrorIs(t, s.Create(ctx, newMatch("m1")), ErrExists)

	a, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	b, err := s.Get(ctx, "m1")
	require.NoError(t, err)

	a.LastAction = "first"
	require.NoError(t, s.Write(ctx, a, a.Version))
	assert.Equal(t, int64(2), a.Version)

	b.LastAction = "second"
	assert.ErrorIs(t, s.Write(ctx, b, b.Version), ErrConflict)

	got, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.LastAction)

	assert.ErrorIs(t, s.Write(ctx, newMatch("nope"), 1), ErrNotFound)
}

func TestMemoryTouchKeepsVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(nil)
	require.NoError(t, s.Create(ctx, newMatch("m1")))

	later := time.Now().Add(time.Minute)
	require.NoError(t, s.Touch(ctx, "m1", later, later.Add(time.Hour)))

	got, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.True(t, got.LastActive.Equal(later))

	// A game write does not clobber the heartbeat.
	stale := got.Clone()
	stale.LastActive = time.Time{}
	require.NoError(t, s.Write(ctx, stale, 1))
	got, err = s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, got.LastActive.Equal(later))
}

func TestMemoryWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewMemory(nil)
	require.NoError(t, s.Create(ctx, newMatch("m1")))

	ch, err := s.Watch(ctx, "m1")
	require.NoError(t, err)
	first := recv(t, ch)
	require.NotNil(t, first.State)
	assert.Equal(t, int64(1), first.State.Version)

	next := first.State.Clone()
	next.LastAction = "moved"
	require.NoError(t, s.Write(ctx, next, 1))
	c := recv(t, ch)
	assert.Equal(t, "moved", c.State.LastAction)
	assert.Equal(t, int64(2), c.State.Version)

	require.NoError(t, s.Delete(ctx, "m1"))
	assert.True(t, recv(t, ch).Deleted)

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 10*time.Millisecond)

	_, err = s.Watch(context.Background(), "m1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListAndReap(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(nil)
	now := time.Now()

	fresh := newMatch("fresh")
	stale := newMatch("stale")
	stale.LastActive = now.Add(-time.Minute)
	active := newMatch("active")
	active.Status = game.StatusActive
	for _, m := range []*game.MatchState{fresh, stale, active} {
		require.NoError(t, s.Create(ctx, m))
	}

	waiting, err := s.List(ctx, Filter{Status: game.StatusWaiting, ActiveSince: now.Add(-30 * time.Second)})
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, "fresh", waiting[0].ID)

	require.NoError(t, s.Touch(ctx, "stale", stale.LastActive, now.Add(-time.Second)))
	n, err := s.ReapExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = s.Get(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)
}
