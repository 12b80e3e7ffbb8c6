package tracker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGranter struct {
	granted []uint64
	err     error
}

func (f *fakeGranter) GrantReward(_ context.Context, userID uint64) error {
	f.granted = append(f.granted, userID)
	return f.err
}

func newTestTracker(t *testing.T, capacity int) (*Tracker, *fakeGranter) {
	t.Helper()
	g := &fakeGranter{}
	st := NewStore(filepath.Join(t.TempDir(), "state.json"), zap.NewNop())
	return New(capacity, st, g, zap.NewNop()), g
}

func user(id uint64) User {
	return User{ID: id, Name: fmt.Sprintf("user-%d", id)}
}

func TestAllocateUpToCapacityThenLock(t *testing.T) {
	tr, g := newTestTracker(t, 3)
	ctx := context.Background()

	for i := uint64(1); i <= 3; i++ {
		require.True(t, tr.Allocate(ctx, user(i)))
		st := tr.Status()
		assert.Equal(t, int(i), st.Tracked)
		assert.Equal(t, i == 3, st.Locked, "locked must flip exactly at capacity")
	}

	// over capacity: refused, count stays put
	require.False(t, tr.Allocate(ctx, user(4)))
	st := tr.Status()
	assert.Equal(t, 3, st.Tracked)
	assert.True(t, st.Locked)

	assert.Equal(t, []uint64{1, 2, 3}, g.granted)
}

func TestAllocateIdempotent(t *testing.T) {
	tr, g := newTestTracker(t, 5)
	ctx := context.Background()

	require.True(t, tr.Allocate(ctx, user(7)))
	require.False(t, tr.Allocate(ctx, user(7)))

	assert.Equal(t, 1, tr.Status().Tracked)
	assert.Equal(t, []uint64{7}, g.granted, "reward granted once, not twice")
}

func TestAllocateLocksOnDiscovery(t *testing.T) {
	tr, _ := newTestTracker(t, 2)
	ctx := context.Background()

	tr.Allocate(ctx, user(1))
	tr.Allocate(ctx, user(2))

	// force the inconsistent shape: full roster, flag cleared
	tr.mu.Lock()
	tr.locked = false
	tr.mu.Unlock()

	require.False(t, tr.Allocate(ctx, user(3)))
	assert.True(t, tr.Status().Locked)
}

func TestGrantFailureDoesNotRollBack(t *testing.T) {
	tr, g := newTestTracker(t, 5)
	g.err = errors.New("boom")

	require.True(t, tr.Allocate(context.Background(), user(1)))
	assert.Equal(t, 1, tr.Status().Tracked, "slot stays consumed on grant failure")
}

func TestReleaseFreesSlotWhileOpen(t *testing.T) {
	tr, _ := newTestTracker(t, 5)
	ctx := context.Background()

	tr.Allocate(ctx, user(1))
	tr.Allocate(ctx, user(2))

	require.True(t, tr.Release(1))
	assert.Equal(t, 1, tr.Status().Tracked)
	assert.False(t, tr.Release(1), "second release of the same id is a no-op")

	// the freed slot is usable again
	require.True(t, tr.Allocate(ctx, user(3)))
	ids := func() []uint64 {
		var out []uint64
		for _, e := range tr.Entries() {
			out = append(out, e.ID)
		}
		return out
	}()
	assert.Equal(t, []uint64{2, 3}, ids)
}

func TestReleaseIsNoOpOnceLocked(t *testing.T) {
	tr, _ := newTestTracker(t, 2)
	ctx := context.Background()

	tr.Allocate(ctx, user(1))
	tr.Allocate(ctx, user(2))
	require.True(t, tr.Status().Locked)

	assert.False(t, tr.Release(1))
	assert.Equal(t, 2, tr.Status().Tracked)
}

func TestCapacityTwoScenario(t *testing.T) {
	tr, _ := newTestTracker(t, 2)
	ctx := context.Background()

	require.True(t, tr.Allocate(ctx, user(1)))
	st := tr.Status()
	assert.Equal(t, 1, st.Tracked)
	assert.False(t, st.Locked)

	require.True(t, tr.Allocate(ctx, user(2)))
	st = tr.Status()
	assert.Equal(t, 2, st.Tracked)
	assert.True(t, st.Locked)

	require.False(t, tr.Allocate(ctx, user(3)))
	assert.Equal(t, 2, tr.Status().Tracked)

	require.False(t, tr.Release(1), "locked roster ignores departures")

	tr.Reset()
	st = tr.Status()
	assert.Equal(t, 0, st.Tracked)
	assert.False(t, st.Locked)

	require.True(t, tr.Allocate(ctx, user(1)))
}

func TestRosterSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(filepath.Join(dir, "state.json"), zap.NewNop())
	ctx := context.Background()

	tr := New(3, st, nil, zap.NewNop())
	joined := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	tr.Allocate(ctx, User{ID: 1, Name: "alpha", JoinedAt: joined})
	tr.Allocate(ctx, User{ID: 2, Name: "beta", JoinedAt: joined.Add(time.Minute)})

	reborn := New(3, NewStore(filepath.Join(dir, "state.json"), zap.NewNop()), nil, zap.NewNop())
	entries := reborn.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(1), entries[0].ID)
	assert.Equal(t, "alpha", entries[0].Name)
	assert.True(t, entries[0].JoinedAt.Equal(joined))
	assert.Equal(t, uint64(2), entries[1].ID)

	require.False(t, reborn.Allocate(ctx, User{ID: 1, Name: "alpha again"}))
}

func TestLockRecomputedFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	ctx := context.Background()

	tr := New(2, NewStore(path, zap.NewNop()), nil, zap.NewNop())
	tr.Allocate(ctx, user(1))
	tr.Allocate(ctx, user(2))

	reborn := New(2, NewStore(path, zap.NewNop()), nil, zap.NewNop())
	assert.True(t, reborn.Status().Locked)
	assert.False(t, reborn.Allocate(ctx, user(3)))
}
