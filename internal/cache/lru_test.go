package cache

import (
	"context"
	"testing"
	"time"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clock.now)
	c.Set("k", "v")
	c.Set("j", "w")

	clock.t = clock.t.Add(30 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.t = clock.t.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())
}

func TestDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("alice/1", 1)
	c.Set("alice/2", 2)
	c.Set("bob/1", 3)

	assert.Equal(t, 2, c.DeletePrefix("alice/"))
	assert.Equal(t, 1, c.Size())
}

func TestOverviewCacheInvalidate(t *testing.T) {
	c := NewOverviewCache(10, time.Minute)
	c.Set("alice", "2024-03-13", DashboardEntry{Overview: core.Overview{DailyLimit: 90}})
	c.Set("alice", "2024-03-12", DashboardEntry{})
	c.Set("alicia", "2024-03-13", DashboardEntry{})

	got, ok := c.Get("alice", "2024-03-13")
	require.True(t, ok)
	assert.Equal(t, 90.0, got.Overview.DailyLimit)

	assert.Equal(t, 2, c.Invalidate("alice"))
	_, ok = c.Get("alicia", "2024-03-13")
	assert.True(t, ok, "prefix must not leak into other users")
}

func TestManagerStartStop(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int](10, time.Millisecond).WithClock(clock.now)
	c.Set("x", 1)
	clock.t = clock.t.Add(time.Second)

	m := NewManager(nil)
	m.Register(c)
	assert.Equal(t, 1, m.CleanAll())

	m.Start(context.Background(), time.Millisecond)
	m.Stop()
	m.Stop()
}
