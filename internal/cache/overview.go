package cache

import (
	"time"

	"budget/internal/core"
)

// DashboardEntry is what the dashboard endpoint serves for one user and day.
type DashboardEntry struct {
	Overview   core.Overview
	DailyLimit float64
	ComputedAt time.Time
}

// OverviewCache keys dashboard payloads by username and local day.
type OverviewCache struct {
	lru *LRUCache[DashboardEntry]
}

// NewOverviewCache builds an overview cache over a fresh LRU.
func NewOverviewCache(maxSize int, ttl time.Duration) *OverviewCache {
	return &OverviewCache{lru: NewLRUCache[DashboardEntry](maxSize, ttl)}
}

func overviewKey(username, localDay string) string {
	return username + "\x00" + localDay
}

func (c *OverviewCache) Get(username, localDay string) (DashboardEntry, bool) {
	return c.lru.Get(overviewKey(username, localDay))
}

func (c *OverviewCache) Set(username, localDay string, e DashboardEntry) {
	c.lru.Set(overviewKey(username, localDay), e)
}

// Invalidate drops every cached day for username.
func (c *OverviewCache) Invalidate(username string) int {
	return c.lru.DeletePrefix(username + "\x00")
}

// CleanExpired implements Cleaner.
func (c *OverviewCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

// LRU exposes the underlying cache. Used by tests.
func (c *OverviewCache) LRU() *LRUCache[DashboardEntry] {
	return c.lru
}
