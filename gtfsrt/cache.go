package gtfsrt

import (
	"sync"
	"time"

	"github.com/theoremus-urban-solutions/subway-feeds/feeds"
)

// CacheEntry is one cached decoded feed, timestamped at fetch completion.
type CacheEntry struct {
	Feed      *Feed
	FetchedAt time.Time
}

// FeedCache holds the most recent decoded feed per endpoint. Freshness is
// decided at read time against the caller's TTL, so different callers can
// demand different staleness bounds from the same cache. One entry per
// endpoint, overwritten on refresh.
//
// Each instance is owned by a Fetcher; tests construct their own instead of
// sharing process state.
type FeedCache struct {
	mu      sync.Mutex
	entries map[feeds.Endpoint]CacheEntry
}

func NewFeedCache() *FeedCache {
	return &FeedCache{entries: map[feeds.Endpoint]CacheEntry{}}
}

// Fresh returns the cached feed for the endpoint if it is younger than ttl.
// A non-positive ttl never matches.
func (c *FeedCache) Fresh(endpoint feeds.Endpoint, ttl time.Duration) (*Feed, bool) {
	if ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[endpoint]
	if !ok || time.Since(entry.FetchedAt) >= ttl {
		return nil, false
	}
	return entry.Feed, true
}

// Put stores a freshly decoded feed, stamping it with the current time.
// Last write wins: concurrent fetches of the same endpoint converge on
// equivalent data.
func (c *FeedCache) Put(endpoint feeds.Endpoint, feed *Feed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[endpoint] = CacheEntry{Feed: feed, FetchedAt: time.Now()}
}

// Invalidate drops the entry for one endpoint.
func (c *FeedCache) Invalidate(endpoint feeds.Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, endpoint)
}

// Clear drops every entry.
func (c *FeedCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[feeds.Endpoint]CacheEntry{}
}
