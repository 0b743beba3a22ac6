package reference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"nutriverify/internal/reference/fdc"
)

const (
	defaultCacheTTL  = 10 * time.Minute
	defaultRateLimit = 250 * time.Millisecond
)

type searchCacheEntry struct {
	resp    *fdc.SearchResponse
	expires time.Time
}

// cachedSearch caches responses and spaces out provider calls.
type cachedSearch struct {
	client     fdc.Searcher
	cache      map[string]searchCacheEntry
	cacheTTL   time.Duration
	rateLimit  time.Duration
	mu         sync.Mutex
	lastLookup time.Time
}

func newCachedSearch(client fdc.Searcher, cacheTTL, rateLimit time.Duration) *cachedSearch {
	if client == nil {
		return &cachedSearch{}
	}
	return &cachedSearch{
		client:     client,
		cache:      make(map[string]searchCacheEntry),
		cacheTTL:   cacheTTL,
		rateLimit:  rateLimit,
		lastLookup: time.Unix(0, 0),
	}
}

func (s *cachedSearch) search(ctx context.Context, query string, opts fdc.SearchOptions) (*fdc.SearchResponse, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("reference client unavailable")
	}

	key := fmt.Sprintf("%s|%s", strings.ToLower(strings.TrimSpace(query)), opts.CacheKey())
	now := time.Now()

	s.mu.Lock()
	if entry, ok := s.cache[key]; ok && now.Before(entry.expires) {
		resp := entry.resp
		s.mu.Unlock()
		return resp, nil
	}

	wait := s.rateLimit - now.Sub(s.lastLookup)
	if wait > 0 {
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		s.mu.Lock()
	}
	s.lastLookup = time.Now()
	s.mu.Unlock()

	resp, err := s.client.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	if s.cacheTTL > 0 {
		s.mu.Lock()
		s.cache[key] = searchCacheEntry{resp: resp, expires: time.Now().Add(s.cacheTTL)}
		s.mu.Unlock()
	}
	return resp, nil
}
