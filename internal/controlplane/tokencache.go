package controlplane

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	tokenCacheSize = 1024
	tokenCacheTTL  = 60 * time.Second
)

type cachedToken struct {
	token     string
	fetchedAt time.Time
}

// tokenCache holds recently issued access tokens per user id. The TTL stays
// well inside the token validity window; the cache only saves the repeated
// exchange when the reaction cycle and tick hit the same user back to back.
type tokenCache struct {
	cache *lru.Cache[string, cachedToken]
	ttl   time.Duration
	now   func() time.Time
}

func newTokenCache() *tokenCache {
	cache, err := lru.New[string, cachedToken](tokenCacheSize)
	if err != nil {
		// Only possible with a non-positive size.
		panic(err)
	}
	return &tokenCache{cache: cache, ttl: tokenCacheTTL, now: time.Now}
}

func (t *tokenCache) get(userID string) (string, bool) {
	entry, ok := t.cache.Get(userID)
	if !ok {
		return "", false
	}
	if t.now().Sub(entry.fetchedAt) >= t.ttl {
		t.cache.Remove(userID)
		return "", false
	}
	return entry.token, true
}

func (t *tokenCache) put(userID, token string) {
	t.cache.Add(userID, cachedToken{token: token, fetchedAt: t.now()})
}
