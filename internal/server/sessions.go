package server

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ReconnectGracePeriod is how long a dropped session can reclaim its
// nickname.
const ReconnectGracePeriod = 30 * time.Second

type cachedIdentity struct {
	nickname       string
	disconnectedAt time.Time
}

// sessionCache remembers the nickname of recently disconnected sessions so
// a reconnecting client can resume its identity without a fresh
// user_set_name. Bounded; eviction simply forfeits the shortcut.
type sessionCache struct {
	grace time.Duration
	cache *lru.Cache[string, cachedIdentity]
}

func newSessionCache(size int, grace time.Duration) (*sessionCache, error) {
	cache, err := lru.New[string, cachedIdentity](size)
	if err != nil {
		return nil, err
	}
	return &sessionCache{grace: grace, cache: cache}, nil
}

// remember records a session's nickname at disconnect time.
func (c *sessionCache) remember(sessionID, nickname string) {
	if nickname == "" {
		return
	}
	c.cache.Add(sessionID, cachedIdentity{
		nickname:       nickname,
		disconnectedAt: time.Now(),
	})
}

// recall pops the nickname of a session seen within the grace period.
func (c *sessionCache) recall(sessionID string) (string, bool) {
	entry, ok := c.cache.Get(sessionID)
	if !ok {
		return "", false
	}
	c.cache.Remove(sessionID)
	if time.Since(entry.disconnectedAt) > c.grace {
		return "", false
	}
	return entry.nickname, true
}
