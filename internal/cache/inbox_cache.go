package cache

import (
	"fmt"
	"time"
)

const InboxTTL = 2 * time.Minute

// InboxCache stores the rendered conversation-list payload per user. The
// payload is cached as an opaque JSON document; writers invalidate on any
// send or read-mark so a hit is always current enough for the inbox screen.
type InboxCache struct {
	redis *RedisCache
}

func NewInboxCache(redis *RedisCache) *InboxCache {
	return &InboxCache{redis: redis}
}

func inboxKey(userID uint) string {
	return fmt.Sprintf("inbox:%d", userID)
}

func (ic *InboxCache) Get(userID uint) ([]byte, bool) {
	if ic == nil || ic.redis == nil {
		return nil, false
	}
	data, err := ic.redis.Get(inboxKey(userID))
	if err != nil || data == nil {
		return nil, false
	}
	return data, true
}

func (ic *InboxCache) Set(userID uint, payload []byte) error {
	if ic == nil || ic.redis == nil {
		return nil
	}
	return ic.redis.Set(inboxKey(userID), payload, InboxTTL)
}

func (ic *InboxCache) Invalidate(userID uint) error {
	if ic == nil || ic.redis == nil {
		return nil
	}
	return ic.redis.Delete(inboxKey(userID))
}
