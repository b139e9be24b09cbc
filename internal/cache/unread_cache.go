package cache

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/classboardhq/classboard-backend/internal/models"
)

// UnreadSnapshotTTL is deliberately short: the snapshot carries a version
// token and a stale entry is rejected by the reader anyway, the TTL just
// keeps dead keys from piling up.
const UnreadSnapshotTTL = 1 * time.Minute

// UnreadCache stores computed unread snapshots per user. Nil-safe: a nil
// receiver or missing Redis turns every call into a no-op miss.
type UnreadCache struct {
	redis *RedisCache
}

func NewUnreadCache(redis *RedisCache) *UnreadCache {
	return &UnreadCache{redis: redis}
}

func unreadKey(userID uint) string {
	return fmt.Sprintf("unread:snapshot:%d", userID)
}

func (uc *UnreadCache) Get(userID uint) (*models.UnreadSnapshot, bool) {
	if uc == nil || uc.redis == nil {
		return nil, false
	}
	data, err := uc.redis.Get(unreadKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var snap models.UnreadSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	return &snap, true
}

func (uc *UnreadCache) Set(userID uint, snap *models.UnreadSnapshot) {
	if uc == nil || uc.redis == nil || snap == nil {
		return
	}
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return
	}
	_ = uc.redis.Set(unreadKey(userID), data, UnreadSnapshotTTL)
}

func (uc *UnreadCache) Invalidate(userID uint) {
	if uc == nil || uc.redis == nil {
		return
	}
	_ = uc.redis.Delete(unreadKey(userID))
}
