package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suPer8Hu/chat-history/internal/chat"
)

const (
	sessionsKeyPrefix   = "chat:sessions:"
	generationKeyPrefix = "chat:sessions-gen:"
)

// SessionCache stores per-user session listings as JSON with a TTL. A
// per-user generation counter, bumped on every invalidation, guards fills.
// Generation keys never expire: a counter that restarted could match a
// stale reader again.
type SessionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ chat.SessionCache = (*SessionCache)(nil)

func New(addr, password string, db int, ttl time.Duration) *SessionCache {
	return NewFromClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), ttl)
}

func NewFromClient(rdb *redis.Client, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SessionCache{rdb: rdb, ttl: ttl}
}

func (c *SessionCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *SessionCache) Close() error {
	return c.rdb.Close()
}

func sessionsKey(userID string) string {
	return sessionsKeyPrefix + userID
}

func generationKey(userID string) string {
	return generationKeyPrefix + userID
}

func (c *SessionCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *SessionCache) GetSessions(ctx context.Context, userID string) ([]chat.SessionSummary, bool, error) {
	raw, err := c.rdb.Get(ctx, sessionsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var sessions []chat.SessionSummary
	if err := json.Unmarshal(raw, &sessions); err != nil {
		// drop the corrupt entry so the next read repopulates it
		_ = c.rdb.Del(ctx, sessionsKey(userID)).Err()
		return nil, false, err
	}
	return sessions, true, nil
}

// SetSessions stores the listing unless the generation moved past gen. A
// concurrent invalidation aborts the transaction, which counts as skipped.
func (c *SessionCache) SetSessions(ctx context.Context, userID string, gen int64, sessions []chat.SessionSummary) error {
	if sessions == nil {
		sessions = []chat.SessionSummary{}
	}
	body, err := json.Marshal(sessions)
	if err != nil {
		return err
	}

	genKey := generationKey(userID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sessionsKey(userID), body, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *SessionCache) Invalidate(ctx context.Context, userID string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(userID))
		pipe.Del(ctx, sessionsKey(userID))
		return nil
	})
	return err
}
