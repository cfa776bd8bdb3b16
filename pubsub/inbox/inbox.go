package inbox

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/redis/go-redis/v9"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/inbox/inbox.go -package inbox . Inbox

// Inbox remembers uids of processed packages so that a redelivered package is skipped
type Inbox interface {
	Processed(ctx context.Context, uid string) (bool, error)
	MarkProcessed(ctx context.Context, uid string) error
}

// RedisClient is the part of redis.Cmdable used by the inbox
type RedisClient interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

func NewRedisInbox(client RedisClient, keyPrefix string, ttl time.Duration) Inbox {
	return &redisInbox{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

type redisInbox struct {
	client    RedisClient
	keyPrefix string
	ttl       time.Duration
}

func (r redisInbox) key(uid string) string {
	return r.keyPrefix + ":inbox:" + uid
}

func (r redisInbox) Processed(ctx context.Context, uid string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.key(uid)).Result()
	if err != nil {
		return false, errors.Wrapf(err, "checking inbox for %s", uid)
	}

	return exists > 0, nil
}

func (r redisInbox) MarkProcessed(ctx context.Context, uid string) error {
	if err := r.client.Set(ctx, r.key(uid), time.Now().Unix(), r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "marking %s as processed", uid)
	}

	return nil
}

// NewMemoryInbox keeps processed uids in process memory, entries older than ttl are forgotten
func NewMemoryInbox(ttl time.Duration) Inbox {
	return &memoryInbox{ttl: ttl, processed: xsync.NewMapOf[string, time.Time]()}
}

type memoryInbox struct {
	ttl       time.Duration
	processed *xsync.MapOf[string, time.Time]
}

func (m *memoryInbox) Processed(ctx context.Context, uid string) (bool, error) {
	markedAt, exists := m.processed.Load(uid)
	if !exists {
		return false, nil
	}

	if m.ttl > 0 && time.Since(markedAt) > m.ttl {
		m.processed.Delete(uid)
		return false, nil
	}

	return true, nil
}

func (m *memoryInbox) MarkProcessed(ctx context.Context, uid string) error {
	m.processed.Store(uid, time.Now())
	return nil
}
