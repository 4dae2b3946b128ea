package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexuscrm/fieldsync/pkg/utils"

	log "github.com/sirupsen/logrus"
)

const lockKeyPrefix = "fieldsync:lock:"

// unlockScript deletes the lock only while it still holds our token
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisWorkspaceLocker serializes passes over one workspace across processes
type RedisWorkspaceLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisWorkspaceLocker creates a locker. ttl bounds how long a crashed
// holder can block the workspace.
func NewRedisWorkspaceLocker(client redis.UniversalClient, ttl time.Duration) *RedisWorkspaceLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisWorkspaceLocker{client: client, ttl: ttl, retry: 250 * time.Millisecond}
}

// Lock implements ports.WorkspaceLocker
func (l *RedisWorkspaceLocker) Lock(ctx context.Context, workspaceID string) (func(), error) {
	key := lockKeyPrefix + workspaceID
	token := utils.GenerateID()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock for workspace %s: %w", workspaceID, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	return func() {
		// The caller's context may already be cancelled; release anyway
		if err := unlockScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil {
			log.WithField("workspace", workspaceID).Warnf("⚠️  Failed to release workspace lock: %v", err)
		}
	}, nil
}

// NoopLocker never blocks. Used when no Redis is configured.
type NoopLocker struct{}

// Lock implements ports.WorkspaceLocker
func (NoopLocker) Lock(ctx context.Context, workspaceID string) (func(), error) {
	return func() {}, nil
}

// NewClient creates a Redis client for addr and checks it answers
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
