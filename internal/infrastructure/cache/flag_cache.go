package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/internal/domain/ports"

	log "github.com/sirupsen/logrus"
)

const (
	flagKeyPrefix = "fieldsync:flags:"
	// loadedMarker is stored with every cached hash so an empty flag set is still a hit
	loadedMarker = "__loaded"

	DefaultFlagTTL = 5 * time.Minute
)

// FlagCache is a read-through Redis cache in front of a feature flag provider.
// Redis failures fall back to the provider.
type FlagCache struct {
	client redis.UniversalClient
	source ports.FeatureFlagProvider
	ttl    time.Duration
}

// NewFlagCache creates a new FlagCache
func NewFlagCache(client redis.UniversalClient, source ports.FeatureFlagProvider, ttl time.Duration) *FlagCache {
	if ttl <= 0 {
		ttl = DefaultFlagTTL
	}
	return &FlagCache{client: client, source: source, ttl: ttl}
}

func flagKey(workspaceID string) string {
	return flagKeyPrefix + workspaceID
}

// GetFeatureFlags implements ports.FeatureFlagProvider
func (c *FlagCache) GetFeatureFlags(ctx context.Context, workspaceID string) (models.FeatureFlagMap, error) {
	logger := log.WithField("workspace", workspaceID)

	cached, err := c.client.HGetAll(ctx, flagKey(workspaceID)).Result()
	if err != nil {
		logger.Warnf("⚠️  Flag cache unavailable, reading flags from store: %v", err)
		return c.source.GetFeatureFlags(ctx, workspaceID)
	}
	if _, ok := cached[loadedMarker]; ok {
		return decodeFlags(cached), nil
	}

	flags, err := c.source.GetFeatureFlags(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, flagKey(workspaceID), encodeFlags(flags))
	pipe.Expire(ctx, flagKey(workspaceID), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warnf("⚠️  Failed to cache feature flags: %v", err)
	}
	return flags, nil
}

// Invalidate drops the cached flags of a workspace
func (c *FlagCache) Invalidate(ctx context.Context, workspaceID string) error {
	return c.client.Del(ctx, flagKey(workspaceID)).Err()
}

func encodeFlags(flags models.FeatureFlagMap) map[string]interface{} {
	out := make(map[string]interface{}, len(flags)+1)
	out[loadedMarker] = "1"
	for k, v := range flags {
		if v {
			out[k] = "1"
		} else {
			out[k] = "0"
		}
	}
	return out
}

func decodeFlags(hash map[string]string) models.FeatureFlagMap {
	flags := make(models.FeatureFlagMap, len(hash))
	for k, v := range hash {
		if k == loadedMarker {
			continue
		}
		flags[k] = v == "1"
	}
	return flags
}
