package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
)

// unreachableClient points at a port nothing listens on
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

type staticSource struct {
	flags models.FeatureFlagMap
	err   error
	calls int
}

func (s *staticSource) GetFeatureFlags(ctx context.Context, workspaceID string) (models.FeatureFlagMap, error) {
	s.calls++
	return s.flags, s.err
}

func TestFlagCache_FallsBackWhenRedisIsDown(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	source := &staticSource{flags: models.FeatureFlagMap{constants.FlagAIEnabled: true}}
	c := NewFlagCache(client, source, time.Minute)

	flags, err := c.GetFeatureFlags(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.True(t, flags.IsEnabled(constants.FlagAIEnabled))
	assert.Equal(t, 1, source.calls)

	source.err = errors.New("store down")
	_, err = c.GetFeatureFlags(context.Background(), "ws-1")
	assert.Error(t, err)
}

func TestFlagEncoding(t *testing.T) {
	flags := models.FeatureFlagMap{constants.FlagAIEnabled: true, constants.FlagWorkflowEnabled: false}
	encoded := encodeFlags(flags)
	assert.Equal(t, "1", encoded[loadedMarker])

	hash := make(map[string]string, len(encoded))
	for k, v := range encoded {
		hash[k] = v.(string)
	}
	assert.Equal(t, flags, decodeFlags(hash))

	empty := decodeFlags(map[string]string{loadedMarker: "1"})
	assert.Empty(t, empty)
}

func TestRedisWorkspaceLocker_Unreachable(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	unlock, err := NewRedisWorkspaceLocker(client, time.Second).Lock(context.Background(), "ws-1")
	assert.Error(t, err)
	assert.Nil(t, unlock)
}

func TestNoopLocker(t *testing.T) {
	unlock, err := NoopLocker{}.Lock(context.Background(), "ws-1")
	require.NoError(t, err)
	unlock()
}
