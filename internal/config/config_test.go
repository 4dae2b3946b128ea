package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuscrm/fieldsync/pkg/constants"
	appErrors "github.com/nexuscrm/fieldsync/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FIELDSYNC_CONFIG", "")
	t.Setenv("SYNC_MODE", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, constants.SyncModeGenesis, cfg.Sync.Mode)
	assert.Equal(t, 4, cfg.Sync.Concurrency)
	assert.Equal(t, "4000", cfg.Database.Port)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fieldsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  host: tidb.internal
  name: metadata
sync:
  mode: reference
  reference_workspace_id: 20202020-1c25-4d02-bf25-6aeccf7ea419
  concurrency: 8
redis:
  addr: redis:6379
  flag_ttl: 30s
`), 0o600))

	t.Setenv("SYNC_CONCURRENCY", "2")
	t.Setenv("TIDB_DATABASE", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tidb.internal", cfg.Database.Host)
	assert.Equal(t, "metadata", cfg.DatabaseConnection().Database)
	assert.Equal(t, constants.SyncModeReference, cfg.Sync.Mode)
	assert.Equal(t, 2, cfg.Sync.Concurrency, "env wins over file")
	assert.Equal(t, 30*time.Second, cfg.Redis.FlagTTL)
	assert.Equal(t, 10*time.Minute, cfg.Redis.LockTTL, "unset keys keep defaults")
}

func TestLoad_BadInteger(t *testing.T) {
	t.Setenv("SYNC_CONCURRENCY", "many")
	_, err := Load("")
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown mode", func(c *Config) { c.Sync.Mode = "mirror" }, "sync.mode"},
		{"reference without workspace", func(c *Config) { c.Sync.Mode = constants.SyncModeReference }, "sync.reference_workspace_id"},
		{"reference with bad id", func(c *Config) {
			c.Sync.Mode = constants.SyncModeReference
			c.Sync.ReferenceWorkspaceID = "acme"
		}, "sync.reference_workspace_id"},
		{"no concurrency", func(c *Config) { c.Sync.Concurrency = 0 }, "sync.concurrency"},
		{"no host", func(c *Config) { c.Database.Host = "" }, "database.host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var v *appErrors.ValidationError
			require.ErrorAs(t, err, &v)
			assert.Equal(t, tt.field, v.Field)
		})
	}

	assert.NoError(t, Default().Validate())
}
