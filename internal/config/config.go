package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nexuscrm/fieldsync/internal/infrastructure/database"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	appErrors "github.com/nexuscrm/fieldsync/pkg/errors"
	"github.com/nexuscrm/fieldsync/pkg/utils"
)

// Config is the full runtime configuration of fieldsync
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Sync     SyncConfig     `yaml:"sync"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	MaxConns int    `yaml:"max_conns"`
}

type SyncConfig struct {
	Mode                 constants.SyncMode `yaml:"mode"`
	ReferenceWorkspaceID string             `yaml:"reference_workspace_id"`
	Concurrency          int                `yaml:"concurrency"`
	Schedule             string             `yaml:"schedule"`
}

// RedisConfig is optional; an empty Addr disables the flag cache and the distributed lock
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	FlagTTL  time.Duration `yaml:"flag_ttl"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Host: "127.0.0.1", Port: "4000", User: "root", Name: "fieldsync", MaxConns: 20},
		Sync: SyncConfig{
			Mode:        constants.SyncModeGenesis,
			Concurrency: 4,
			Schedule:    "@every 15m",
		},
		Redis:   RedisConfig{FlagTTL: 5 * time.Minute, LockTTL: 10 * time.Minute},
		Logging: LoggingConfig{Level: "info", Format: "text", MaxSizeMB: 100, MaxAgeDays: 14},
	}
}

// Load reads .env (if present), then the YAML file at path (if any), then
// environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("FIELDSYNC_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Database.Host, "TIDB_HOST")
	setString(&c.Database.Port, "TIDB_PORT")
	setString(&c.Database.User, "TIDB_USER")
	setString(&c.Database.Password, "TIDB_PASSWORD")
	setString(&c.Database.Name, "TIDB_DATABASE")

	if v := os.Getenv("SYNC_MODE"); v != "" {
		c.Sync.Mode = constants.SyncMode(v)
	}
	setString(&c.Sync.ReferenceWorkspaceID, "REFERENCE_WORKSPACE_ID")
	setString(&c.Sync.Schedule, "SYNC_SCHEDULE")
	if err := setInt(&c.Sync.Concurrency, "SYNC_CONCURRENCY"); err != nil {
		return err
	}

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	if err := setInt(&c.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	setString(&c.Logging.File, "LOG_FILE")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return appErrors.NewValidationError(key, fmt.Sprintf("must be an integer, got %q", v))
	}
	*dst = n
	return nil
}

// Validate rejects configurations a pass cannot run with
func (c *Config) Validate() error {
	if !constants.IsValidSyncMode(c.Sync.Mode) {
		return appErrors.NewValidationError("sync.mode", fmt.Sprintf("unknown mode %q", c.Sync.Mode))
	}
	if c.Sync.Mode == constants.SyncModeReference {
		if c.Sync.ReferenceWorkspaceID == "" {
			return appErrors.NewValidationError("sync.reference_workspace_id", "required in reference mode")
		}
		if !utils.IsValidUUID(c.Sync.ReferenceWorkspaceID) {
			return appErrors.NewValidationError("sync.reference_workspace_id", "must be a UUID")
		}
	}
	if c.Sync.Concurrency < 1 {
		return appErrors.NewValidationError("sync.concurrency", "must be at least 1")
	}
	if c.Database.Host == "" {
		return appErrors.NewValidationError("database.host", "is required")
	}
	return nil
}

// DatabaseConnection returns the connection settings of the metadata database
func (c *Config) DatabaseConnection() database.Config {
	return database.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		Database: c.Database.Name,
		MaxConns: c.Database.MaxConns,
	}
}
