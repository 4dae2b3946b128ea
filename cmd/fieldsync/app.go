package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nexuscrm/fieldsync/internal/application/compiler"
	"github.com/nexuscrm/fieldsync/internal/application/services"
	"github.com/nexuscrm/fieldsync/internal/config"
	"github.com/nexuscrm/fieldsync/internal/domain/definition"
	"github.com/nexuscrm/fieldsync/internal/domain/ports"
	"github.com/nexuscrm/fieldsync/internal/infrastructure/cache"
	"github.com/nexuscrm/fieldsync/internal/infrastructure/database"
	"github.com/nexuscrm/fieldsync/internal/infrastructure/persistence"
	"github.com/nexuscrm/fieldsync/internal/logging"

	log "github.com/sirupsen/logrus"
)

// app holds the wired collaborators of one process
type app struct {
	cfg        *config.Config
	db         *database.TiDBConnection
	redis      *redis.Client
	registry   *definition.Registry
	metadata   *persistence.MetadataRepository
	ddl        *persistence.DDLExecutor
	flags      *persistence.FeatureFlagRepository
	flagCache  *cache.FlagCache
	reconciler *services.ReconciliationService
	runner     *services.WorkspaceRunner
}

// loadDefinitions loads and checks the Definition Model with the built-in resolvers
func loadDefinitions() (*definition.Registry, *services.ResolverRegistry, error) {
	registry, err := definition.Default()
	if err != nil {
		return nil, nil, err
	}
	resolvers := services.NewResolverRegistry()
	if err := resolvers.CheckDefinitions(registry); err != nil {
		return nil, nil, err
	}
	return registry, resolvers, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}); err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	registry, resolvers, err := loadDefinitions()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.DatabaseConnection())
	if err != nil {
		return nil, err
	}
	log.Println("✅ Database connection established")

	a := &app{
		cfg:      cfg,
		db:       db,
		registry: registry,
		metadata: persistence.NewMetadataRepository(db.DB()),
		ddl:      persistence.NewDDLExecutor(db.DB()),
		flags:    persistence.NewFeatureFlagRepository(db.DB()),
	}

	var flagProvider ports.FeatureFlagProvider = a.flags
	var locker ports.WorkspaceLocker = cache.NoopLocker{}
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warnf("⚠️  Redis unavailable, running without flag cache and workspace locks: %v", err)
		} else {
			a.redis = client
			a.flagCache = cache.NewFlagCache(client, a.flags, cfg.Redis.FlagTTL)
			flagProvider = a.flagCache
			locker = cache.NewRedisWorkspaceLocker(client, cfg.Redis.LockTTL)
			log.Printf("🔒 Redis connected at %s", cfg.Redis.Addr)
		}
	}

	a.reconciler = services.NewReconciliationService(
		a.metadata,
		flagProvider,
		a.ddl,
		compiler.New(registry, resolvers),
		services.ReconciliationConfig{
			Mode:                 cfg.Sync.Mode,
			ReferenceWorkspaceID: cfg.Sync.ReferenceWorkspaceID,
		},
	)
	a.runner = services.NewWorkspaceRunner(a.reconciler, a.metadata, locker, cfg.Sync.Concurrency)
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if err := a.db.Close(); err != nil {
		log.Warnf("⚠️  Failed to close database: %v", err)
	}
}
