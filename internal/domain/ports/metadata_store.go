package ports

import (
	"context"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
)

// MetadataStore reads and writes the persisted object and field metadata.
type MetadataStore interface {
	// ListObjects returns every object of the workspace with its fields.
	ListObjects(ctx context.Context, workspaceID string) ([]models.ObjectMetadata, error)

	// ListWorkspaceIDs returns every workspace that owns metadata.
	ListWorkspaceIDs(ctx context.Context) ([]string, error)

	// ApplyFieldChanges persists all mutations of one pass atomically and
	// returns the rows as stored (ids and timestamps assigned).
	ApplyFieldChanges(ctx context.Context, workspaceID string, changes models.FieldChangeSet) (*models.ApplyResult, error)
}

// MigrationExecutor applies the physical schema changes of a plan.
type MigrationExecutor interface {
	ExecuteMigrations(ctx context.Context, workspaceID string, plan *models.MigrationPlan) error
}

// FeatureFlagProvider returns the feature flags of a workspace.
type FeatureFlagProvider interface {
	GetFeatureFlags(ctx context.Context, workspaceID string) (models.FeatureFlagMap, error)
}

// WorkspaceLocker serializes passes over the same workspace across processes.
type WorkspaceLocker interface {
	// Lock blocks until the lock is held or ctx is done. The returned func releases it.
	Lock(ctx context.Context, workspaceID string) (unlock func(), err error)
}
