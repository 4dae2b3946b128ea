package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
)

// FeatureFlagRepository reads workspace feature flags from the metadata database
type FeatureFlagRepository struct {
	db *sql.DB
}

// NewFeatureFlagRepository creates a new FeatureFlagRepository
func NewFeatureFlagRepository(db *sql.DB) *FeatureFlagRepository {
	return &FeatureFlagRepository{db: db}
}

// GetFeatureFlags returns the flags of a workspace. Missing flags are simply absent.
func (r *FeatureFlagRepository) GetFeatureFlags(ctx context.Context, workspaceID string) (models.FeatureFlagMap, error) {
	query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ?",
		constants.FieldSysFeatureFlag_Key, "`"+constants.FieldSysFeatureFlag_Value+"`",
		constants.TableFeatureFlag, constants.FieldWorkspaceID)
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feature flags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	flags := make(models.FeatureFlagMap)
	for rows.Next() {
		var key string
		var value bool
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan feature flag: %w", err)
		}
		flags[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feature flags: %w", err)
	}
	return flags, nil
}

// SetFeatureFlag upserts one flag of a workspace
func (r *FeatureFlagRepository) SetFeatureFlag(ctx context.Context, workspaceID, key string, value bool) error {
	query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE %s = VALUES(%s)",
		constants.TableFeatureFlag,
		constants.FieldWorkspaceID, constants.FieldSysFeatureFlag_Key, "`"+constants.FieldSysFeatureFlag_Value+"`",
		"`"+constants.FieldSysFeatureFlag_Value+"`", "`"+constants.FieldSysFeatureFlag_Value+"`")
	if _, err := r.db.ExecContext(ctx, query, workspaceID, key, value); err != nil {
		return fmt.Errorf("failed to set feature flag %s: %w", key, err)
	}
	return nil
}
