package services

import (
	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
)

// BuildMigrationPlan turns the rows the metadata store persisted into the
// physical-schema batches, ordered DELETE, UPDATE, CREATE. Empty batches are
// left out.
func BuildMigrationPlan(workspaceID string, result *models.ApplyResult, objects map[string]*models.ObjectMetadata) *models.MigrationPlan {
	plan := &models.MigrationPlan{WorkspaceID: workspaceID}
	if result == nil {
		return plan
	}

	objectName := func(objectID string) string {
		if obj, ok := objects[objectID]; ok {
			return obj.NameSingular
		}
		return ""
	}

	var deletes, updates, creates []models.FieldMigration
	for i := range result.Deleted {
		row := result.Deleted[i]
		deletes = append(deletes, models.FieldMigration{
			ObjectMetadataID: row.ObjectMetadataID,
			ObjectName:       objectName(row.ObjectMetadataID),
			Before:           &row,
		})
	}
	for i := range result.Updated {
		u := result.Updated[i]
		updates = append(updates, models.FieldMigration{
			ObjectMetadataID: u.After.ObjectMetadataID,
			ObjectName:       objectName(u.After.ObjectMetadataID),
			Before:           &u.Before,
			After:            &u.After,
		})
	}
	for i := range result.Created {
		row := result.Created[i]
		creates = append(creates, models.FieldMigration{
			ObjectMetadataID: row.ObjectMetadataID,
			ObjectName:       objectName(row.ObjectMetadataID),
			After:            &row,
		})
	}

	for _, batch := range []models.MigrationBatch{
		{Action: constants.ActionDelete, Migrations: deletes},
		{Action: constants.ActionUpdate, Migrations: updates},
		{Action: constants.ActionCreate, Migrations: creates},
	} {
		if len(batch.Migrations) > 0 {
			plan.Batches = append(plan.Batches, batch)
		}
	}
	return plan
}
