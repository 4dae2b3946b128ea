package models

import (
	"github.com/nexuscrm/fieldsync/pkg/constants"
)

// FieldMigration is one physical-schema change for one field
type FieldMigration struct {
	ObjectMetadataID string
	ObjectName       string
	Before           *FieldMetadata
	After            *FieldMetadata
}

// Field returns the row the migration is about (After for CREATE/UPDATE, Before for DELETE)
func (m FieldMigration) Field() *FieldMetadata {
	if m.After != nil {
		return m.After
	}
	return m.Before
}

// MigrationBatch groups migrations of one action
type MigrationBatch struct {
	Action     constants.SyncAction
	Migrations []FieldMigration
}

// MigrationPlan is the ordered physical-schema work of one workspace pass
type MigrationPlan struct {
	WorkspaceID string
	Batches     []MigrationBatch
}

// IsEmpty reports whether the plan holds no migration
func (p *MigrationPlan) IsEmpty() bool {
	if p == nil {
		return true
	}
	for _, b := range p.Batches {
		if len(b.Migrations) > 0 {
			return false
		}
	}
	return true
}

// Count returns the number of migrations of an action
func (p *MigrationPlan) Count(action constants.SyncAction) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, b := range p.Batches {
		if b.Action == action {
			n += len(b.Migrations)
		}
	}
	return n
}
