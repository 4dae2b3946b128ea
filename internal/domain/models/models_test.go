package models

import (
	"testing"

	"github.com/nexuscrm/fieldsync/pkg/constants"
	"github.com/stretchr/testify/assert"
)

func TestFeatureFlagMap(t *testing.T) {
	var empty FeatureFlagMap
	assert.False(t, empty.IsEnabled("IS_AI_ENABLED"))
	assert.True(t, empty.GateOpen(""))

	flags := FeatureFlagMap{"IS_AI_ENABLED": true, "IS_WORKFLOW_ENABLED": false}
	assert.True(t, flags.GateOpen("IS_AI_ENABLED"))
	assert.False(t, flags.GateOpen("IS_WORKFLOW_ENABLED"))
	assert.False(t, flags.GateOpen("UNKNOWN"))
}

func TestFieldSpec_ToFieldMetadata(t *testing.T) {
	spec := FieldSpec{
		StandardID:       "20202020-0000-4000-8000-000000000001",
		WorkspaceID:      "ws-1",
		ObjectMetadataID: "obj-1",
		Name:             "searchVector",
		Type:             constants.FieldTypeTSVector,
		Label:            "Search vector",
		IsActive:         true,
		Generated:        &GeneratedColumn{Expression: "COALESCE(`name`, '')"},
	}

	f := spec.ToFieldMetadata()
	assert.Empty(t, f.ID)
	assert.False(t, f.IsCustom)
	assert.Equal(t, spec.StandardID, f.GetStandardID())
	assert.Equal(t, constants.StorageModeStored, f.Generated.Mode())

	f.Generated.Expression = "changed"
	assert.Equal(t, "COALESCE(`name`, '')", spec.Generated.Expression)
}

func TestMigrationPlan_Count(t *testing.T) {
	var nilPlan *MigrationPlan
	assert.True(t, nilPlan.IsEmpty())

	plan := &MigrationPlan{Batches: []MigrationBatch{
		{Action: constants.ActionDelete, Migrations: []FieldMigration{{}}},
		{Action: constants.ActionCreate, Migrations: []FieldMigration{{}, {}}},
	}}
	assert.False(t, plan.IsEmpty())
	assert.Equal(t, 2, plan.Count(constants.ActionCreate))
	assert.Equal(t, 0, plan.Count(constants.ActionUpdate))
}

func TestDynamicRelationSpec_Variants(t *testing.T) {
	shape := RelationShape{StandardID: "rel", Name: "linkedRecord"}
	specs := []DynamicRelationSpec{
		ResolvedRelationSpec{Relation: shape, Target: ObjectMetadata{ID: "pet"}},
		DeferredRelationSpec{Relation: shape, Reason: "no target"},
	}
	for _, s := range specs {
		assert.Equal(t, "linkedRecord", s.Shape().Name)
	}
	_, resolved := specs[0].(ResolvedRelationSpec)
	assert.True(t, resolved)
}
