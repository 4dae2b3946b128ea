package compiler

import (
	"testing"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sidLegacy      = "9c1e7f00-4a3b-4c2d-8e9f-00000000b001"
	sidUpperLegacy = "9c1e7f00-4a3b-4c2d-8e9f-00000000b002"
	sidLowerUpper  = "9c1e7f00-4a3b-4c2d-8e9f-00000000b003"
	sidPets        = "9c1e7f00-4a3b-4c2d-8e9f-00000000b004"
)

func TestReprojectObject(t *testing.T) {
	c := defaultCompiler(t)
	companyDef, _ := c.Registry().ObjectByName("company")
	memberDef, _ := c.Registry().ObjectByName("workspaceMember")
	name, _ := companyDef.Field("name")
	aiSummary, _ := companyDef.Field("aiSummary")
	searchVector, _ := companyDef.Field("searchVector")
	accountOwner := companyDef.Relations[0]
	accountOwnerFK, err := accountOwner.JoinColumnID()
	require.NoError(t, err)

	ref := func(id, sid, fieldName string, typ constants.FieldType) models.FieldMetadata {
		return models.FieldMetadata{
			ID:               id,
			WorkspaceID:      "reference",
			ObjectMetadataID: "r-company",
			StandardID:       models.StringPtr(sid),
			Name:             fieldName,
			Type:             typ,
			Label:            fieldName,
			IsActive:         true,
		}
	}

	legacy := ref("r-legacy", sidLegacy, "legacy", constants.FieldTypeText)
	legacy.IsActive = false
	upperLegacy := ref("r-upper", sidUpperLegacy, "upperLegacy", constants.FieldTypeText)
	upperLegacy.Generated = &models.GeneratedColumn{Expression: "UPPER(`legacy`)"}
	lowerUpper := ref("r-lower", sidLowerUpper, "lowerUpper", constants.FieldTypeText)
	lowerUpper.Generated = &models.GeneratedColumn{Expression: "LOWER(`upperLegacy`)"}
	search := ref("r-search", searchVector.StandardID, "searchVector", constants.FieldTypeTSVector)
	search.Generated = &models.GeneratedColumn{}
	fk := ref("r-owner-fk", accountOwnerFK, "accountOwnerId", constants.FieldTypeUUID)
	owner := ref("r-owner", accountOwner.StandardID, "accountOwner", constants.FieldTypeRelation)
	owner.Relation = &models.RelationSettings{Cardinality: constants.RelationManyToOne, TargetObjectMetadataID: "r-member", JoinColumnName: "accountOwnerId"}
	pets := ref("r-pets", sidPets, "pets", constants.FieldTypeRelation)
	pets.Relation = &models.RelationSettings{Cardinality: constants.RelationOneToMany, TargetObjectMetadataID: "r-pet"}
	custom := models.FieldMetadata{ID: "r-custom", Name: "favoriteColor", Type: constants.FieldTypeText, IsCustom: true, IsActive: true}

	refCompany := models.ObjectMetadata{
		ID: "r-company", WorkspaceID: "reference", StandardID: models.StringPtr(companyDef.StandardID),
		NameSingular: "company", IsActive: true,
		Fields: []models.FieldMetadata{
			search,
			ref("r-name", name.StandardID, "name", constants.FieldTypeText),
			ref("r-ai", aiSummary.StandardID, "aiSummary", constants.FieldTypeText),
			legacy, upperLegacy, lowerUpper, fk, owner, pets, custom,
		},
	}
	refMember := models.ObjectMetadata{ID: "r-member", WorkspaceID: "reference", StandardID: models.StringPtr(memberDef.StandardID), NameSingular: "workspaceMember", IsActive: true}
	refPet := models.ObjectMetadata{ID: "r-pet", WorkspaceID: "reference", NameSingular: "pet", IsCustom: true, IsActive: true}
	snapshot := NewReferenceSnapshot("reference", []models.ObjectMetadata{refCompany, refMember, refPet})

	tenant := []models.ObjectMetadata{
		{ID: "t-company", StandardID: models.StringPtr(companyDef.StandardID), NameSingular: "company", IsActive: true},
		{ID: "t-member", StandardID: models.StringPtr(memberDef.StandardID), NameSingular: "workspaceMember", IsActive: true},
	}
	ctx := NewContext(testWorkspace, models.FeatureFlagMap{}, tenant)

	refObj, ok := snapshot.ObjectByStandardID(companyDef.StandardID)
	require.True(t, ok)
	target, err := c.ReprojectObject(ctx, snapshot, refObj, "t-company", companyDef)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "accountOwnerId", "accountOwner", "searchVector"}, specNames(target.Specs))
	for _, s := range target.Specs {
		assert.Equal(t, testWorkspace, s.WorkspaceID)
		assert.Equal(t, "t-company", s.ObjectMetadataID)
	}

	for _, sid := range []string{sidLegacy, sidUpperLegacy, sidLowerUpper, sidPets, aiSummary.StandardID} {
		assert.True(t, target.Suppressed[sid], "expected %s to be suppressed", sid)
	}

	ownerSpec, _ := findSpec(target.Specs, "accountOwner")
	require.NotNil(t, ownerSpec.Relation)
	assert.Equal(t, "t-member", ownerSpec.Relation.TargetObjectMetadataID)

	searchSpec, _ := findSpec(target.Specs, "searchVector")
	assert.Equal(t, "CONCAT_WS(' ', COALESCE(`name`, ''))", searchSpec.Generated.Expression)
	assert.Equal(t, constants.StorageModeStored, searchSpec.Generated.StorageMode)
}

func TestReprojectObject_IneligibleObject(t *testing.T) {
	c := defaultCompiler(t)
	inactive := &models.ObjectMetadata{ID: "r-x", StandardID: models.StringPtr("9c1e7f00-4a3b-4c2d-8e9f-00000000c001"), IsActive: false}
	assert.False(t, ObjectEligible(inactive))
	assert.False(t, ObjectEligible(nil))

	_, err := c.ReprojectObject(NewContext(testWorkspace, nil, nil), NewReferenceSnapshot("reference", nil), inactive, "t-x", nil)
	assert.Error(t, err)
}

func TestReprojectObject_JoinColumnFollowsRelation(t *testing.T) {
	c := defaultCompiler(t)
	companyDef, _ := c.Registry().ObjectByName("company")
	memberDef, _ := c.Registry().ObjectByName("workspaceMember")
	name, _ := companyDef.Field("name")
	accountOwner := companyDef.Relations[0]
	accountOwnerFK, err := accountOwner.JoinColumnID()
	require.NoError(t, err)

	row := func(id, sid, fieldName string, typ constants.FieldType) models.FieldMetadata {
		return models.FieldMetadata{
			ID: id, WorkspaceID: "reference", ObjectMetadataID: "r-company",
			StandardID: models.StringPtr(sid), Name: fieldName, Type: typ, Label: fieldName, IsActive: true,
		}
	}
	owner := row("r-owner", accountOwner.StandardID, "accountOwner", constants.FieldTypeRelation)
	owner.Relation = &models.RelationSettings{Cardinality: constants.RelationManyToOne, TargetObjectMetadataID: "r-member", JoinColumnName: "accountOwnerId"}

	snapshotWith := func(memberActive bool) *ReferenceSnapshot {
		company := models.ObjectMetadata{
			ID: "r-company", WorkspaceID: "reference", StandardID: models.StringPtr(companyDef.StandardID),
			NameSingular: "company", IsActive: true,
			Fields: []models.FieldMetadata{
				row("r-name", name.StandardID, "name", constants.FieldTypeText),
				row("r-owner-fk", accountOwnerFK, "accountOwnerId", constants.FieldTypeUUID),
				owner,
			},
		}
		member := models.ObjectMetadata{ID: "r-member", WorkspaceID: "reference", StandardID: models.StringPtr(memberDef.StandardID), NameSingular: "workspaceMember", IsActive: memberActive}
		return NewReferenceSnapshot("reference", []models.ObjectMetadata{company, member})
	}
	companyOnly := []models.ObjectMetadata{
		{ID: "t-company", StandardID: models.StringPtr(companyDef.StandardID), NameSingular: "company", IsActive: true},
	}
	withMember := append(companyOnly, models.ObjectMetadata{
		ID: "t-member", StandardID: models.StringPtr(memberDef.StandardID), NameSingular: "workspaceMember", IsActive: true,
	})

	tests := []struct {
		name     string
		snapshot *ReferenceSnapshot
		tenant   []models.ObjectMetadata
	}{
		{name: "target object not provisioned", snapshot: snapshotWith(true), tenant: companyOnly},
		{name: "reference target object inactive", snapshot: snapshotWith(false), tenant: withMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(testWorkspace, models.FeatureFlagMap{}, tt.tenant)
			refObj, ok := tt.snapshot.ObjectByStandardID(companyDef.StandardID)
			require.True(t, ok)

			target, err := c.ReprojectObject(ctx, tt.snapshot, refObj, "t-company", companyDef)
			require.NoError(t, err)

			names := specNames(target.Specs)
			assert.Contains(t, names, "name")
			assert.NotContains(t, names, "accountOwnerId")
			assert.NotContains(t, names, "accountOwner")
			assert.True(t, target.Suppressed[accountOwner.StandardID])
			assert.True(t, target.Suppressed[accountOwnerFK])
		})
	}

	genesis, err := c.CompileObject(NewContext(testWorkspace, models.FeatureFlagMap{}, companyOnly), companyDef, "t-company")
	require.NoError(t, err)
	assert.NotContains(t, specNames(genesis.Specs), "accountOwnerId")
}
