package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	"github.com/nexuscrm/fieldsync/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objectRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(objectColumns).
		AddRow("obj-1", "ws-1", "20202020-0001-4000-8000-000000000001", "company", "companies", "Company", "Companies",
			false, false, true, nil, now, now).
		AddRow("obj-2", "ws-1", nil, "pet", "pets", "Pet", "Pets",
			true, false, true, `["timeline"]`, now, now)
}

func fieldRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "workspace_id", "object_metadata_id", "standard_id", "name", "type", "label", "description", "icon",
		"default_value", "options", "settings", "is_nullable", "is_unique", "is_custom", "is_system", "is_active",
		"generated_expression", "generated_storage", "relation", "created_at", "updated_at",
	}).
		AddRow("f-1", "ws-1", "obj-1", "20202020-0001-4000-8000-000000000002", "name", "TEXT", "Name", "The name", nil,
			`"''"`, nil, nil, true, false, false, false, true,
			nil, nil, nil, now, now).
		AddRow("f-2", "ws-1", "obj-1", "20202020-0001-4000-8000-000000000003", "searchVector", "TS_VECTOR", "Search vector", nil, nil,
			nil, nil, nil, true, false, false, true, true,
			"CONCAT_WS(' ', COALESCE(`name`, ''))", "STORED", nil, now, now).
		AddRow("f-3", "ws-1", "obj-1", nil, "tier", "SELECT", "Tier", nil, nil,
			nil, `[{"label":"Gold","value":"GOLD","position":0}]`, nil, true, false, true, false, true,
			nil, nil, nil, now, now).
		AddRow("f-4", "ws-1", "obj-1", "20202020-0001-4000-8000-000000000004", "accountOwner", "RELATION", "Account owner", nil, nil,
			nil, nil, nil, true, false, false, false, true,
			nil, nil, `{"cardinality":"MANY_TO_ONE","target_object_metadata_id":"obj-9","join_column_name":"accountOwnerId"}`, now, now).
		AddRow("f-5", "ws-1", "obj-404", nil, "orphan", "TEXT", "Orphan", nil, nil,
			nil, nil, nil, true, false, true, false, true,
			nil, nil, nil, now, now)
}

func TestListObjects(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMetadataRepository(db)
	mock.ExpectQuery("SELECT .+ FROM _System_Object WHERE workspace_id = \\?").WithArgs("ws-1").WillReturnRows(objectRows())
	mock.ExpectQuery("SELECT .+ FROM _System_Field WHERE workspace_id = \\? ORDER BY object_metadata_id, created_at, name").
		WithArgs("ws-1").WillReturnRows(fieldRows())

	objects, err := repo.ListObjects(context.Background(), "ws-1")
	require.NoError(t, err)
	require.Len(t, objects, 2)

	company := objects[0]
	assert.True(t, company.IsStandard())
	require.Len(t, company.Fields, 4, "orphan rows are dropped")

	name := company.Fields[0]
	assert.Equal(t, constants.FieldTypeText, name.Type)
	assert.Equal(t, "''", name.DefaultValue)
	assert.Nil(t, name.Generated)
	assert.Equal(t, "The name", name.Description)

	search := company.Fields[1]
	require.NotNil(t, search.Generated)
	assert.Equal(t, constants.StorageModeStored, search.Generated.StorageMode)
	assert.Contains(t, search.Generated.Expression, "CONCAT_WS")

	tier := company.Fields[2]
	assert.True(t, tier.IsCustom)
	assert.Nil(t, tier.StandardID)
	require.Len(t, tier.Options, 1)
	assert.Equal(t, "GOLD", tier.Options[0].Value)

	owner := company.Fields[3]
	require.NotNil(t, owner.Relation)
	assert.Equal(t, constants.RelationManyToOne, owner.Relation.Cardinality)
	assert.Equal(t, "accountOwnerId", owner.Relation.JoinColumnName)

	pet := objects[1]
	assert.False(t, pet.IsStandard())
	assert.True(t, pet.HasCapability("timeline"))
	assert.Empty(t, pet.Fields)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListObjects_EmptyWorkspaceSkipsFieldQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM _System_Object").WillReturnRows(sqlmock.NewRows(objectColumns))

	objects, err := NewMetadataRepository(db).ListObjects(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, objects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListWorkspaceIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM _System_Workspace ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ws-1").AddRow("ws-2"))

	ids, err := NewMetadataRepository(db).ListWorkspaceIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ws-1", "ws-2"}, ids)
}

func sampleChanges() models.FieldChangeSet {
	sid := models.StringPtr("20202020-0001-4000-8000-000000000010")
	return models.FieldChangeSet{
		ToDelete: []models.FieldMetadata{{ID: "f-old", ObjectMetadataID: "obj-1", Name: "legacy", Type: constants.FieldTypeText}},
		ToUpdate: []models.FieldUpdate{{
			Before:  models.FieldMetadata{ID: "f-1", ObjectMetadataID: "obj-1", Name: "name", Label: "Name", Type: constants.FieldTypeText},
			After:   models.FieldMetadata{ID: "f-1", ObjectMetadataID: "obj-1", Name: "name", Label: "Full Name", Type: constants.FieldTypeText},
			Changed: []string{"label"},
		}},
		ToCreate: []models.FieldMetadata{{
			ObjectMetadataID: "obj-1", StandardID: sid, Name: "tagline", Label: "Tagline", Type: constants.FieldTypeText,
			IsNullable: true, IsActive: true,
		}},
	}
}

func TestApplyFieldChanges(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM _System_Field WHERE workspace_id = \\? AND id = \\?").
		WithArgs("ws-1", "f-old").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE _System_Field SET .+ WHERE workspace_id = \\? AND id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO _System_Field").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := NewMetadataRepository(db).ApplyFieldChanges(context.Background(), "ws-1", sampleChanges())
	require.NoError(t, err)

	require.Len(t, result.Deleted, 1)
	require.Len(t, result.Updated, 1)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "Full Name", result.Updated[0].After.Label)
	assert.NotNil(t, result.Updated[0].After.UpdatedAt)

	created := result.Created[0]
	assert.True(t, utils.IsValidUUID(created.ID))
	assert.Equal(t, "ws-1", created.WorkspaceID)
	assert.NotNil(t, created.CreatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyFieldChanges_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM _System_Field").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = NewMetadataRepository(db).ApplyFieldChanges(context.Background(), "ws-1", sampleChanges())
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyFieldChanges_RetriesDeadlock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	changes := models.FieldChangeSet{ToDelete: []models.FieldMetadata{{ID: "f-old"}}}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM _System_Field").WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM _System_Field").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := NewMetadataRepository(db).ApplyFieldChanges(context.Background(), "ws-1", changes)
	require.NoError(t, err)
	assert.Len(t, result.Deleted, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureWorkspace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT IGNORE INTO _System_Workspace").WithArgs("ws-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT IGNORE INTO _System_Object").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = NewMetadataRepository(db).EnsureWorkspace(context.Background(), "ws-1", []models.ObjectMetadata{
		{StandardID: models.StringPtr("20202020-0001-4000-8000-000000000001"), NameSingular: "company", IsActive: true},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDeadlock(t *testing.T) {
	assert.False(t, isDeadlock(nil))
	assert.True(t, isDeadlock(&mysql.MySQLError{Number: 1213}))
	assert.True(t, isDeadlock(&mysql.MySQLError{Number: 1205}))
	assert.True(t, isDeadlock(errors.New("Deadlock found when trying to get lock")))
	assert.False(t, isDeadlock(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
}

func TestFeatureFlagRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFeatureFlagRepository(db)
	mock.ExpectQuery("SELECT flag_key, `value` FROM _System_FeatureFlag WHERE workspace_id = \\?").
		WithArgs("ws-1").
		WillReturnRows(sqlmock.NewRows([]string{"flag_key", "value"}).
			AddRow(constants.FlagAIEnabled, true).
			AddRow(constants.FlagWorkflowEnabled, false))

	flags, err := repo.GetFeatureFlags(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.True(t, flags.IsEnabled(constants.FlagAIEnabled))
	assert.False(t, flags.IsEnabled(constants.FlagWorkflowEnabled))

	mock.ExpectExec("INSERT INTO _System_FeatureFlag .+ ON DUPLICATE KEY UPDATE").
		WithArgs("ws-1", constants.FlagWorkflowEnabled, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetFeatureFlag(context.Background(), "ws-1", constants.FlagWorkflowEnabled, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}
