package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	"github.com/nexuscrm/fieldsync/pkg/utils"

	log "github.com/sirupsen/logrus"
)

// applyRetries bounds deadlock retries of one apply transaction
const applyRetries = 3

// MetadataRepository is the TiDB-backed metadata store
type MetadataRepository struct {
	db *sql.DB
	tm *TransactionManager
}

// NewMetadataRepository creates a new MetadataRepository
func NewMetadataRepository(db *sql.DB) *MetadataRepository {
	return &MetadataRepository{db: db, tm: NewTransactionManager(db)}
}

// =================================================================================
// SQL Columns
// =================================================================================

var objectColumns = []string{
	constants.FieldID,
	constants.FieldWorkspaceID,
	constants.FieldStandardID,
	constants.FieldSysObject_NameSingular,
	constants.FieldSysObject_NamePlural,
	constants.FieldSysObject_LabelSingular,
	constants.FieldSysObject_LabelPlural,
	constants.FieldIsCustom,
	constants.FieldIsSystem,
	constants.FieldIsActive,
	constants.FieldSysObject_Capabilities,
	constants.FieldCreatedAt,
	constants.FieldUpdatedAt,
}

var fieldColumns = []string{
	constants.FieldID,
	constants.FieldWorkspaceID,
	constants.FieldSysField_ObjectMetadataID,
	constants.FieldStandardID,
	"`" + constants.FieldSysField_Name + "`",
	"`" + constants.FieldSysField_Type + "`",
	constants.FieldLabel,
	constants.FieldDescription,
	constants.FieldIcon,
	constants.FieldSysField_DefaultValue,
	"`" + constants.FieldSysField_Options + "`",
	constants.FieldSysField_Settings,
	constants.FieldSysField_IsNullable,
	"`" + constants.FieldSysField_IsUnique + "`",
	constants.FieldIsCustom,
	constants.FieldIsSystem,
	constants.FieldIsActive,
	constants.FieldSysField_GeneratedExpression,
	constants.FieldSysField_GeneratedStorage,
	constants.FieldSysField_Relation,
	constants.FieldCreatedAt,
	constants.FieldUpdatedAt,
}

// fieldUpdateColumns are the columns an UPDATE rewrites; identity and ownership never change
var fieldUpdateColumns = []string{
	"`" + constants.FieldSysField_Name + "`",
	"`" + constants.FieldSysField_Type + "`",
	constants.FieldLabel,
	constants.FieldDescription,
	constants.FieldIcon,
	constants.FieldSysField_DefaultValue,
	"`" + constants.FieldSysField_Options + "`",
	constants.FieldSysField_Settings,
	constants.FieldSysField_IsNullable,
	"`" + constants.FieldSysField_IsUnique + "`",
	constants.FieldIsSystem,
	constants.FieldIsActive,
	constants.FieldSysField_GeneratedExpression,
	constants.FieldSysField_GeneratedStorage,
	constants.FieldSysField_Relation,
	constants.FieldUpdatedAt,
}

// =================================================================================
// Queries
// =================================================================================

// ListObjects returns every object of the workspace with its fields
func (r *MetadataRepository) ListObjects(ctx context.Context, workspaceID string) ([]models.ObjectMetadata, error) {
	objectQuery := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s",
		strings.Join(objectColumns, ", "), constants.TableObject, constants.FieldWorkspaceID, constants.FieldSysObject_NameSingular)
	rows, err := r.db.QueryContext(ctx, objectQuery, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var objects []models.ObjectMetadata
	index := make(map[string]int)
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		index[obj.ID] = len(objects)
		objects = append(objects, *obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate objects: %w", err)
	}
	if len(objects) == 0 {
		return objects, nil
	}

	// Rows created in one pass share created_at; name keeps the order stable.
	fieldQuery := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s, %s, %s",
		strings.Join(fieldColumns, ", "), constants.TableField, constants.FieldWorkspaceID,
		constants.FieldSysField_ObjectMetadataID, constants.FieldCreatedAt, constants.FieldSysField_Name)
	fieldRows, err := r.db.QueryContext(ctx, fieldQuery, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer func() { _ = fieldRows.Close() }()

	for fieldRows.Next() {
		field, err := scanField(fieldRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		i, ok := index[field.ObjectMetadataID]
		if !ok {
			log.WithFields(log.Fields{"workspace": workspaceID, "field": field.ID}).
				Warnf("⚠️  Orphan field %s references unknown object %s", field.Name, field.ObjectMetadataID)
			continue
		}
		objects[i].Fields = append(objects[i].Fields, *field)
	}
	if err := fieldRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fields: %w", err)
	}

	return objects, nil
}

// ListWorkspaceIDs returns every registered workspace
func (r *MetadataRepository) ListWorkspaceIDs(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", constants.FieldID, constants.TableWorkspace, constants.FieldID)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workspaces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan workspace id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =================================================================================
// Mutations
// =================================================================================

// ApplyFieldChanges persists deletes, updates and inserts of one pass in a
// single transaction. New rows get a UUID v4 unless they already carry an id.
func (r *MetadataRepository) ApplyFieldChanges(ctx context.Context, workspaceID string, changes models.FieldChangeSet) (*models.ApplyResult, error) {
	var result *models.ApplyResult

	err := r.tm.WithRetry(ctx, func(tx *sql.Tx) error {
		result = &models.ApplyResult{}
		now := time.Now().UTC()

		for _, row := range changes.ToDelete {
			if err := r.deleteField(ctx, tx, workspaceID, row.ID); err != nil {
				return err
			}
			result.Deleted = append(result.Deleted, row)
		}

		for _, u := range changes.ToUpdate {
			after := u.After
			after.UpdatedAt = &now
			if err := r.updateField(ctx, tx, workspaceID, &after); err != nil {
				return err
			}
			result.Updated = append(result.Updated, models.FieldUpdate{Before: u.Before, After: after, Changed: u.Changed})
		}

		for _, row := range changes.ToCreate {
			created := row
			if created.ID == "" {
				created.ID = utils.GenerateID()
			}
			created.WorkspaceID = workspaceID
			created.CreatedAt = &now
			created.UpdatedAt = &now
			if err := r.insertField(ctx, tx, &created); err != nil {
				return err
			}
			result.Created = append(result.Created, created)
		}
		return nil
	}, applyRetries)
	if err != nil {
		return nil, err
	}

	log.WithField("workspace", workspaceID).Printf("💾 Applied field metadata: %d created, %d updated, %d deleted",
		len(result.Created), len(result.Updated), len(result.Deleted))
	return result, nil
}

func (r *MetadataRepository) deleteField(ctx context.Context, tx *sql.Tx, workspaceID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s = ?", constants.TableField, constants.FieldWorkspaceID, constants.FieldID)
	if _, err := tx.ExecContext(ctx, query, workspaceID, id); err != nil {
		return fmt.Errorf("failed to delete field %s: %w", id, err)
	}
	return nil
}

func (r *MetadataRepository) updateField(ctx context.Context, tx *sql.Tx, workspaceID string, f *models.FieldMetadata) error {
	values, err := fieldValues(f)
	if err != nil {
		return err
	}
	sets := make([]string, len(fieldUpdateColumns))
	for i, col := range fieldUpdateColumns {
		sets[i] = col + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ? AND %s = ?",
		constants.TableField, strings.Join(sets, ", "), constants.FieldWorkspaceID, constants.FieldID)

	args := []interface{}{
		f.Name, f.Type, f.Label, f.Description, f.Icon,
		values.defaultValue, values.options, values.settings,
		f.IsNullable, f.IsUnique, f.IsSystem, f.IsActive,
		values.generatedExpression, values.generatedStorage, values.relation,
		f.UpdatedAt,
		workspaceID, f.ID,
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update field %s: %w", f.ID, err)
	}
	return nil
}

func (r *MetadataRepository) insertField(ctx context.Context, tx *sql.Tx, f *models.FieldMetadata) error {
	values, err := fieldValues(f)
	if err != nil {
		return err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fieldColumns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", constants.TableField, strings.Join(fieldColumns, ", "), placeholders)

	args := []interface{}{
		f.ID, f.WorkspaceID, f.ObjectMetadataID, f.StandardID,
		f.Name, f.Type, f.Label, f.Description, f.Icon,
		values.defaultValue, values.options, values.settings,
		f.IsNullable, f.IsUnique, f.IsCustom, f.IsSystem, f.IsActive,
		values.generatedExpression, values.generatedStorage, values.relation,
		f.CreatedAt, f.UpdatedAt,
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert field %s: %w", f.Name, err)
	}
	return nil
}

// EnsureWorkspace registers a workspace and its standard objects. Existing rows
// are left untouched.
func (r *MetadataRepository) EnsureWorkspace(ctx context.Context, workspaceID string, objects []models.ObjectMetadata) error {
	return r.tm.WithRetry(ctx, func(tx *sql.Tx) error {
		wsQuery := fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (?)", constants.TableWorkspace, constants.FieldID)
		if _, err := tx.ExecContext(ctx, wsQuery, workspaceID); err != nil {
			return fmt.Errorf("failed to register workspace %s: %w", workspaceID, err)
		}

		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(objectColumns)), ", ")
		objQuery := fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (%s)", constants.TableObject, strings.Join(objectColumns, ", "), placeholders)
		now := time.Now().UTC()
		for _, obj := range objects {
			id := obj.ID
			if id == "" {
				id = utils.GenerateID()
			}
			capabilities, err := marshalJSON(obj.Capabilities)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, objQuery,
				id, workspaceID, obj.StandardID,
				obj.NameSingular, obj.NamePlural, obj.LabelSingular, obj.LabelPlural,
				obj.IsCustom, obj.IsSystem, obj.IsActive, capabilities, now, now,
			); err != nil {
				return fmt.Errorf("failed to register object %s: %w", obj.NameSingular, err)
			}
		}
		return nil
	}, applyRetries)
}

// =================================================================================
// Scanning
// =================================================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanObject(row rowScanner) (*models.ObjectMetadata, error) {
	var obj models.ObjectMetadata
	var standardID sql.NullString
	var capabilities []byte
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(
		&obj.ID, &obj.WorkspaceID, &standardID,
		&obj.NameSingular, &obj.NamePlural, &obj.LabelSingular, &obj.LabelPlural,
		&obj.IsCustom, &obj.IsSystem, &obj.IsActive, &capabilities,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	if standardID.Valid {
		obj.StandardID = models.StringPtr(standardID.String)
	}
	if err := unmarshalJSON(capabilities, &obj.Capabilities); err != nil {
		return nil, fmt.Errorf("invalid capabilities of object %s: %w", obj.ID, err)
	}
	obj.CreatedAt = timePtr(createdAt)
	obj.UpdatedAt = timePtr(updatedAt)
	return &obj, nil
}

func scanField(row rowScanner) (*models.FieldMetadata, error) {
	var f models.FieldMetadata
	var standardID, description, icon, genExpression, genStorage sql.NullString
	var defaultValue, options, settings, relation []byte
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(
		&f.ID, &f.WorkspaceID, &f.ObjectMetadataID, &standardID,
		&f.Name, &f.Type, &f.Label, &description, &icon,
		&defaultValue, &options, &settings,
		&f.IsNullable, &f.IsUnique, &f.IsCustom, &f.IsSystem, &f.IsActive,
		&genExpression, &genStorage, &relation,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	if standardID.Valid {
		f.StandardID = models.StringPtr(standardID.String)
	}
	f.Description = description.String
	f.Icon = icon.String

	if err := unmarshalJSON(defaultValue, &f.DefaultValue); err != nil {
		return nil, fmt.Errorf("invalid default value of field %s: %w", f.ID, err)
	}
	if err := unmarshalJSON(options, &f.Options); err != nil {
		return nil, fmt.Errorf("invalid options of field %s: %w", f.ID, err)
	}
	if err := unmarshalJSON(settings, &f.Settings); err != nil {
		return nil, fmt.Errorf("invalid settings of field %s: %w", f.ID, err)
	}
	if len(relation) > 0 {
		f.Relation = &models.RelationSettings{}
		if err := json.Unmarshal(relation, f.Relation); err != nil {
			return nil, fmt.Errorf("invalid relation of field %s: %w", f.ID, err)
		}
	}
	if genStorage.Valid {
		f.Generated = &models.GeneratedColumn{
			Expression:  genExpression.String,
			StorageMode: constants.StorageMode(genStorage.String),
		}
	}
	f.CreatedAt = timePtr(createdAt)
	f.UpdatedAt = timePtr(updatedAt)
	return &f, nil
}

// =================================================================================
// Helpers
// =================================================================================

type fieldColumnValues struct {
	defaultValue        interface{}
	options             interface{}
	settings            interface{}
	relation            interface{}
	generatedExpression interface{}
	generatedStorage    interface{}
}

func fieldValues(f *models.FieldMetadata) (*fieldColumnValues, error) {
	var v fieldColumnValues
	var err error
	if v.defaultValue, err = marshalJSON(f.DefaultValue); err != nil {
		return nil, fmt.Errorf("failed to encode default value of %s: %w", f.Name, err)
	}
	if len(f.Options) > 0 {
		if v.options, err = marshalJSON(f.Options); err != nil {
			return nil, fmt.Errorf("failed to encode options of %s: %w", f.Name, err)
		}
	}
	if len(f.Settings) > 0 {
		if v.settings, err = marshalJSON(f.Settings); err != nil {
			return nil, fmt.Errorf("failed to encode settings of %s: %w", f.Name, err)
		}
	}
	if f.Relation != nil {
		if v.relation, err = marshalJSON(f.Relation); err != nil {
			return nil, fmt.Errorf("failed to encode relation of %s: %w", f.Name, err)
		}
	}
	if f.Generated != nil {
		v.generatedExpression = f.Generated.Expression
		v.generatedStorage = string(f.Generated.Mode())
	}
	return &v, nil
}

// marshalJSON encodes v for a JSON column. nil becomes SQL NULL.
func marshalJSON(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return string(b), nil
}

func unmarshalJSON(data []byte, dest interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
