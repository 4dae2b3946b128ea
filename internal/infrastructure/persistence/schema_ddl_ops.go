package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	appErrors "github.com/nexuscrm/fieldsync/pkg/errors"
	"github.com/nexuscrm/fieldsync/pkg/expression"
	"github.com/nexuscrm/fieldsync/pkg/fieldtypes"
	"github.com/nexuscrm/fieldsync/pkg/utils"

	log "github.com/sirupsen/logrus"
)

// DDLExecutor applies migration plans to the physical tenant tables
type DDLExecutor struct {
	db    *sql.DB
	types *fieldtypes.Registry
}

// NewDDLExecutor creates a new DDLExecutor
func NewDDLExecutor(db *sql.DB) *DDLExecutor {
	return &DDLExecutor{db: db, types: fieldtypes.GetRegistry()}
}

// ExecuteMigrations runs the plan batch by batch. Re-running a plan that was
// partially applied is safe: drops of missing columns and adds of existing
// columns or keys are skipped.
func (e *DDLExecutor) ExecuteMigrations(ctx context.Context, workspaceID string, plan *models.MigrationPlan) error {
	statements, err := e.BuildStatements(workspaceID, plan)
	if err != nil {
		return appErrors.NewMigrationError(workspaceID, "", err)
	}

	logger := log.WithField("workspace", workspaceID)
	for _, stmt := range statements {
		if err := expression.ValidateDDL(stmt); err != nil {
			return appErrors.NewMigrationError(workspaceID, stmt, err)
		}
		logger.Debugf("📝 Executing DDL: %s", stmt)
		if _, err := e.db.ExecContext(ctx, stmt); err != nil {
			if isIdempotentDDLError(err) {
				logger.Printf("⚠️  Skipping already applied DDL: %s (%v)", stmt, err)
				continue
			}
			logger.Errorf("❌ DDL failed: %s: %v", stmt, err)
			return appErrors.NewMigrationError(workspaceID, stmt, err)
		}
	}

	if len(statements) > 0 {
		logger.Printf("✅ Executed %d DDL statement(s)", len(statements))
	}
	return nil
}

// EnsureWorkspaceSchema creates the tenant database and one table per object
func (e *DDLExecutor) EnsureWorkspaceSchema(ctx context.Context, workspaceID string, objectNames []string) error {
	statements := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", constants.WorkspaceSchemaName(workspaceID)),
	}
	for _, name := range objectNames {
		statements = append(statements, createTableDDL(workspaceID, name))
	}

	for _, stmt := range statements {
		if err := expression.ValidateDDL(stmt); err != nil {
			return appErrors.NewMigrationError(workspaceID, stmt, err)
		}
		if _, err := e.db.ExecContext(ctx, stmt); err != nil {
			return appErrors.NewMigrationError(workspaceID, stmt, err)
		}
	}
	log.WithField("workspace", workspaceID).Printf("📐 Workspace schema ready (%d tables)", len(objectNames))
	return nil
}

// BuildStatements renders the plan as DDL, in plan order
func (e *DDLExecutor) BuildStatements(workspaceID string, plan *models.MigrationPlan) ([]string, error) {
	if plan == nil {
		return nil, nil
	}

	var out []string
	ensured := make(map[string]bool)
	for _, batch := range plan.Batches {
		for _, m := range batch.Migrations {
			if m.ObjectName == "" {
				return nil, fmt.Errorf("migration of field %s has no object name", m.Field().ID)
			}
			table := tableRef(workspaceID, m.ObjectName)

			var stmts []string
			switch batch.Action {
			case constants.ActionDelete:
				stmts = e.dropStatements(table, m.Before)
			case constants.ActionUpdate:
				stmts = e.updateStatements(table, m.Before, m.After)
			case constants.ActionCreate:
				if !ensured[m.ObjectName] {
					ensured[m.ObjectName] = true
					out = append(out, createTableDDL(workspaceID, m.ObjectName))
				}
				stmts = e.addStatements(table, m.After)
			default:
				return nil, fmt.Errorf("unknown migration action %q", batch.Action)
			}
			out = append(out, stmts...)
		}
	}
	return out, nil
}

func (e *DDLExecutor) dropStatements(table string, f *models.FieldMetadata) []string {
	var out []string
	for _, col := range e.physicalColumns(f) {
		out = append(out, fmt.Sprintf("ALTER TABLE %s DROP COLUMN `%s`", table, col.Name))
	}
	return out
}

func (e *DDLExecutor) addStatements(table string, f *models.FieldMetadata) []string {
	var out []string
	cols := e.physicalColumns(f)
	for _, col := range cols {
		out = append(out, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, e.columnDDL(col, f, len(cols) > 1)))
	}
	if f.IsUnique && len(cols) == 1 {
		out = append(out, uniqueKeyDDL(table, cols[0].Name))
	}
	return out
}

func (e *DDLExecutor) updateStatements(table string, before, after *models.FieldMetadata) []string {
	oldCols := e.physicalColumns(before)
	newCols := e.physicalColumns(after)

	// A different column layout or a switch between STORED and VIRTUAL cannot be altered in place
	if len(oldCols) != len(newCols) || before.Type != after.Type || storageChanged(before, after) {
		return append(e.dropStatements(table, before), e.addStatements(table, after)...)
	}

	var out []string
	composite := len(newCols) > 1
	renamed := before.Name != after.Name
	for i, col := range newCols {
		if renamed {
			out = append(out, fmt.Sprintf("ALTER TABLE %s CHANGE COLUMN `%s` %s", table, oldCols[i].Name, e.columnDDL(col, after, composite)))
			continue
		}
		if columnShapeChanged(before, after) {
			out = append(out, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", table, e.columnDDL(col, after, composite)))
		}
	}

	if len(newCols) == 1 && (before.IsUnique != after.IsUnique || (renamed && after.IsUnique)) {
		if before.IsUnique {
			out = append(out, fmt.Sprintf("ALTER TABLE %s DROP INDEX `%s`", table, uniqueKeyName(oldCols[0].Name)))
		}
		if after.IsUnique {
			out = append(out, uniqueKeyDDL(table, newCols[0].Name))
		}
	}
	return out
}

// physicalColumns returns the columns backing a field; the primary key column is owned by the table
func (e *DDLExecutor) physicalColumns(f *models.FieldMetadata) []fieldtypes.Column {
	if f == nil {
		return nil
	}
	var out []fieldtypes.Column
	for _, col := range e.types.Columns(f.Name, f.Type) {
		if col.Name == constants.ColumnID {
			continue
		}
		out = append(out, col)
	}
	return out
}

func (e *DDLExecutor) columnDDL(col fieldtypes.Column, f *models.FieldMetadata, composite bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "`%s` %s", col.Name, col.SQLType)
	if f.Generated != nil {
		fmt.Fprintf(&b, " GENERATED ALWAYS AS (%s) %s", f.Generated.Expression, f.Generated.Mode())
		return b.String()
	}
	if f.IsNullable || composite {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	return b.String()
}

func storageChanged(before, after *models.FieldMetadata) bool {
	if (before.Generated == nil) != (after.Generated == nil) {
		return true
	}
	return before.Generated != nil && before.Generated.Mode() != after.Generated.Mode()
}

func columnShapeChanged(before, after *models.FieldMetadata) bool {
	if before.IsNullable != after.IsNullable {
		return true
	}
	if before.Generated != nil && after.Generated != nil {
		return before.Generated.Expression != after.Generated.Expression
	}
	return false
}

func tableRef(workspaceID, objectName string) string {
	return fmt.Sprintf("`%s`.`%s`", constants.WorkspaceSchemaName(workspaceID), utils.ToSnakeCase(objectName))
}

func createTableDDL(workspaceID, objectName string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (`%s` CHAR(36) NOT NULL PRIMARY KEY) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci",
		tableRef(workspaceID, objectName), constants.ColumnID)
}

func uniqueKeyName(column string) string {
	return "uk_" + column
}

func uniqueKeyDDL(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD UNIQUE KEY `%s` (`%s`)", table, uniqueKeyName(column), column)
}

// isIdempotentDDLError reports errors a re-run of an applied statement produces
func isIdempotentDDLError(err error) bool {
	switch mysqlErrorNumber(err) {
	case errDupFieldName, errDupKeyName, errCantDropField:
		return true
	}
	return false
}
