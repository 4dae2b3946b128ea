package constants

import "strings"

// SystemTablePrefix is the prefix for all metadata tables
const SystemTablePrefix = "_System_"

// Metadata tables
const (
	TableObject      = "_System_Object"
	TableField       = "_System_Field"
	TableFeatureFlag = "_System_FeatureFlag"
	TableWorkspace   = "_System_Workspace"
)

// WorkspaceSchemaPrefix prefixes the per-workspace database holding tenant data tables
const WorkspaceSchemaPrefix = "ws_"

// IsSystemTable checks if a table name is a metadata table
func IsSystemTable(tableName string) bool {
	return strings.HasPrefix(tableName, SystemTablePrefix)
}

// WorkspaceSchemaName returns the physical database name of a workspace
func WorkspaceSchemaName(workspaceID string) string {
	return WorkspaceSchemaPrefix + strings.ReplaceAll(strings.ToLower(workspaceID), "-", "")
}
