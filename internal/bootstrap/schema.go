package bootstrap

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

//go:embed system_tables.sql
var systemTablesSQL string

// SystemTableStatements returns the CREATE TABLE statements of the metadata tables
func SystemTableStatements() []string {
	var out []string
	for _, stmt := range strings.Split(systemTablesSQL, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// InitializeSchema creates the metadata tables if they do not exist
func InitializeSchema(ctx context.Context, db *sql.DB) error {
	log.Println("🔧 Initializing metadata schema...")
	for _, stmt := range SystemTableStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create metadata table: %w", err)
		}
	}
	log.Println("✅ Metadata schema ready")
	return nil
}
