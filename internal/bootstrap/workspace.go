package bootstrap

import (
	"context"
	"fmt"

	"github.com/nexuscrm/fieldsync/internal/domain/definition"
	"github.com/nexuscrm/fieldsync/internal/domain/models"

	log "github.com/sirupsen/logrus"
)

// WorkspaceRegistrar registers a workspace and its object rows
type WorkspaceRegistrar interface {
	EnsureWorkspace(ctx context.Context, workspaceID string, objects []models.ObjectMetadata) error
}

// SchemaProvisioner creates the physical tables of a workspace
type SchemaProvisioner interface {
	EnsureWorkspaceSchema(ctx context.Context, workspaceID string, objectNames []string) error
}

// StandardObjects returns the object rows of every standard object definition.
// Field rows are left to the first reconciliation pass.
func StandardObjects(registry *definition.Registry) []models.ObjectMetadata {
	defs := registry.Objects()
	out := make([]models.ObjectMetadata, 0, len(defs))
	for _, def := range defs {
		out = append(out, models.ObjectMetadata{
			StandardID:    models.StringPtr(def.StandardID),
			NameSingular:  def.NameSingular,
			NamePlural:    def.NamePlural,
			LabelSingular: def.LabelSingular,
			LabelPlural:   def.LabelPlural,
			IsSystem:      def.IsSystem,
			IsActive:      true,
		})
	}
	return out
}

// ProvisionWorkspace registers a workspace with the standard objects and creates its tables
func ProvisionWorkspace(ctx context.Context, registrar WorkspaceRegistrar, schema SchemaProvisioner, registry *definition.Registry, workspaceID string) error {
	objects := StandardObjects(registry)
	if err := registrar.EnsureWorkspace(ctx, workspaceID, objects); err != nil {
		return fmt.Errorf("failed to register workspace %s: %w", workspaceID, err)
	}

	names := make([]string, 0, len(objects))
	for _, obj := range objects {
		names = append(names, obj.NameSingular)
	}
	if err := schema.EnsureWorkspaceSchema(ctx, workspaceID, names); err != nil {
		return fmt.Errorf("failed to create schema of workspace %s: %w", workspaceID, err)
	}

	log.WithField("workspace", workspaceID).Printf("🏗️  Workspace provisioned with %d standard objects", len(objects))
	return nil
}
