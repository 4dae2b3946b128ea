package compiler

import (
	"fmt"

	"github.com/nexuscrm/fieldsync/internal/domain/definition"
	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	appErrors "github.com/nexuscrm/fieldsync/pkg/errors"

	log "github.com/sirupsen/logrus"
)

// fanOut expands a relation into its field specs: the foreign-key scalar when
// the relation owns a join column, then the relation field itself.
func (c *Compiler) fanOut(workspaceID string, target *ObjectTarget, shape models.RelationShape, targetObjectID string) []models.FieldSpec {
	var specs []models.FieldSpec
	if shape.JoinColumnName != "" {
		specs = append(specs, models.FieldSpec{
			StandardID:       shape.JoinColumnStandardID,
			WorkspaceID:      workspaceID,
			ObjectMetadataID: target.ObjectMetadataID,
			Name:             shape.JoinColumnName,
			Type:             constants.FieldTypeUUID,
			Label:            fmt.Sprintf("%s id (foreign key)", shape.Label),
			Description:      fmt.Sprintf("%s id foreign key", shape.Label),
			Icon:             shape.Icon,
			IsNullable:       shape.IsNullable,
			IsUnique:         shape.Cardinality == constants.RelationOneToOne,
			IsSystem:         true,
			IsActive:         true,
		})
	}

	specs = append(specs, models.FieldSpec{
		StandardID:       shape.StandardID,
		WorkspaceID:      workspaceID,
		ObjectMetadataID: target.ObjectMetadataID,
		Name:             shape.Name,
		Type:             constants.FieldTypeRelation,
		Label:            shape.Label,
		Description:      shape.Description,
		Icon:             shape.Icon,
		IsNullable:       shape.IsNullable,
		IsSystem:         target.ObjectIsSystem || shape.IsSystem,
		IsActive:         true,
		Relation: &models.RelationSettings{
			Cardinality:            shape.Cardinality,
			TargetObjectMetadataID: targetObjectID,
			JoinColumnName:         shape.JoinColumnName,
			OnDelete:               shape.OnDelete,
		},
	})
	return specs
}

// compileDynamic resolves the dynamic relations of an object against the
// workspace's custom objects. Gated-off relations are suppressed; the others
// become resolved or deferred specs for Finalize.
func (c *Compiler) compileDynamic(ctx *Context, def *definition.ObjectDefinition, target *ObjectTarget) error {
	for i := range def.DynamicRelations {
		dyn := &def.DynamicRelations[i]
		shape, err := dyn.Shape()
		if err != nil {
			return err
		}
		if !ctx.Flags.GateOpen(dyn.Gate) {
			target.suppress(shape.StandardID, shape.JoinColumnStandardID)
			continue
		}

		resolver, ok := c.resolvers.Get(dyn.Resolver.Name)
		if !ok {
			return appErrors.NewConfigurationError(
				fmt.Sprintf("object %s dynamic relation %s", def.NameSingular, dyn.Name),
				fmt.Sprintf("unknown resolver %q", dyn.Resolver.Name))
		}
		resolved, found, err := resolver.Resolve(dyn, ctx.CustomObjects())
		if err != nil {
			return appErrors.NewConfigurationError(
				fmt.Sprintf("object %s dynamic relation %s", def.NameSingular, dyn.Name), err.Error())
		}
		if !found {
			target.Dynamic = append(target.Dynamic, models.DeferredRelationSpec{
				Relation: shape,
				Reason:   fmt.Sprintf("resolver %s found no target", dyn.Resolver.Name),
			})
			continue
		}
		target.Dynamic = append(target.Dynamic, models.ResolvedRelationSpec{Relation: shape, Target: *resolved})
	}
	return nil
}

// Finalize turns resolved dynamic relations into field specs and suppresses
// deferred ones, then re-orders the object's specs.
func (c *Compiler) Finalize(ctx *Context, target *ObjectTarget) error {
	for _, dyn := range target.Dynamic {
		switch d := dyn.(type) {
		case models.ResolvedRelationSpec:
			target.Specs = append(target.Specs, c.fanOut(ctx.WorkspaceID, target, d.Relation, d.Target.ID)...)
		case models.DeferredRelationSpec:
			log.WithFields(log.Fields{
				"workspace": ctx.WorkspaceID,
				"object":    target.ObjectMetadataID,
				"relation":  d.Relation.Name,
			}).Infof("⏳ Deferring dynamic relation %s: %s", d.Relation.Name, d.Reason)
			target.suppress(d.Relation.StandardID, d.Relation.JoinColumnStandardID)
		}
	}
	target.Dynamic = nil
	return c.finish(target)
}
