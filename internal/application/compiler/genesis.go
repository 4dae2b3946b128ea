package compiler

import (
	"github.com/nexuscrm/fieldsync/internal/domain/definition"
	"github.com/nexuscrm/fieldsync/internal/domain/models"

	log "github.com/sirupsen/logrus"
)

// CompileObject compiles the target specs of one standard object from its
// code definition. objectID is the workspace's id for that object.
func (c *Compiler) CompileObject(ctx *Context, def *definition.ObjectDefinition, objectID string) (*ObjectTarget, error) {
	target := newObjectTarget(objectID, def.IsSystem)

	if !ctx.Flags.GateOpen(def.Gate) {
		log.WithFields(log.Fields{"workspace": ctx.WorkspaceID, "object": def.NameSingular}).
			Debugf("🚧 Object %s is gated off by %s", def.NameSingular, def.Gate)
		suppressObject(target, def)
		return target, nil
	}

	present := make(map[string]bool, len(def.Fields))
	for i := range def.Fields {
		f := &def.Fields[i]
		if !ctx.Flags.GateOpen(f.Gate) {
			target.suppress(f.StandardID)
			continue
		}
		present[f.Name] = true
	}

	for i := range def.Fields {
		f := &def.Fields[i]
		if !present[f.Name] {
			continue
		}
		spec := fieldSpec(ctx.WorkspaceID, objectID, f)
		if spec.Generated != nil && spec.Generated.Expression == "" {
			spec.Generated.Expression = SearchExpression(c.types, def.SearchableFields, func(name string) bool { return present[name] })
		}
		target.Specs = append(target.Specs, spec)
	}

	for i := range def.Relations {
		rel := &def.Relations[i]
		shape, err := rel.Shape()
		if err != nil {
			return nil, err
		}
		if !ctx.Flags.GateOpen(rel.Gate) {
			target.suppress(shape.StandardID, shape.JoinColumnStandardID)
			continue
		}
		targetID, ok := ctx.ObjectIDByStandardID(rel.TargetObject)
		if !ok {
			log.WithFields(log.Fields{"workspace": ctx.WorkspaceID, "object": def.NameSingular, "relation": rel.Name}).
				Debugf("⏭️  Relation %s.%s: target object not provisioned yet", def.NameSingular, rel.Name)
			target.suppress(shape.StandardID, shape.JoinColumnStandardID)
			continue
		}
		target.Specs = append(target.Specs, c.fanOut(ctx.WorkspaceID, target, shape, targetID)...)
	}

	if err := c.compileDynamic(ctx, def, target); err != nil {
		return nil, err
	}

	return target, c.finish(target)
}

// finish drops unresolvable generated fields and orders the specs
func (c *Compiler) finish(target *ObjectTarget) error {
	if err := pruneUnresolved(c.types, target); err != nil {
		return err
	}
	ordered, err := OrderSpecs(c.types, target.Specs)
	if err != nil {
		return err
	}
	target.Specs = ordered
	return nil
}

func suppressObject(target *ObjectTarget, def *definition.ObjectDefinition) {
	for _, f := range def.Fields {
		target.suppress(f.StandardID)
	}
	for i := range def.Relations {
		fkID, _ := def.Relations[i].JoinColumnID()
		target.suppress(def.Relations[i].StandardID, fkID)
	}
	for i := range def.DynamicRelations {
		fkID, _ := def.DynamicRelations[i].JoinColumnID()
		target.suppress(def.DynamicRelations[i].StandardID, fkID)
	}
}

func fieldSpec(workspaceID, objectID string, f *definition.FieldDefinition) models.FieldSpec {
	spec := models.FieldSpec{
		StandardID:       f.StandardID,
		WorkspaceID:      workspaceID,
		ObjectMetadataID: objectID,
		Name:             f.Name,
		Type:             f.Type,
		Label:            f.Label,
		Description:      f.Description,
		Icon:             f.Icon,
		DefaultValue:     f.DefaultValue,
		Options:          f.Options,
		Settings:         f.Settings,
		IsNullable:       f.IsNullable,
		IsUnique:         f.IsUnique,
		IsSystem:         f.IsSystem,
		IsActive:         f.Active(),
	}
	if f.Generated != nil {
		spec.Generated = &models.GeneratedColumn{
			Expression:  f.Generated.Expression,
			StorageMode: f.Generated.Mode(),
		}
	}
	return spec
}
