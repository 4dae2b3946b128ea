package compiler

import (
	"github.com/nexuscrm/fieldsync/internal/domain/definition"
	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	appErrors "github.com/nexuscrm/fieldsync/pkg/errors"

	log "github.com/sirupsen/logrus"
)

// ReferenceSnapshot is the read-only view of the reference workspace used by
// re-projection
type ReferenceSnapshot struct {
	WorkspaceID  string
	objects      []models.ObjectMetadata
	objectsByID  map[string]*models.ObjectMetadata
	fieldsByID   map[string]*models.FieldMetadata
	byStandardID map[string]*models.ObjectMetadata
}

// NewReferenceSnapshot indexes the reference workspace's objects
func NewReferenceSnapshot(workspaceID string, objects []models.ObjectMetadata) *ReferenceSnapshot {
	s := &ReferenceSnapshot{
		WorkspaceID:  workspaceID,
		objects:      objects,
		objectsByID:  make(map[string]*models.ObjectMetadata, len(objects)),
		fieldsByID:   make(map[string]*models.FieldMetadata),
		byStandardID: make(map[string]*models.ObjectMetadata),
	}
	for i := range objects {
		obj := &objects[i]
		s.objectsByID[obj.ID] = obj
		if obj.IsStandard() {
			s.byStandardID[obj.GetStandardID()] = obj
		}
		for j := range obj.Fields {
			s.fieldsByID[obj.Fields[j].ID] = &obj.Fields[j]
		}
	}
	return s
}

// ObjectByStandardID returns the reference's standard object with that id
func (s *ReferenceSnapshot) ObjectByStandardID(standardID string) (*models.ObjectMetadata, bool) {
	obj, ok := s.byStandardID[standardID]
	return obj, ok
}

// ObjectEligible reports whether a reference object may be projected at all
func ObjectEligible(obj *models.ObjectMetadata) bool {
	return obj != nil && obj.IsStandard() && obj.IsActive
}

func rowEligible(row *models.FieldMetadata) bool {
	return row != nil && row.IsStandard() && row.IsActive
}

// ReprojectObject compiles the target specs of one standard object from the
// reference workspace's persisted rows, re-stamped for the requesting
// workspace. def may be nil when the object is no longer declared in code.
func (c *Compiler) ReprojectObject(ctx *Context, ref *ReferenceSnapshot, refObject *models.ObjectMetadata, objectID string, def *definition.ObjectDefinition) (*ObjectTarget, error) {
	if !ObjectEligible(refObject) {
		return nil, appErrors.NewValidationError("object", "reference object is not an active standard object")
	}
	isSystem := refObject.IsSystem
	if def != nil {
		isSystem = def.IsSystem
	}
	target := newObjectTarget(objectID, isSystem)
	logger := log.WithFields(log.Fields{
		"workspace": ctx.WorkspaceID,
		"reference": ref.WorkspaceID,
		"object":    refObject.NameSingular,
	})

	if def != nil && !ctx.Flags.GateOpen(def.Gate) {
		suppressObject(target, def)
		for _, row := range refObject.Fields {
			target.suppress(row.GetStandardID())
		}
		return target, nil
	}

	eligible := c.eligibleRows(ref, refObject, logger)

	present := make(map[string]bool)
	var candidates []*models.FieldMetadata
	for i := range refObject.Fields {
		row := &refObject.Fields[i]
		sid := row.GetStandardID()
		if c.registry.IsDynamicRelationID(sid) {
			continue
		}
		if !eligible[row.ID] {
			target.suppress(sid)
			continue
		}
		if gates, known := c.registry.GatesFor(sid); known && !ctx.Flags.GatesOpen(gates) {
			target.suppress(sid)
			continue
		}
		present[row.Name] = true
		candidates = append(candidates, row)
	}

	orphaned := unprovisionedJoinColumns(ctx, ref, candidates)
	for name := range orphaned {
		delete(present, name)
	}

	for _, row := range candidates {
		if orphaned[row.Name] {
			logger.Debugf("⏭️  Skipping %s: its relation target object is not provisioned yet", row.Name)
			target.suppress(row.GetStandardID())
			continue
		}
		spec, ok := c.projectRow(ctx, ref, row, objectID, def, present, logger)
		if !ok {
			target.suppress(row.GetStandardID())
			continue
		}
		target.Specs = append(target.Specs, spec)
	}

	if def != nil {
		if err := c.compileDynamic(ctx, def, target); err != nil {
			return nil, err
		}
	}
	return target, c.finish(target)
}

// eligibleRows computes the projectable rows of a reference object: standard
// and active rows whose relation target object and field are standard and
// active, and whose generated expression only references projectable rows,
// transitively.
func (c *Compiler) eligibleRows(ref *ReferenceSnapshot, refObject *models.ObjectMetadata, logger *log.Entry) map[string]bool {
	eligible := make(map[string]bool, len(refObject.Fields))
	owners := make(map[string]string)
	for i := range refObject.Fields {
		row := &refObject.Fields[i]
		for _, col := range c.types.Columns(row.Name, row.Type) {
			owners[col.Name] = row.ID
		}
		if !rowEligible(row) {
			logger.Debugf("⏭️  Skipping %s: not an active standard field", row.Name)
			continue
		}
		if row.Relation != nil {
			targetObj := ref.objectsByID[row.Relation.TargetObjectMetadataID]
			if !ObjectEligible(targetObj) {
				logger.Debugf("⏭️  Skipping %s: relation target object is not an active standard object", row.Name)
				continue
			}
			if row.Relation.TargetFieldMetadataID != "" && !rowEligible(ref.fieldsByID[row.Relation.TargetFieldMetadataID]) {
				logger.Debugf("⏭️  Skipping %s: relation target field is not an active standard field", row.Name)
				continue
			}
		}
		eligible[row.ID] = true
	}

	// A relation and its join column are projected together or not at all.
	for i := range refObject.Fields {
		row := &refObject.Fields[i]
		if row.Relation == nil || row.Relation.JoinColumnName == "" {
			continue
		}
		fk := joinColumnRow(refObject, row.Relation.JoinColumnName)
		if fk == nil || (eligible[row.ID] && eligible[fk.ID]) {
			continue
		}
		if eligible[row.ID] || eligible[fk.ID] {
			logger.Debugf("⏭️  Skipping %s and %s: relation and join column are not both projectable", row.Name, fk.Name)
		}
		eligible[row.ID] = false
		eligible[fk.ID] = false
	}

	for changed := true; changed; {
		changed = false
		for i := range refObject.Fields {
			row := &refObject.Fields[i]
			if !eligible[row.ID] || row.Generated == nil || row.Generated.Expression == "" {
				continue
			}
			spec := models.FieldSpec{Name: row.Name, Generated: row.Generated}
			refs, err := specRefs(&spec)
			if err != nil {
				logger.Warnf("⚠️  Skipping %s: %v", row.Name, err)
				eligible[row.ID] = false
				changed = true
				continue
			}
			for _, r := range refs {
				if r == constants.ColumnID {
					continue
				}
				if owner, ok := owners[r]; !ok || !eligible[owner] {
					logger.Debugf("⏭️  Skipping %s: references non-projectable column %s", row.Name, r)
					eligible[row.ID] = false
					changed = true
					break
				}
			}
		}
	}
	return eligible
}

func joinColumnRow(obj *models.ObjectMetadata, name string) *models.FieldMetadata {
	for i := range obj.Fields {
		if obj.Fields[i].Name == name && obj.Fields[i].Relation == nil {
			return &obj.Fields[i]
		}
	}
	return nil
}

// unprovisionedJoinColumns returns the join column names of the candidate
// relations whose target object does not exist in the requesting workspace
func unprovisionedJoinColumns(ctx *Context, ref *ReferenceSnapshot, candidates []*models.FieldMetadata) map[string]bool {
	orphaned := make(map[string]bool)
	for _, row := range candidates {
		if row.Relation == nil || row.Relation.JoinColumnName == "" {
			continue
		}
		refTarget := ref.objectsByID[row.Relation.TargetObjectMetadataID]
		if refTarget == nil {
			continue
		}
		if _, ok := ctx.ObjectIDByStandardID(refTarget.GetStandardID()); !ok {
			orphaned[row.Relation.JoinColumnName] = true
		}
	}
	return orphaned
}

// projectRow strips a reference row of its identity and re-stamps it for the
// requesting workspace
func (c *Compiler) projectRow(ctx *Context, ref *ReferenceSnapshot, row *models.FieldMetadata, objectID string, def *definition.ObjectDefinition, present map[string]bool, logger *log.Entry) (models.FieldSpec, bool) {
	spec := models.FieldSpec{
		StandardID:       row.GetStandardID(),
		WorkspaceID:      ctx.WorkspaceID,
		ObjectMetadataID: objectID,
		Name:             row.Name,
		Type:             row.Type,
		Label:            row.Label,
		Description:      row.Description,
		Icon:             row.Icon,
		DefaultValue:     row.DefaultValue,
		Options:          row.Options,
		Settings:         row.Settings,
		IsNullable:       row.IsNullable,
		IsUnique:         row.IsUnique,
		IsSystem:         row.IsSystem,
		IsActive:         row.IsActive,
	}

	if row.Generated != nil {
		g := models.GeneratedColumn{Expression: row.Generated.Expression, StorageMode: row.Generated.Mode()}
		if g.Expression == "" {
			if def == nil {
				logger.Warnf("⚠️  Skipping %s: search vector without expression and no code definition", row.Name)
				return spec, false
			}
			g.Expression = SearchExpression(c.types, def.SearchableFields, func(name string) bool { return present[name] })
		}
		spec.Generated = &g
	}

	if row.Relation != nil {
		refTarget := ref.objectsByID[row.Relation.TargetObjectMetadataID]
		targetID, ok := ctx.ObjectIDByStandardID(refTarget.GetStandardID())
		if !ok {
			logger.Debugf("⏭️  Relation %s: target object not provisioned yet", row.Name)
			return spec, false
		}
		spec.Relation = &models.RelationSettings{
			Cardinality:            row.Relation.Cardinality,
			TargetObjectMetadataID: targetID,
			JoinColumnName:         row.Relation.JoinColumnName,
			OnDelete:               row.Relation.OnDelete,
		}
	}
	return spec, true
}
