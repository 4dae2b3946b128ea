package models

import (
	"github.com/nexuscrm/fieldsync/pkg/constants"
)

// FieldSpec is the compiled target state of one field for one workspace.
// It carries no row identity and no timestamps.
type FieldSpec struct {
	StandardID       string
	WorkspaceID      string
	ObjectMetadataID string
	Name             string
	Type             constants.FieldType
	Label            string
	Description      string
	Icon             string
	DefaultValue     interface{}
	Options          []FieldOption
	Settings         map[string]interface{}
	IsNullable       bool
	IsUnique         bool
	IsSystem         bool
	IsActive         bool
	Generated        *GeneratedColumn
	Relation         *RelationSettings
}

// IsGenerated reports whether the field is computed by the database
func (s *FieldSpec) IsGenerated() bool {
	return s.Generated != nil
}

// ToFieldMetadata builds an unsaved standard row from the spec
func (s *FieldSpec) ToFieldMetadata() FieldMetadata {
	f := FieldMetadata{
		WorkspaceID:      s.WorkspaceID,
		ObjectMetadataID: s.ObjectMetadataID,
		StandardID:       StringPtr(s.StandardID),
		Name:             s.Name,
		Type:             s.Type,
		Label:            s.Label,
		Description:      s.Description,
		Icon:             s.Icon,
		DefaultValue:     s.DefaultValue,
		Options:          s.Options,
		Settings:         s.Settings,
		IsNullable:       s.IsNullable,
		IsUnique:         s.IsUnique,
		IsCustom:         false,
		IsSystem:         s.IsSystem,
		IsActive:         s.IsActive,
	}
	if s.Generated != nil {
		g := *s.Generated
		f.Generated = &g
	}
	if s.Relation != nil {
		r := *s.Relation
		f.Relation = &r
	}
	return f
}

// RelationShape is the descriptive part of a relation, independent of its target
type RelationShape struct {
	StandardID           string
	Name                 string
	Label                string
	Description          string
	Icon                 string
	Cardinality          constants.RelationCardinality
	JoinColumnName       string
	JoinColumnStandardID string
	IsNullable           bool
	IsSystem             bool
	OnDelete             constants.OnDeleteAction
}

// DynamicRelationSpec is the compiled outcome of a dynamic relation:
// either a ResolvedRelationSpec or a DeferredRelationSpec.
type DynamicRelationSpec interface {
	Shape() RelationShape
	isDynamicRelationSpec()
}

// ResolvedRelationSpec is a dynamic relation whose target was found
type ResolvedRelationSpec struct {
	Relation RelationShape
	Target   ObjectMetadata
}

func (r ResolvedRelationSpec) Shape() RelationShape { return r.Relation }
func (ResolvedRelationSpec) isDynamicRelationSpec() {}

// DeferredRelationSpec is a dynamic relation whose target does not exist yet.
// It produces no field and is retried on the next pass.
type DeferredRelationSpec struct {
	Relation RelationShape
	Reason   string
}

func (d DeferredRelationSpec) Shape() RelationShape { return d.Relation }
func (DeferredRelationSpec) isDynamicRelationSpec() {}
