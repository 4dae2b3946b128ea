package models

import (
	"time"

	"github.com/nexuscrm/fieldsync/pkg/constants"
)

// GeneratedColumn describes a database-computed column
type GeneratedColumn struct {
	Expression  string                `json:"expression,omitempty"`
	StorageMode constants.StorageMode `json:"storage_mode,omitempty"`
}

// Mode returns the storage mode, defaulting to STORED
func (g *GeneratedColumn) Mode() constants.StorageMode {
	if g == nil || g.StorageMode == "" {
		return constants.StorageModeStored
	}
	return g.StorageMode
}

// FieldOption is one choice of a SELECT or MULTI_SELECT field
type FieldOption struct {
	ID       string `json:"id,omitempty"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	Color    string `json:"color,omitempty"`
	Position int    `json:"position"`
}

// RelationSettings holds the relation-specific attributes of a RELATION field
type RelationSettings struct {
	Cardinality            constants.RelationCardinality `json:"cardinality"`
	TargetObjectMetadataID string                        `json:"target_object_metadata_id,omitempty"`
	TargetFieldMetadataID  string                        `json:"target_field_metadata_id,omitempty"`
	JoinColumnName         string                        `json:"join_column_name,omitempty"`
	OnDelete               constants.OnDeleteAction      `json:"on_delete,omitempty"`
}

// ObjectMetadata is a persisted object row of one workspace
type ObjectMetadata struct {
	ID            string          `json:"id"`
	WorkspaceID   string          `json:"workspace_id"`
	StandardID    *string         `json:"standard_id,omitempty"`
	NameSingular  string          `json:"name_singular"`
	NamePlural    string          `json:"name_plural"`
	LabelSingular string          `json:"label_singular"`
	LabelPlural   string          `json:"label_plural"`
	IsCustom      bool            `json:"is_custom"`
	IsSystem      bool            `json:"is_system"`
	IsActive      bool            `json:"is_active"`
	Capabilities  []string        `json:"capabilities,omitempty"`
	Fields        []FieldMetadata `json:"fields,omitempty"`
	CreatedAt     *time.Time      `json:"created_at,omitempty"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

// IsStandard reports whether the object comes from the code definitions
func (o *ObjectMetadata) IsStandard() bool {
	return !o.IsCustom && o.StandardID != nil && *o.StandardID != ""
}

// GetStandardID returns the standard id or the empty string
func (o *ObjectMetadata) GetStandardID() string {
	if o.StandardID == nil {
		return ""
	}
	return *o.StandardID
}

// HasCapability reports whether the object declares a capability
func (o *ObjectMetadata) HasCapability(capability string) bool {
	for _, c := range o.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// FieldMetadata is a persisted field row of one workspace
type FieldMetadata struct {
	ID               string                 `json:"id"`
	WorkspaceID      string                 `json:"workspace_id"`
	ObjectMetadataID string                 `json:"object_metadata_id"`
	StandardID       *string                `json:"standard_id,omitempty"`
	Name             string                 `json:"name"`
	Type             constants.FieldType    `json:"type"`
	Label            string                 `json:"label"`
	Description      string                 `json:"description,omitempty"`
	Icon             string                 `json:"icon,omitempty"`
	DefaultValue     interface{}            `json:"default_value,omitempty"`
	Options          []FieldOption          `json:"options,omitempty"`
	Settings         map[string]interface{} `json:"settings,omitempty"`
	IsNullable       bool                   `json:"is_nullable"`
	IsUnique         bool                   `json:"is_unique"`
	IsCustom         bool                   `json:"is_custom"`
	IsSystem         bool                   `json:"is_system"`
	IsActive         bool                   `json:"is_active"`
	Generated        *GeneratedColumn       `json:"generated,omitempty"`
	Relation         *RelationSettings      `json:"relation,omitempty"`
	CreatedAt        *time.Time             `json:"created_at,omitempty"`
	UpdatedAt        *time.Time             `json:"updated_at,omitempty"`
}

// GetStandardID returns the standard id or the empty string
func (f *FieldMetadata) GetStandardID() string {
	if f.StandardID == nil {
		return ""
	}
	return *f.StandardID
}

// IsStandard reports whether the row is owned by the reconciliation engine
func (f *FieldMetadata) IsStandard() bool {
	return !f.IsCustom && f.GetStandardID() != ""
}

// StringPtr returns a pointer to a copy of s
func StringPtr(s string) *string {
	return &s
}
