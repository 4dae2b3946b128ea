package definition

import (
	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	"github.com/nexuscrm/fieldsync/pkg/utils"
)

// FieldDefinition is a code-level scalar field of a standard object
type FieldDefinition struct {
	StandardID   string                  `json:"standard_id"`
	Name         string                  `json:"name"`
	Type         constants.FieldType     `json:"type"`
	Label        string                  `json:"label"`
	Description  string                  `json:"description,omitempty"`
	Icon         string                  `json:"icon,omitempty"`
	DefaultValue interface{}             `json:"default_value,omitempty"`
	Options      []models.FieldOption    `json:"options,omitempty"`
	Settings     map[string]interface{}  `json:"settings,omitempty"`
	IsNullable   bool                    `json:"is_nullable,omitempty"`
	IsUnique     bool                    `json:"is_unique,omitempty"`
	IsSystem     bool                    `json:"is_system,omitempty"`
	IsActive     *bool                   `json:"is_active,omitempty"`
	Gate         string                  `json:"gate,omitempty"`
	Generated    *models.GeneratedColumn `json:"generated,omitempty"`
}

// Active returns the declared active state, true when unset
func (f *FieldDefinition) Active() bool {
	return f.IsActive == nil || *f.IsActive
}

// RelationDefinition is a code-level relation to another standard object
type RelationDefinition struct {
	StandardID           string                        `json:"standard_id"`
	Name                 string                        `json:"name"`
	Label                string                        `json:"label"`
	Description          string                        `json:"description,omitempty"`
	Icon                 string                        `json:"icon,omitempty"`
	Cardinality          constants.RelationCardinality `json:"cardinality"`
	TargetObject         string                        `json:"target_object"`
	JoinColumnName       string                        `json:"join_column_name,omitempty"`
	JoinColumnStandardID string                        `json:"join_column_standard_id,omitempty"`
	IsNullable           bool                          `json:"is_nullable,omitempty"`
	IsSystem             bool                          `json:"is_system,omitempty"`
	Gate                 string                        `json:"gate,omitempty"`
	OnDelete             constants.OnDeleteAction      `json:"on_delete,omitempty"`
}

// JoinColumnID returns the standard id of the foreign-key scalar, or "" when
// the relation has no join column.
func (r *RelationDefinition) JoinColumnID() (string, error) {
	return joinColumnID(r.StandardID, r.JoinColumnStandardID, r.JoinColumnName)
}

// Shape returns the target-independent part of the relation
func (r *RelationDefinition) Shape() (models.RelationShape, error) {
	fkID, err := r.JoinColumnID()
	if err != nil {
		return models.RelationShape{}, err
	}
	return models.RelationShape{
		StandardID:           r.StandardID,
		Name:                 r.Name,
		Label:                r.Label,
		Description:          r.Description,
		Icon:                 r.Icon,
		Cardinality:          r.Cardinality,
		JoinColumnName:       r.JoinColumnName,
		JoinColumnStandardID: fkID,
		IsNullable:           r.IsNullable,
		IsSystem:             r.IsSystem,
		OnDelete:             r.OnDelete,
	}, nil
}

// ResolverRef names the resolver of a dynamic relation and its arguments
type ResolverRef struct {
	Name string            `json:"name"`
	Args map[string]string `json:"args,omitempty"`
}

// DynamicRelationDefinition is a relation whose target object is only known
// per workspace, once a resolver finds it among the custom objects.
type DynamicRelationDefinition struct {
	StandardID           string                        `json:"standard_id"`
	Name                 string                        `json:"name"`
	Label                string                        `json:"label"`
	Description          string                        `json:"description,omitempty"`
	Icon                 string                        `json:"icon,omitempty"`
	Cardinality          constants.RelationCardinality `json:"cardinality"`
	Resolver             ResolverRef                   `json:"resolver"`
	JoinColumnName       string                        `json:"join_column_name,omitempty"`
	JoinColumnStandardID string                        `json:"join_column_standard_id,omitempty"`
	IsNullable           bool                          `json:"is_nullable,omitempty"`
	IsSystem             bool                          `json:"is_system,omitempty"`
	Gate                 string                        `json:"gate,omitempty"`
	OnDelete             constants.OnDeleteAction      `json:"on_delete,omitempty"`
}

// JoinColumnID returns the standard id of the foreign-key scalar, or ""
func (d *DynamicRelationDefinition) JoinColumnID() (string, error) {
	return joinColumnID(d.StandardID, d.JoinColumnStandardID, d.JoinColumnName)
}

// Shape returns the target-independent part of the relation
func (d *DynamicRelationDefinition) Shape() (models.RelationShape, error) {
	fkID, err := d.JoinColumnID()
	if err != nil {
		return models.RelationShape{}, err
	}
	return models.RelationShape{
		StandardID:           d.StandardID,
		Name:                 d.Name,
		Label:                d.Label,
		Description:          d.Description,
		Icon:                 d.Icon,
		Cardinality:          d.Cardinality,
		JoinColumnName:       d.JoinColumnName,
		JoinColumnStandardID: fkID,
		IsNullable:           d.IsNullable,
		IsSystem:             d.IsSystem,
		OnDelete:             d.OnDelete,
	}, nil
}

// SearchableField feeds the synthesized search vector of an object
type SearchableField struct {
	Name string              `json:"name"`
	Type constants.FieldType `json:"type"`
}

// ObjectDefinition is a code-level standard object
type ObjectDefinition struct {
	StandardID       string                      `json:"standard_id"`
	NameSingular     string                      `json:"name_singular"`
	NamePlural       string                      `json:"name_plural"`
	LabelSingular    string                      `json:"label_singular"`
	LabelPlural      string                      `json:"label_plural"`
	Description      string                      `json:"description,omitempty"`
	Icon             string                      `json:"icon,omitempty"`
	IsSystem         bool                        `json:"is_system,omitempty"`
	Gate             string                      `json:"gate,omitempty"`
	Fields           []FieldDefinition           `json:"fields"`
	Relations        []RelationDefinition        `json:"relations,omitempty"`
	DynamicRelations []DynamicRelationDefinition `json:"dynamic_relations,omitempty"`
	SearchableFields []SearchableField           `json:"searchable_fields,omitempty"`
}

// Field returns the scalar field definition with the given name
func (o *ObjectDefinition) Field(name string) (*FieldDefinition, bool) {
	for i := range o.Fields {
		if o.Fields[i].Name == name {
			return &o.Fields[i], true
		}
	}
	return nil, false
}

// CustomObjectTemplate lists the standard fields every custom object carries.
// Labels and descriptions may use the {labelSingular} and {labelPlural}
// placeholders.
type CustomObjectTemplate struct {
	Fields           []FieldDefinition `json:"fields"`
	SearchableFields []SearchableField `json:"searchable_fields,omitempty"`
}

// Field returns the template field with the given name
func (t *CustomObjectTemplate) Field(name string) (*FieldDefinition, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

func joinColumnID(relationID, explicit, joinColumnName string) (string, error) {
	if joinColumnName == "" {
		return "", nil
	}
	if explicit != "" {
		return explicit, nil
	}
	return utils.DeriveID(relationID, joinColumnName)
}
