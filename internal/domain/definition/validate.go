package definition

import (
	"fmt"

	"github.com/nexuscrm/fieldsync/pkg/constants"
	appErrors "github.com/nexuscrm/fieldsync/pkg/errors"
	"github.com/nexuscrm/fieldsync/pkg/expression"
	"github.com/nexuscrm/fieldsync/pkg/fieldtypes"
	"github.com/nexuscrm/fieldsync/pkg/utils"
)

// Validate checks the definitions for programming errors. Any failure is a
// ConfigurationError: the Definition Model shipped in the binary is broken.
func (r *Registry) Validate() error {
	v := &validator{
		ids:   make(map[string]string),
		types: fieldtypes.GetRegistry(),
	}

	objectIDs := make(map[string]bool, len(r.objects))
	for _, obj := range r.objects {
		if err := v.claim(obj.StandardID, "object "+obj.NameSingular); err != nil {
			return err
		}
		objectIDs[obj.StandardID] = true
	}

	for i := range r.objects {
		if err := v.validateObject(&r.objects[i], objectIDs); err != nil {
			return err
		}
	}
	return v.validateTemplate(&r.template)
}

type validator struct {
	ids   map[string]string
	types *fieldtypes.Registry
}

func (v *validator) claim(standardID, subject string) error {
	if standardID == "" {
		return appErrors.NewConfigurationError(subject, "missing standard id")
	}
	if !utils.IsValidUUID(standardID) {
		return appErrors.NewConfigurationError(subject, fmt.Sprintf("standard id %q is not a UUID", standardID))
	}
	if owner, ok := v.ids[standardID]; ok {
		return appErrors.NewConfigurationError(subject, fmt.Sprintf("standard id %s already used by %s", standardID, owner))
	}
	v.ids[standardID] = subject
	return nil
}

func (v *validator) validateObject(obj *ObjectDefinition, objectIDs map[string]bool) error {
	subject := "object " + obj.NameSingular
	if obj.NameSingular == "" || obj.NamePlural == "" {
		return appErrors.NewConfigurationError(subject, "object names are required")
	}

	names := make(map[string]bool)
	columns := map[string]bool{constants.ColumnID: true}
	claimName := func(name, what string) error {
		if name == "" {
			return appErrors.NewConfigurationError(subject, what+" without a name")
		}
		if names[name] {
			return appErrors.NewConfigurationError(subject, fmt.Sprintf("duplicate field name %q", name))
		}
		names[name] = true
		return nil
	}

	for i := range obj.Fields {
		f := &obj.Fields[i]
		if err := claimName(f.Name, "field"); err != nil {
			return err
		}
		if err := v.validateField(subject, f); err != nil {
			return err
		}
		for _, col := range v.types.Columns(f.Name, f.Type) {
			columns[col.Name] = true
		}
	}

	for i := range obj.Relations {
		rel := &obj.Relations[i]
		relSubject := subject + " relation " + rel.Name
		if err := claimName(rel.Name, "relation"); err != nil {
			return err
		}
		if err := v.claim(rel.StandardID, relSubject); err != nil {
			return err
		}
		if !objectIDs[rel.TargetObject] {
			return appErrors.NewConfigurationError(relSubject, fmt.Sprintf("unknown target object %q", rel.TargetObject))
		}
		if err := v.validateRelation(relSubject, rel.Cardinality, rel.JoinColumnName); err != nil {
			return err
		}
		if rel.JoinColumnName != "" {
			if err := claimName(rel.JoinColumnName, "join column"); err != nil {
				return err
			}
			fkID, err := rel.JoinColumnID()
			if err != nil {
				return appErrors.NewConfigurationError(relSubject, err.Error())
			}
			if err := v.claim(fkID, relSubject+" join column"); err != nil {
				return err
			}
			columns[rel.JoinColumnName] = true
		}
	}

	for i := range obj.DynamicRelations {
		dyn := &obj.DynamicRelations[i]
		dynSubject := subject + " dynamic relation " + dyn.Name
		if err := claimName(dyn.Name, "dynamic relation"); err != nil {
			return err
		}
		if err := v.claim(dyn.StandardID, dynSubject); err != nil {
			return err
		}
		if dyn.Resolver.Name == "" {
			return appErrors.NewConfigurationError(dynSubject, "missing resolver")
		}
		if err := v.validateRelation(dynSubject, dyn.Cardinality, dyn.JoinColumnName); err != nil {
			return err
		}
		if dyn.JoinColumnName != "" {
			if err := claimName(dyn.JoinColumnName, "join column"); err != nil {
				return err
			}
			fkID, err := dyn.JoinColumnID()
			if err != nil {
				return appErrors.NewConfigurationError(dynSubject, err.Error())
			}
			if err := v.claim(fkID, dynSubject+" join column"); err != nil {
				return err
			}
			columns[dyn.JoinColumnName] = true
		}
	}

	if err := v.validateSearchable(subject, obj.SearchableFields, obj.Field); err != nil {
		return err
	}
	for i := range obj.Fields {
		if err := v.validateGeneratedRefs(subject, &obj.Fields[i], columns); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) validateTemplate(t *CustomObjectTemplate) error {
	subject := "custom object template"
	names := make(map[string]bool)
	columns := map[string]bool{constants.ColumnID: true}
	for i := range t.Fields {
		f := &t.Fields[i]
		if names[f.Name] {
			return appErrors.NewConfigurationError(subject, fmt.Sprintf("duplicate field name %q", f.Name))
		}
		names[f.Name] = true
		if err := v.validateField(subject, f); err != nil {
			return err
		}
		for _, col := range v.types.Columns(f.Name, f.Type) {
			columns[col.Name] = true
		}
	}
	if err := v.validateSearchable(subject, t.SearchableFields, t.Field); err != nil {
		return err
	}
	for i := range t.Fields {
		if err := v.validateGeneratedRefs(subject, &t.Fields[i], columns); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) validateField(subject string, f *FieldDefinition) error {
	fieldSubject := subject + " field " + f.Name
	if err := v.claim(f.StandardID, fieldSubject); err != nil {
		return err
	}
	if !constants.IsValidFieldType(f.Type) {
		return appErrors.NewConfigurationError(fieldSubject, fmt.Sprintf("unknown field type %q", f.Type))
	}
	if f.Type == constants.FieldTypeRelation {
		return appErrors.NewConfigurationError(fieldSubject, "relations must be declared as relations, not fields")
	}
	if f.Type == constants.FieldTypeTSVector && f.Generated == nil {
		return appErrors.NewConfigurationError(fieldSubject, "search vector fields must be generated")
	}
	if f.Generated == nil {
		return nil
	}
	switch f.Generated.Mode() {
	case constants.StorageModeStored, constants.StorageModeVirtual:
	default:
		return appErrors.NewConfigurationError(fieldSubject, fmt.Sprintf("unknown storage mode %q", f.Generated.StorageMode))
	}
	if f.Generated.Expression == "" && f.Type != constants.FieldTypeTSVector {
		return appErrors.NewConfigurationError(fieldSubject, "only search vector fields may omit the generated expression")
	}
	if v.types.IsComposite(f.Type) {
		return appErrors.NewConfigurationError(fieldSubject, fmt.Sprintf("type %s cannot be generated", f.Type))
	}
	return nil
}

func (v *validator) validateRelation(subject string, cardinality constants.RelationCardinality, joinColumn string) error {
	if !constants.IsValidCardinality(cardinality) {
		return appErrors.NewConfigurationError(subject, fmt.Sprintf("unknown cardinality %q", cardinality))
	}
	if cardinality == constants.RelationOneToMany && joinColumn != "" {
		return appErrors.NewConfigurationError(subject, "ONE_TO_MANY relations cannot own a join column")
	}
	return nil
}

func (v *validator) validateSearchable(subject string, searchable []SearchableField, lookup func(string) (*FieldDefinition, bool)) error {
	for _, s := range searchable {
		f, ok := lookup(s.Name)
		if !ok {
			return appErrors.NewConfigurationError(subject, fmt.Sprintf("searchable field %q is not declared", s.Name))
		}
		if f.Type != s.Type {
			return appErrors.NewConfigurationError(subject, fmt.Sprintf("searchable field %q declared as %s but is %s", s.Name, s.Type, f.Type))
		}
		if len(v.types.SearchableColumns(s.Name, s.Type)) == 0 {
			return appErrors.NewConfigurationError(subject, fmt.Sprintf("type %s of searchable field %q is not searchable", s.Type, s.Name))
		}
	}
	return nil
}

func (v *validator) validateGeneratedRefs(subject string, f *FieldDefinition, columns map[string]bool) error {
	if f.Generated == nil || f.Generated.Expression == "" {
		return nil
	}
	refs, err := expression.ColumnRefs(f.Generated.Expression)
	if err != nil {
		return appErrors.NewConfigurationError(subject+" field "+f.Name, err.Error())
	}
	for _, ref := range refs {
		if ref == f.Name {
			return appErrors.NewConfigurationError(subject+" field "+f.Name, "generated expression references itself")
		}
		if !columns[ref] {
			return appErrors.NewConfigurationError(subject+" field "+f.Name, fmt.Sprintf("generated expression references unknown column %q", ref))
		}
	}
	return nil
}
