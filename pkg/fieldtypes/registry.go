package fieldtypes

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nexuscrm/fieldsync/pkg/constants"
	"github.com/nexuscrm/fieldsync/pkg/utils"
)

//go:embed fieldTypes.json
var fieldTypesFS embed.FS

// SearchModeEmail marks an email sub-column whose domain part is indexed separately
const SearchModeEmail = "email"

// SubFieldDefinition is one physical sub-column of a composite type
type SubFieldDefinition struct {
	Name         string `json:"name"`
	SQLType      string `json:"sqlType"`
	IsSearchable bool   `json:"isSearchable,omitempty"`
	SearchMode   string `json:"searchMode,omitempty"`
}

// FieldTypeDefinition represents a field type configuration
type FieldTypeDefinition struct {
	SQLType      *string              `json:"sqlType"`
	Label        string               `json:"label"`
	IsSearchable bool                 `json:"isSearchable"`
	IsVirtual    bool                 `json:"isVirtual,omitempty"`
	IsGenerated  bool                 `json:"isGenerated,omitempty"`
	SubFields    []SubFieldDefinition `json:"subFields,omitempty"`
}

// Column is a physical column backing a field
type Column struct {
	Name         string
	SQLType      string
	IsSearchable bool
	SearchMode   string
}

// Registry holds field type definitions
type Registry struct {
	types map[constants.FieldType]FieldTypeDefinition
	mu    sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// GetRegistry returns the singleton field types registry
func GetRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = &Registry{
			types: make(map[constants.FieldType]FieldTypeDefinition),
		}
		if err := defaultRegistry.loadFromEmbedded(); err != nil {
			panic(fmt.Sprintf("fieldtypes: invalid embedded registry: %v", err))
		}
	})
	return defaultRegistry
}

// loadFromEmbedded loads field types from the embedded JSON file
func (r *Registry) loadFromEmbedded() error {
	data, err := fieldTypesFS.ReadFile("fieldTypes.json")
	if err != nil {
		return err
	}

	var types map[constants.FieldType]FieldTypeDefinition
	if err := json.Unmarshal(data, &types); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = types
	return nil
}

// Get returns a field type definition by name
func (r *Registry) Get(t constants.FieldType) (FieldTypeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.types[t]
	return def, ok
}

// GetSQLType returns the SQL type for a scalar field type
func (r *Registry) GetSQLType(t constants.FieldType) string {
	def, ok := r.Get(t)
	if !ok || def.SQLType == nil {
		return ""
	}
	return *def.SQLType
}

// IsComposite returns whether a type is stored in several sub-columns
func (r *Registry) IsComposite(t constants.FieldType) bool {
	def, ok := r.Get(t)
	return ok && len(def.SubFields) > 0
}

// IsVirtual returns whether a field type has no physical column
func (r *Registry) IsVirtual(t constants.FieldType) bool {
	def, ok := r.Get(t)
	return ok && def.IsVirtual
}

// IsGenerated returns whether values of this type are always computed by the database
func (r *Registry) IsGenerated(t constants.FieldType) bool {
	def, ok := r.Get(t)
	return ok && def.IsGenerated
}

// Columns returns the physical columns backing a field named fieldName.
// Composite sub-columns are named fieldName + SubField ("name" + "FirstName").
func (r *Registry) Columns(fieldName string, t constants.FieldType) []Column {
	def, ok := r.Get(t)
	if !ok || def.IsVirtual {
		return nil
	}
	if len(def.SubFields) == 0 {
		if def.SQLType == nil {
			return nil
		}
		return []Column{{Name: fieldName, SQLType: *def.SQLType, IsSearchable: def.IsSearchable}}
	}

	cols := make([]Column, 0, len(def.SubFields))
	for _, sub := range def.SubFields {
		cols = append(cols, Column{
			Name:         CompositeColumnName(fieldName, sub.Name),
			SQLType:      sub.SQLType,
			IsSearchable: sub.IsSearchable,
			SearchMode:   sub.SearchMode,
		})
	}
	return cols
}

// SearchableColumns returns the columns of a field that feed a search vector
func (r *Registry) SearchableColumns(fieldName string, t constants.FieldType) []Column {
	var out []Column
	for _, col := range r.Columns(fieldName, t) {
		if col.IsSearchable {
			out = append(out, col)
		}
	}
	return out
}

// CompositeColumnName builds the physical column name of a composite sub-field
func CompositeColumnName(fieldName, subField string) string {
	return fieldName + utils.UpperFirst(subField)
}
