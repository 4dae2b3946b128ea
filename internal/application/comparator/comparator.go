// Package comparator diffs persisted field rows against compiled target specs.
// It performs no I/O and its output order is deterministic.
package comparator

import (
	"encoding/json"
	"fmt"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	appErrors "github.com/nexuscrm/fieldsync/pkg/errors"
)

// Attribute names reported in Result.Changed
const (
	AttrName         = "name"
	AttrType         = "type"
	AttrLabel        = "label"
	AttrDescription  = "description"
	AttrIcon         = "icon"
	AttrDefaultValue = "defaultValue"
	AttrOptions      = "options"
	AttrSettings     = "settings"
	AttrIsNullable   = "isNullable"
	AttrIsUnique     = "isUnique"
	AttrIsActive     = "isActive"
	AttrGenerated    = "generated"
)

// Result is one classified field action
type Result struct {
	Action  constants.SyncAction
	Field   models.FieldMetadata
	Before  *models.FieldMetadata
	Changed []string
}

// Input is everything the comparator needs for one object
type Input struct {
	ObjectMetadataID string
	Persisted        []models.FieldMetadata
	Specs            []models.FieldSpec
	// Suppressed holds standard ids the compiler intentionally left out
	// (gated off, deferred). Persisted rows carrying them are kept.
	Suppressed map[string]bool
}

// Compare classifies every spec and persisted row of one object.
// CREATE and UPDATE results follow spec order, DELETE results follow
// persisted order.
func Compare(in Input) ([]Result, error) {
	persistedByID := make(map[string]*models.FieldMetadata, len(in.Persisted))
	for i := range in.Persisted {
		row := &in.Persisted[i]
		sid := row.GetStandardID()
		if sid == "" {
			continue
		}
		if existing, ok := persistedByID[sid]; ok {
			return nil, appErrors.NewConflictError(
				fmt.Sprintf("field metadata of object %s (%s and %s)", in.ObjectMetadataID, existing.ID, row.ID),
				"standard_id", sid)
		}
		persistedByID[sid] = row
	}

	specIDs := make(map[string]bool, len(in.Specs))
	var results []Result

	for i := range in.Specs {
		spec := &in.Specs[i]
		if spec.StandardID == "" {
			return nil, appErrors.NewConfigurationError("field "+spec.Name, "spec without standard id")
		}
		if specIDs[spec.StandardID] {
			return nil, appErrors.NewConfigurationError("field "+spec.Name, fmt.Sprintf("standard id %s compiled twice", spec.StandardID))
		}
		specIDs[spec.StandardID] = true

		row, ok := persistedByID[spec.StandardID]
		if !ok {
			field := spec.ToFieldMetadata()
			results = append(results, Result{Action: constants.ActionCreate, Field: field})
			continue
		}
		if row.IsCustom {
			// A custom row already owns this standard id; it is never touched.
			continue
		}

		changed := Diff(row, spec)
		if len(changed) == 0 {
			continue
		}
		before := *row
		results = append(results, Result{
			Action:  constants.ActionUpdate,
			Field:   Merge(row, spec),
			Before:  &before,
			Changed: changed,
		})
	}

	for i := range in.Persisted {
		row := in.Persisted[i]
		if row.IsCustom {
			continue
		}
		sid := row.GetStandardID()
		if sid == "" || specIDs[sid] || in.Suppressed[sid] {
			continue
		}
		results = append(results, Result{Action: constants.ActionDelete, Field: row})
	}

	return results, nil
}

// Diff returns the names of the comparable attributes that differ between a
// persisted row and its target spec
func Diff(row *models.FieldMetadata, spec *models.FieldSpec) []string {
	var changed []string
	if row.Name != spec.Name {
		changed = append(changed, AttrName)
	}
	if row.Type != spec.Type {
		changed = append(changed, AttrType)
	}
	if row.Label != spec.Label {
		changed = append(changed, AttrLabel)
	}
	if row.Description != spec.Description {
		changed = append(changed, AttrDescription)
	}
	if row.Icon != spec.Icon {
		changed = append(changed, AttrIcon)
	}
	if !sameJSON(row.DefaultValue, spec.DefaultValue) {
		changed = append(changed, AttrDefaultValue)
	}
	if !sameJSON(row.Options, spec.Options) {
		changed = append(changed, AttrOptions)
	}
	if !sameJSON(row.Settings, spec.Settings) {
		changed = append(changed, AttrSettings)
	}
	if row.IsNullable != spec.IsNullable {
		changed = append(changed, AttrIsNullable)
	}
	if row.IsUnique != spec.IsUnique {
		changed = append(changed, AttrIsUnique)
	}
	if row.IsActive != spec.IsActive {
		changed = append(changed, AttrIsActive)
	}
	if !sameGenerated(row.Generated, spec.Generated) {
		changed = append(changed, AttrGenerated)
	}
	return changed
}

// Merge returns the persisted row with every comparable target attribute applied.
// Identity, ownership and timestamps stay those of the row.
func Merge(row *models.FieldMetadata, spec *models.FieldSpec) models.FieldMetadata {
	merged := *row
	merged.Name = spec.Name
	merged.Type = spec.Type
	merged.Label = spec.Label
	merged.Description = spec.Description
	merged.Icon = spec.Icon
	merged.DefaultValue = spec.DefaultValue
	merged.Options = spec.Options
	merged.Settings = spec.Settings
	merged.IsNullable = spec.IsNullable
	merged.IsUnique = spec.IsUnique
	merged.IsActive = spec.IsActive
	merged.Generated = nil
	if spec.Generated != nil {
		g := *spec.Generated
		merged.Generated = &g
	}
	return merged
}

func sameGenerated(a, b *models.GeneratedColumn) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Expression == b.Expression && a.Mode() == b.Mode()
}

// sameJSON compares two values by their canonical JSON encoding. Empty
// collections and nil compare equal.
func sameJSON(a, b interface{}) bool {
	return canonical(a) == canonical(b)
}

func canonical(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case []models.FieldOption:
		if len(t) == 0 {
			return "null"
		}
	case map[string]interface{}:
		if len(t) == 0 {
			return "null"
		}
	case []interface{}:
		if len(t) == 0 {
			return "null"
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	// Round-trip through interface{} so typed and decoded values agree.
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return string(data)
	}
	data, _ = json.Marshal(decoded)
	return string(data)
}
