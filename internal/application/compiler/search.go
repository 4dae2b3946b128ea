package compiler

import (
	"fmt"
	"strings"

	"github.com/nexuscrm/fieldsync/internal/domain/definition"
	"github.com/nexuscrm/fieldsync/pkg/fieldtypes"
)

// emptySearchExpression is used when no searchable field is materialized
const emptySearchExpression = "''"

// SearchExpression builds the generated expression of a search vector from
// the searchable fields that are present. Each searchable column contributes
// COALESCE(col, ''); email columns also contribute their domain part.
func SearchExpression(types *fieldtypes.Registry, searchable []definition.SearchableField, present func(name string) bool) string {
	var parts []string
	for _, s := range searchable {
		if present != nil && !present(s.Name) {
			continue
		}
		for _, col := range types.SearchableColumns(s.Name, s.Type) {
			value := fmt.Sprintf("COALESCE(`%s`, '')", col.Name)
			parts = append(parts, value)
			if col.SearchMode == fieldtypes.SearchModeEmail {
				parts = append(parts, fmt.Sprintf("SUBSTRING_INDEX(%s, '@', -1)", value))
			}
		}
	}
	if len(parts) == 0 {
		return emptySearchExpression
	}
	return "CONCAT_WS(' ', " + strings.Join(parts, ", ") + ")"
}
