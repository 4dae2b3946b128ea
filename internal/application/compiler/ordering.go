package compiler

import (
	"fmt"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	appErrors "github.com/nexuscrm/fieldsync/pkg/errors"
	"github.com/nexuscrm/fieldsync/pkg/expression"
	"github.com/nexuscrm/fieldsync/pkg/fieldtypes"

	log "github.com/sirupsen/logrus"
)

// columnOwners maps every physical column to the index of the spec owning it
func columnOwners(types *fieldtypes.Registry, specs []models.FieldSpec) map[string]int {
	owners := make(map[string]int)
	for i := range specs {
		for _, col := range types.Columns(specs[i].Name, specs[i].Type) {
			owners[col.Name] = i
		}
	}
	return owners
}

func specRefs(spec *models.FieldSpec) ([]string, error) {
	if spec.Generated == nil || spec.Generated.Expression == "" {
		return nil, nil
	}
	refs, err := expression.ColumnRefs(spec.Generated.Expression)
	if err != nil {
		return nil, appErrors.NewConfigurationError("field "+spec.Name, err.Error())
	}
	return refs, nil
}

// pruneUnresolved drops generated specs whose expression references a column
// no remaining spec provides, until none is left. Dropped ids are suppressed.
func pruneUnresolved(types *fieldtypes.Registry, target *ObjectTarget) error {
	for {
		owners := columnOwners(types, target.Specs)
		drop := -1
		for i := range target.Specs {
			refs, err := specRefs(&target.Specs[i])
			if err != nil {
				return err
			}
			for _, ref := range refs {
				if ref == constants.ColumnID {
					continue
				}
				if _, ok := owners[ref]; !ok {
					drop = i
					break
				}
			}
			if drop >= 0 {
				break
			}
		}
		if drop < 0 {
			return nil
		}

		spec := target.Specs[drop]
		log.WithFields(log.Fields{
			"workspace": spec.WorkspaceID,
			"object":    target.ObjectMetadataID,
			"field":     spec.Name,
		}).Debugf("⏭️  Skipping generated field %s: referenced column is not materialized", spec.Name)
		target.suppress(spec.StandardID)
		target.Specs = append(target.Specs[:drop:drop], target.Specs[drop+1:]...)
	}
}

// OrderSpecs returns the specs with every generated field after all plain
// fields and after every generated field its expression references. Both
// partitions keep their input order otherwise.
func OrderSpecs(types *fieldtypes.Registry, specs []models.FieldSpec) ([]models.FieldSpec, error) {
	ordered := make([]models.FieldSpec, 0, len(specs))
	var generated []int
	for i := range specs {
		if specs[i].IsGenerated() {
			generated = append(generated, i)
			continue
		}
		ordered = append(ordered, specs[i])
	}
	if len(generated) == 0 {
		return ordered, nil
	}

	owners := columnOwners(types, specs)
	deps := make(map[int][]int, len(generated))
	for _, i := range generated {
		refs, err := specRefs(&specs[i])
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			owner, ok := owners[ref]
			if !ok || owner == i || !specs[owner].IsGenerated() {
				continue
			}
			deps[i] = append(deps[i], owner)
		}
	}

	emitted := make(map[int]bool, len(generated))
	for len(emitted) < len(generated) {
		next := -1
		for _, i := range generated {
			if emitted[i] {
				continue
			}
			ready := true
			for _, d := range deps[i] {
				if !emitted[d] {
					ready = false
					break
				}
			}
			if ready {
				next = i
				break
			}
		}
		if next < 0 {
			var cycle []string
			for _, i := range generated {
				if !emitted[i] {
					cycle = append(cycle, specs[i].Name)
				}
			}
			return nil, appErrors.NewConfigurationError("object "+specs[generated[0]].ObjectMetadataID,
				fmt.Sprintf("generated fields reference each other in a cycle: %v", cycle))
		}
		emitted[next] = true
		ordered = append(ordered, specs[next])
	}
	return ordered, nil
}
