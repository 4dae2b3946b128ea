// Package syncstorage accumulates the classified field actions of one
// workspace pass before anything is written.
package syncstorage

import (
	"github.com/nexuscrm/fieldsync/internal/application/comparator"
	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
)

// Storage holds the create, update and delete buckets in insertion order.
// A Storage belongs to a single pass and is not safe for concurrent use.
type Storage struct {
	toCreate []models.FieldMetadata
	toUpdate []models.FieldUpdate
	toDelete []models.FieldMetadata
}

// New returns an empty Storage
func New() *Storage {
	return &Storage{}
}

// AddCreate queues a new field row
func (s *Storage) AddCreate(field models.FieldMetadata) {
	s.toCreate = append(s.toCreate, field)
}

// AddUpdate queues an in-place update of a persisted row
func (s *Storage) AddUpdate(before, after models.FieldMetadata, changed []string) {
	s.toUpdate = append(s.toUpdate, models.FieldUpdate{Before: before, After: after, Changed: changed})
}

// AddDelete queues the removal of a persisted row
func (s *Storage) AddDelete(field models.FieldMetadata) {
	s.toDelete = append(s.toDelete, field)
}

// Accumulate routes comparator results into their buckets
func (s *Storage) Accumulate(results []comparator.Result) {
	for _, r := range results {
		switch r.Action {
		case constants.ActionCreate:
			s.AddCreate(r.Field)
		case constants.ActionUpdate:
			before := r.Field
			if r.Before != nil {
				before = *r.Before
			}
			s.AddUpdate(before, r.Field, r.Changed)
		case constants.ActionDelete:
			s.AddDelete(r.Field)
		}
	}
}

// OrderCreates moves every generated field behind all plain fields of the
// pass. Each partition keeps its insertion order, so the per-object order
// among generated fields is preserved.
func (s *Storage) OrderCreates() {
	ordered := make([]models.FieldMetadata, 0, len(s.toCreate))
	var generated []models.FieldMetadata
	for _, f := range s.toCreate {
		if f.Generated != nil {
			generated = append(generated, f)
			continue
		}
		ordered = append(ordered, f)
	}
	s.toCreate = append(ordered, generated...)
}

// ToCreate returns the queued creations
func (s *Storage) ToCreate() []models.FieldMetadata { return s.toCreate }

// ToUpdate returns the queued updates
func (s *Storage) ToUpdate() []models.FieldUpdate { return s.toUpdate }

// ToDelete returns the queued deletions
func (s *Storage) ToDelete() []models.FieldMetadata { return s.toDelete }

// IsEmpty reports whether nothing was queued
func (s *Storage) IsEmpty() bool {
	return len(s.toCreate) == 0 && len(s.toUpdate) == 0 && len(s.toDelete) == 0
}

// Counts returns the bucket sizes as create, update, delete
func (s *Storage) Counts() (int, int, int) {
	return len(s.toCreate), len(s.toUpdate), len(s.toDelete)
}

// ChangeSet snapshots the buckets for the metadata store
func (s *Storage) ChangeSet() models.FieldChangeSet {
	return models.FieldChangeSet{
		ToCreate: append([]models.FieldMetadata(nil), s.toCreate...),
		ToUpdate: append([]models.FieldUpdate(nil), s.toUpdate...),
		ToDelete: append([]models.FieldMetadata(nil), s.toDelete...),
	}
}
