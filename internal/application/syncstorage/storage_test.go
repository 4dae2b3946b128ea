package syncstorage

import (
	"testing"

	"github.com/nexuscrm/fieldsync/internal/application/comparator"
	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	"github.com/stretchr/testify/assert"
)

func TestStorage_Accumulate(t *testing.T) {
	s := New()
	assert.True(t, s.IsEmpty())

	before := models.FieldMetadata{ID: "f2", Label: "Name"}
	s.Accumulate([]comparator.Result{
		{Action: constants.ActionCreate, Field: models.FieldMetadata{Name: "f1"}},
		{Action: constants.ActionUpdate, Field: models.FieldMetadata{ID: "f2", Label: "Full Name"}, Before: &before, Changed: []string{"label"}},
		{Action: constants.ActionDelete, Field: models.FieldMetadata{ID: "f3"}},
		{Action: constants.ActionCreate, Field: models.FieldMetadata{Name: "f4"}},
	})

	c, u, d := s.Counts()
	assert.Equal(t, 2, c)
	assert.Equal(t, 1, u)
	assert.Equal(t, 1, d)
	assert.False(t, s.IsEmpty())

	assert.Equal(t, "f1", s.ToCreate()[0].Name)
	assert.Equal(t, "f4", s.ToCreate()[1].Name)
	assert.Equal(t, "Name", s.ToUpdate()[0].Before.Label)
	assert.Equal(t, "Full Name", s.ToUpdate()[0].After.Label)
	assert.Equal(t, "f3", s.ToDelete()[0].ID)
}

func TestStorage_ChangeSetIsSnapshot(t *testing.T) {
	s := New()
	s.AddCreate(models.FieldMetadata{Name: "a"})

	changes := s.ChangeSet()
	s.AddCreate(models.FieldMetadata{Name: "b"})

	assert.Len(t, changes.ToCreate, 1)
	assert.False(t, changes.IsEmpty())
	assert.True(t, New().ChangeSet().IsEmpty())
}

func TestStorage_OrderCreates(t *testing.T) {
	s := New()
	generated := func(name, object string) models.FieldMetadata {
		return models.FieldMetadata{Name: name, ObjectMetadataID: object, Generated: &models.GeneratedColumn{Expression: "''"}}
	}
	s.AddCreate(models.FieldMetadata{Name: "name", ObjectMetadataID: "company"})
	s.AddCreate(generated("domainHost", "company"))
	s.AddCreate(generated("searchVector", "company"))
	s.AddCreate(models.FieldMetadata{Name: "id", ObjectMetadataID: "person"})
	s.AddCreate(generated("searchVector", "person"))
	s.AddCreate(models.FieldMetadata{Name: "email", ObjectMetadataID: "person"})

	s.OrderCreates()

	var got []string
	for _, f := range s.ToCreate() {
		got = append(got, f.ObjectMetadataID+"."+f.Name)
	}
	assert.Equal(t, []string{
		"company.name", "person.id", "person.email",
		"company.domainHost", "company.searchVector", "person.searchVector",
	}, got)

	empty := New()
	empty.OrderCreates()
	assert.True(t, empty.IsEmpty())
}
