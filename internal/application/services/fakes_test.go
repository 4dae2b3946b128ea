package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nexuscrm/fieldsync/internal/domain/definition"
	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/stretchr/testify/mock"
)

// memoryStore is an in-memory MetadataStore applying changes like the SQL store does
type memoryStore struct {
	mu         sync.Mutex
	workspaces map[string][]models.ObjectMetadata
	applyCalls int
	applyErr   error
	nextID     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{workspaces: make(map[string][]models.ObjectMetadata)}
}

func (m *memoryStore) ListObjects(ctx context.Context, workspaceID string) ([]models.ObjectMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	objects := m.workspaces[workspaceID]
	out := make([]models.ObjectMetadata, len(objects))
	for i, obj := range objects {
		out[i] = obj
		out[i].Fields = append([]models.FieldMetadata(nil), obj.Fields...)
	}
	return out, nil
}

func (m *memoryStore) ListWorkspaceIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.workspaces))
	for id := range m.workspaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memoryStore) ApplyFieldChanges(ctx context.Context, workspaceID string, changes models.FieldChangeSet) (*models.ApplyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyCalls++
	if m.applyErr != nil {
		return nil, m.applyErr
	}

	objects := m.workspaces[workspaceID]
	result := &models.ApplyResult{}
	deleted := make(map[string]bool)
	for _, f := range changes.ToDelete {
		deleted[f.ID] = true
		result.Deleted = append(result.Deleted, f)
	}
	updated := make(map[string]models.FieldMetadata)
	for _, u := range changes.ToUpdate {
		updated[u.After.ID] = u.After
		result.Updated = append(result.Updated, u)
	}

	for i := range objects {
		var kept []models.FieldMetadata
		for _, f := range objects[i].Fields {
			if deleted[f.ID] {
				continue
			}
			if after, ok := updated[f.ID]; ok {
				f = after
			}
			kept = append(kept, f)
		}
		objects[i].Fields = kept
	}

	for _, f := range changes.ToCreate {
		m.nextID++
		f.ID = fmt.Sprintf("field-%04d", m.nextID)
		for i := range objects {
			if objects[i].ID == f.ObjectMetadataID {
				objects[i].Fields = append(objects[i].Fields, f)
			}
		}
		result.Created = append(result.Created, f)
	}
	return result, nil
}

func (m *memoryStore) fields(workspaceID, objectID string) []models.FieldMetadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, obj := range m.workspaces[workspaceID] {
		if obj.ID == objectID {
			return append([]models.FieldMetadata(nil), obj.Fields...)
		}
	}
	return nil
}

func (m *memoryStore) mutateField(workspaceID, objectID, name string, fn func(f *models.FieldMetadata)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.workspaces[workspaceID] {
		obj := &m.workspaces[workspaceID][i]
		if obj.ID != objectID {
			continue
		}
		for j := range obj.Fields {
			if obj.Fields[j].Name == name {
				fn(&obj.Fields[j])
			}
		}
	}
}

// provision creates every standard object of the registry, without fields
func (m *memoryStore) provision(registry *definition.Registry, workspaceID string, custom ...models.ObjectMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var objects []models.ObjectMetadata
	for _, def := range registry.Objects() {
		objects = append(objects, models.ObjectMetadata{
			ID:            objectID(workspaceID, def.NameSingular),
			WorkspaceID:   workspaceID,
			StandardID:    models.StringPtr(def.StandardID),
			NameSingular:  def.NameSingular,
			NamePlural:    def.NamePlural,
			LabelSingular: def.LabelSingular,
			LabelPlural:   def.LabelPlural,
			IsSystem:      def.IsSystem,
			IsActive:      true,
		})
	}
	for _, c := range custom {
		c.WorkspaceID = workspaceID
		objects = append(objects, c)
	}
	m.workspaces[workspaceID] = objects
}

func objectID(workspaceID, name string) string {
	return workspaceID + "-" + name
}

type staticFlags map[string]models.FeatureFlagMap

func (s staticFlags) GetFeatureFlags(ctx context.Context, workspaceID string) (models.FeatureFlagMap, error) {
	return s[workspaceID], nil
}

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) ExecuteMigrations(ctx context.Context, workspaceID string, plan *models.MigrationPlan) error {
	args := m.Called(ctx, workspaceID, plan)
	return args.Error(0)
}
