// Package compiler turns the Definition Model (genesis) or a reference
// workspace's persisted rows (re-projection) into the ordered field specs a
// workspace should have, for that workspace's feature flags.
package compiler

import (
	"github.com/nexuscrm/fieldsync/internal/domain/definition"
	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/internal/domain/ports"
	"github.com/nexuscrm/fieldsync/pkg/fieldtypes"
)

// Compiler compiles target field specs. It holds no per-workspace state and
// is safe for concurrent use.
type Compiler struct {
	registry  *definition.Registry
	resolvers ports.ResolverRegistry
	types     *fieldtypes.Registry
}

// New creates a Compiler over a Definition Model and a resolver registry
func New(registry *definition.Registry, resolvers ports.ResolverRegistry) *Compiler {
	return &Compiler{
		registry:  registry,
		resolvers: resolvers,
		types:     fieldtypes.GetRegistry(),
	}
}

// Registry returns the Definition Model the compiler reads
func (c *Compiler) Registry() *definition.Registry {
	return c.registry
}

// Context is the per-workspace input of a compilation: who the specs are for,
// which flags are on and which objects already exist.
type Context struct {
	WorkspaceID string
	Flags       models.FeatureFlagMap

	objects      []models.ObjectMetadata
	byStandardID map[string]*models.ObjectMetadata
	custom       []models.ObjectMetadata
}

// NewContext indexes the workspace's objects for a compilation
func NewContext(workspaceID string, flags models.FeatureFlagMap, objects []models.ObjectMetadata) *Context {
	ctx := &Context{
		WorkspaceID:  workspaceID,
		Flags:        flags,
		objects:      objects,
		byStandardID: make(map[string]*models.ObjectMetadata),
	}
	for i := range objects {
		obj := &objects[i]
		if obj.IsCustom {
			ctx.custom = append(ctx.custom, *obj)
			continue
		}
		if sid := obj.GetStandardID(); sid != "" {
			ctx.byStandardID[sid] = obj
		}
	}
	return ctx
}

// ObjectIDByStandardID maps a standard object to the workspace's object id
func (c *Context) ObjectIDByStandardID(standardID string) (string, bool) {
	obj, ok := c.byStandardID[standardID]
	if !ok {
		return "", false
	}
	return obj.ID, true
}

// CustomObjects returns the workspace's custom objects
func (c *Context) CustomObjects() []models.ObjectMetadata {
	return c.custom
}

// ObjectTarget is the compiled target of one workspace object
type ObjectTarget struct {
	ObjectMetadataID string
	ObjectIsSystem   bool
	Specs            []models.FieldSpec
	Dynamic          []models.DynamicRelationSpec
	// Suppressed standard ids were left out on purpose (gated off, deferred,
	// not eligible). Persisted rows carrying them must not be deleted.
	Suppressed map[string]bool
}

func newObjectTarget(objectID string, isSystem bool) *ObjectTarget {
	return &ObjectTarget{
		ObjectMetadataID: objectID,
		ObjectIsSystem:   isSystem,
		Suppressed:       make(map[string]bool),
	}
}

func (t *ObjectTarget) suppress(ids ...string) {
	for _, id := range ids {
		if id != "" {
			t.Suppressed[id] = true
		}
	}
}
