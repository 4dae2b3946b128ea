package definition

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed standard_objects.json custom_object_template.json
var definitionsFS embed.FS

// Registry is the immutable Definition Model: the standard objects and the
// custom-object template compiled into the binary.
type Registry struct {
	objects      []ObjectDefinition
	byStandardID map[string]int
	gates        map[string][]string
	dynamicIDs   map[string]bool
	template     CustomObjectTemplate
}

var (
	defaultRegistry *Registry
	defaultErr      error
	once            sync.Once
)

// Default returns the registry loaded from the embedded definitions
func Default() (*Registry, error) {
	once.Do(func() {
		defaultRegistry, defaultErr = Load()
	})
	return defaultRegistry, defaultErr
}

// Load parses and validates the embedded definitions
func Load() (*Registry, error) {
	var objects []ObjectDefinition
	if err := readEmbedded("standard_objects.json", &objects); err != nil {
		return nil, err
	}
	var template CustomObjectTemplate
	if err := readEmbedded("custom_object_template.json", &template); err != nil {
		return nil, err
	}
	return NewRegistry(objects, template)
}

func readEmbedded(name string, v interface{}) error {
	data, err := definitionsFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// NewRegistry validates the definitions and indexes them
func NewRegistry(objects []ObjectDefinition, template CustomObjectTemplate) (*Registry, error) {
	r := &Registry{
		objects:      objects,
		byStandardID: make(map[string]int, len(objects)),
		gates:        make(map[string][]string),
		dynamicIDs:   make(map[string]bool),
		template:     template,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	for i := range objects {
		obj := &objects[i]
		r.byStandardID[obj.StandardID] = i
		r.index(obj)
	}
	for _, f := range template.Fields {
		r.gates[f.StandardID] = gateList(f.Gate)
	}
	return r, nil
}

func (r *Registry) index(obj *ObjectDefinition) {
	for _, f := range obj.Fields {
		r.gates[f.StandardID] = gateList(obj.Gate, f.Gate)
	}
	for i := range obj.Relations {
		rel := &obj.Relations[i]
		gates := gateList(obj.Gate, rel.Gate)
		r.gates[rel.StandardID] = gates
		if fkID, _ := rel.JoinColumnID(); fkID != "" {
			r.gates[fkID] = gates
		}
	}
	for i := range obj.DynamicRelations {
		dyn := &obj.DynamicRelations[i]
		gates := gateList(obj.Gate, dyn.Gate)
		r.gates[dyn.StandardID] = gates
		r.dynamicIDs[dyn.StandardID] = true
		if fkID, _ := dyn.JoinColumnID(); fkID != "" {
			r.gates[fkID] = gates
			r.dynamicIDs[fkID] = true
		}
	}
}

func gateList(gates ...string) []string {
	var out []string
	for _, g := range gates {
		if g != "" {
			out = append(out, g)
		}
	}
	return out
}

// Objects returns the standard object definitions in declaration order
func (r *Registry) Objects() []ObjectDefinition {
	return r.objects
}

// Object returns the object definition with the given standard id
func (r *Registry) Object(standardID string) (*ObjectDefinition, bool) {
	i, ok := r.byStandardID[standardID]
	if !ok {
		return nil, false
	}
	return &r.objects[i], true
}

// Template returns the custom-object template
func (r *Registry) Template() *CustomObjectTemplate {
	return &r.template
}

// GatesFor returns the feature flags that must all be enabled for a field,
// relation or join column standard id to be materialized. The second value
// is false when the id is not declared in code.
func (r *Registry) GatesFor(standardID string) ([]string, bool) {
	gates, ok := r.gates[standardID]
	return gates, ok
}

// IsDynamicRelationID reports whether the standard id belongs to a dynamic
// relation or to its join column
func (r *Registry) IsDynamicRelationID(standardID string) bool {
	return r.dynamicIDs[standardID]
}

// ObjectByName returns the object definition with the given singular name
func (r *Registry) ObjectByName(nameSingular string) (*ObjectDefinition, bool) {
	for i := range r.objects {
		if r.objects[i].NameSingular == nameSingular {
			return &r.objects[i], true
		}
	}
	return nil, false
}
