package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nexuscrm/fieldsync/internal/domain/definition"
	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/internal/domain/ports"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	appErrors "github.com/nexuscrm/fieldsync/pkg/errors"
	"github.com/nexuscrm/fieldsync/pkg/expression"
)

// ResolverRegistry holds the dynamic relation resolvers by name
type ResolverRegistry struct {
	resolvers map[string]ports.DynamicRelationResolver
	mu        sync.RWMutex
}

// NewResolverRegistry returns a registry with the built-in resolvers
func NewResolverRegistry() *ResolverRegistry {
	r := &ResolverRegistry{resolvers: make(map[string]ports.DynamicRelationResolver)}
	r.Register(constants.ResolverCapability, &CapabilityResolver{})
	r.Register(constants.ResolverExpression, NewExpressionResolver())
	return r
}

// Register adds or replaces a resolver
func (r *ResolverRegistry) Register(name string, resolver ports.DynamicRelationResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[name] = resolver
}

// Get returns the resolver registered under name
func (r *ResolverRegistry) Get(name string) (ports.DynamicRelationResolver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resolver, ok := r.resolvers[name]
	return resolver, ok
}

// CheckDefinitions verifies every dynamic relation of the Definition Model
// names a registered resolver with usable arguments
func (r *ResolverRegistry) CheckDefinitions(registry *definition.Registry) error {
	for _, obj := range registry.Objects() {
		for i := range obj.DynamicRelations {
			dyn := &obj.DynamicRelations[i]
			subject := fmt.Sprintf("object %s dynamic relation %s", obj.NameSingular, dyn.Name)
			resolver, ok := r.Get(dyn.Resolver.Name)
			if !ok {
				return appErrors.NewConfigurationError(subject, fmt.Sprintf("unknown resolver %q", dyn.Resolver.Name))
			}
			if _, _, err := resolver.Resolve(dyn, nil); err != nil {
				return appErrors.NewConfigurationError(subject, err.Error())
			}
		}
	}
	return nil
}

// candidates returns the active custom objects sorted by singular name
func candidates(customObjects []models.ObjectMetadata) []models.ObjectMetadata {
	out := make([]models.ObjectMetadata, 0, len(customObjects))
	for _, obj := range customObjects {
		if obj.IsCustom && obj.IsActive {
			out = append(out, obj)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NameSingular < out[j].NameSingular
	})
	return out
}

// CapabilityResolver targets the first custom object declaring a capability.
// Args: capability.
type CapabilityResolver struct{}

// Resolve implements ports.DynamicRelationResolver
func (r *CapabilityResolver) Resolve(def *definition.DynamicRelationDefinition, customObjects []models.ObjectMetadata) (*models.ObjectMetadata, bool, error) {
	capability := def.Resolver.Args["capability"]
	if capability == "" {
		return nil, false, fmt.Errorf("capability resolver requires a capability argument")
	}
	for _, obj := range candidates(customObjects) {
		if obj.HasCapability(capability) {
			found := obj
			return &found, true, nil
		}
	}
	return nil, false, nil
}

// ExpressionResolver targets the first custom object matching an expr-lang
// predicate. Args: predicate. The predicate sees nameSingular, namePlural,
// labelSingular, labelPlural, capabilities, isActive and isSystem.
type ExpressionResolver struct {
	engine *expression.PredicateEngine
}

// NewExpressionResolver creates an ExpressionResolver
func NewExpressionResolver() *ExpressionResolver {
	return &ExpressionResolver{engine: expression.NewPredicateEngine()}
}

func objectEnv(obj *models.ObjectMetadata) map[string]interface{} {
	capabilities := obj.Capabilities
	if capabilities == nil {
		capabilities = []string{}
	}
	return map[string]interface{}{
		"nameSingular":  obj.NameSingular,
		"namePlural":    obj.NamePlural,
		"labelSingular": obj.LabelSingular,
		"labelPlural":   obj.LabelPlural,
		"capabilities":  capabilities,
		"isActive":      obj.IsActive,
		"isSystem":      obj.IsSystem,
	}
}

// Resolve implements ports.DynamicRelationResolver
func (r *ExpressionResolver) Resolve(def *definition.DynamicRelationDefinition, customObjects []models.ObjectMetadata) (*models.ObjectMetadata, bool, error) {
	predicate := def.Resolver.Args["predicate"]
	if predicate == "" {
		return nil, false, fmt.Errorf("expr resolver requires a predicate argument")
	}
	if err := r.engine.Check(predicate, objectEnv(&models.ObjectMetadata{})); err != nil {
		return nil, false, err
	}
	for _, obj := range candidates(customObjects) {
		matched, err := r.engine.Match(predicate, objectEnv(&obj))
		if err != nil {
			return nil, false, err
		}
		if matched {
			found := obj
			return &found, true, nil
		}
	}
	return nil, false, nil
}
