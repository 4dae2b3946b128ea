package ports

import (
	"github.com/nexuscrm/fieldsync/internal/domain/definition"
	"github.com/nexuscrm/fieldsync/internal/domain/models"
)

// DynamicRelationResolver finds the concrete target of a dynamic relation
// among a workspace's custom objects.
type DynamicRelationResolver interface {
	// Resolve returns the target and true, or false when no custom object
	// qualifies yet. An error means the definition itself is unusable.
	Resolve(def *definition.DynamicRelationDefinition, customObjects []models.ObjectMetadata) (*models.ObjectMetadata, bool, error)
}

// ResolverRegistry looks resolvers up by the name used in definitions.
type ResolverRegistry interface {
	Get(name string) (DynamicRelationResolver, bool)
}
