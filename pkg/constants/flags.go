package constants

// Feature flags referenced by the standard Definition Model gates
const (
	FlagWorkflowEnabled      = "IS_WORKFLOW_ENABLED"
	FlagAIEnabled            = "IS_AI_ENABLED"
	FlagTimelineLinksEnabled = "IS_TIMELINE_LINKS_ENABLED"
)

// Resolver names for dynamic relations
const (
	ResolverCapability = "capability"
	ResolverExpression = "expr"
)

// Capabilities custom objects may declare
const (
	CapabilityTimeline = "timeline"
	CapabilityPrimary  = "primary"
)
