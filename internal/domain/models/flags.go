package models

// FeatureFlagMap is the set of feature flags of one workspace
type FeatureFlagMap map[string]bool

// IsEnabled reports whether a flag is on. Absent flags are disabled.
func (m FeatureFlagMap) IsEnabled(name string) bool {
	if m == nil {
		return false
	}
	return m[name]
}

// GateOpen reports whether a gate admits the field. An empty gate always does.
func (m FeatureFlagMap) GateOpen(gate string) bool {
	return gate == "" || m.IsEnabled(gate)
}

// GatesOpen reports whether every gate admits the field
func (m FeatureFlagMap) GatesOpen(gates []string) bool {
	for _, g := range gates {
		if !m.GateOpen(g) {
			return false
		}
	}
	return true
}
