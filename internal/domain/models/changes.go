package models

// FieldUpdate pairs a persisted row with its reconciled state
type FieldUpdate struct {
	Before  FieldMetadata
	After   FieldMetadata
	Changed []string
}

// FieldChangeSet is the full set of field mutations of one workspace pass
type FieldChangeSet struct {
	ToCreate []FieldMetadata
	ToUpdate []FieldUpdate
	ToDelete []FieldMetadata
}

// IsEmpty reports whether the change set holds no mutation
func (c FieldChangeSet) IsEmpty() bool {
	return len(c.ToCreate) == 0 && len(c.ToUpdate) == 0 && len(c.ToDelete) == 0
}

// ApplyResult carries the rows as persisted by the metadata store
type ApplyResult struct {
	Created []FieldMetadata
	Updated []FieldUpdate
	Deleted []FieldMetadata
}
