package constants

// FieldType is the closed set of field metadata types
type FieldType string

const (
	FieldTypeText        FieldType = "TEXT"
	FieldTypeNumber      FieldType = "NUMBER"
	FieldTypeNumeric     FieldType = "NUMERIC"
	FieldTypeBoolean     FieldType = "BOOLEAN"
	FieldTypeDate        FieldType = "DATE"
	FieldTypeDateTime    FieldType = "DATE_TIME"
	FieldTypeSelect      FieldType = "SELECT"
	FieldTypeMultiSelect FieldType = "MULTI_SELECT"
	FieldTypeUUID        FieldType = "UUID"
	FieldTypeRelation    FieldType = "RELATION"
	FieldTypeTSVector    FieldType = "TS_VECTOR"
	FieldTypeRawJSON     FieldType = "RAW_JSON"
	FieldTypePosition    FieldType = "POSITION"
	FieldTypeFullName    FieldType = "FULL_NAME"
	FieldTypeAddress     FieldType = "ADDRESS"
	FieldTypeEmails      FieldType = "EMAILS"
	FieldTypePhones      FieldType = "PHONES"
	FieldTypeLinks       FieldType = "LINKS"
	FieldTypeCurrency    FieldType = "CURRENCY"
	FieldTypeActor       FieldType = "ACTOR"
)

// GetAllFieldTypes returns all valid field types
func GetAllFieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeNumber,
		FieldTypeNumeric,
		FieldTypeBoolean,
		FieldTypeDate,
		FieldTypeDateTime,
		FieldTypeSelect,
		FieldTypeMultiSelect,
		FieldTypeUUID,
		FieldTypeRelation,
		FieldTypeTSVector,
		FieldTypeRawJSON,
		FieldTypePosition,
		FieldTypeFullName,
		FieldTypeAddress,
		FieldTypeEmails,
		FieldTypePhones,
		FieldTypeLinks,
		FieldTypeCurrency,
		FieldTypeActor,
	}
}

// IsValidFieldType reports whether t belongs to the closed set
func IsValidFieldType(t FieldType) bool {
	for _, ft := range GetAllFieldTypes() {
		if ft == t {
			return true
		}
	}
	return false
}

// RelationCardinality describes how many records sit on each side of a relation
type RelationCardinality string

const (
	RelationOneToOne  RelationCardinality = "ONE_TO_ONE"
	RelationOneToMany RelationCardinality = "ONE_TO_MANY"
	RelationManyToOne RelationCardinality = "MANY_TO_ONE"
)

// IsValidCardinality reports whether c is a known relation cardinality
func IsValidCardinality(c RelationCardinality) bool {
	switch c {
	case RelationOneToOne, RelationOneToMany, RelationManyToOne:
		return true
	}
	return false
}

// OnDeleteAction is the referential action of a foreign key
type OnDeleteAction string

const (
	OnDeleteCascade  OnDeleteAction = "CASCADE"
	OnDeleteSetNull  OnDeleteAction = "SET NULL"
	OnDeleteRestrict OnDeleteAction = "RESTRICT"
)

// StorageMode is how a generated column is materialized
type StorageMode string

const (
	StorageModeStored  StorageMode = "STORED"
	StorageModeVirtual StorageMode = "VIRTUAL"
)

// SyncAction classifies one comparator result
type SyncAction string

const (
	ActionCreate SyncAction = "CREATE"
	ActionUpdate SyncAction = "UPDATE"
	ActionDelete SyncAction = "DELETE"
)

// SyncMode selects how target field specs are compiled for a deployment
type SyncMode string

const (
	// SyncModeGenesis compiles target specs from the code Definition Model
	SyncModeGenesis SyncMode = "genesis"
	// SyncModeReference re-projects a reference workspace's persisted standard fields
	SyncModeReference SyncMode = "reference"
)

// IsValidSyncMode reports whether m is a known sync mode
func IsValidSyncMode(m SyncMode) bool {
	return m == SyncModeGenesis || m == SyncModeReference
}
