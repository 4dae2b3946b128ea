package constants

// Column names shared by the metadata tables.
const (
	FieldID          = "id"
	FieldWorkspaceID = "workspace_id"
	FieldStandardID  = "standard_id"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
	FieldIsCustom    = "is_custom"
	FieldIsSystem    = "is_system"
	FieldIsActive    = "is_active"
	FieldLabel       = "label"
	FieldDescription = "description"
	FieldIcon        = "icon"
)

// _System_Object columns
const (
	FieldSysObject_NameSingular  = "name_singular"
	FieldSysObject_NamePlural    = "name_plural"
	FieldSysObject_LabelSingular = "label_singular"
	FieldSysObject_LabelPlural   = "label_plural"
	FieldSysObject_Capabilities  = "capabilities"
)

// _System_Field columns
const (
	FieldSysField_ObjectMetadataID    = "object_metadata_id"
	FieldSysField_Name                = "name"
	FieldSysField_Type                = "type"
	FieldSysField_DefaultValue        = "default_value"
	FieldSysField_Options             = "options"
	FieldSysField_Settings            = "settings"
	FieldSysField_IsNullable          = "is_nullable"
	FieldSysField_IsUnique            = "is_unique"
	FieldSysField_GeneratedExpression = "generated_expression"
	FieldSysField_GeneratedStorage    = "generated_storage"
	FieldSysField_Relation            = "relation"
)

// _System_FeatureFlag columns
const (
	FieldSysFeatureFlag_Key   = "flag_key"
	FieldSysFeatureFlag_Value = "value"
)

// Physical columns every tenant data table carries regardless of field metadata
const (
	ColumnID = "id"
)
