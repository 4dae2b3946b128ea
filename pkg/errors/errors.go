package errors

import (
	"errors"
	"fmt"
)

// AppError is the base interface for all engine errors
type AppError interface {
	error
	Code() string
}

// ConfigurationError signals a Definition Model bug. It is never tenant specific
// and aborts the whole pass.
type ConfigurationError struct {
	Subject string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Subject, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Code() string {
	return "CONFIGURATION_ERROR"
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(subject, message string) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Message: message}
}

// NotFoundError represents a resource that was not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Code() string {
	return "NOT_FOUND"
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents invalid input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Code() string {
	return "VALIDATION_ERROR"
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError represents persisted data violating a uniqueness invariant
type ConflictError struct {
	Resource string
	Field    string
	Value    string
}

func (e *ConflictError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("%s already exists with %s='%s'", e.Resource, e.Field, e.Value)
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

func (e *ConflictError) Code() string {
	return "CONFLICT"
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource, field, value string) *ConflictError {
	return &ConflictError{Resource: resource, Field: field, Value: value}
}

// ApplyError wraps a failure of the metadata store while applying a sync plan
type ApplyError struct {
	WorkspaceID string
	Cause       error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to apply field metadata for workspace %s: %v", e.WorkspaceID, e.Cause)
}

func (e *ApplyError) Code() string {
	return "APPLY_FAILED"
}

func (e *ApplyError) Unwrap() error {
	return e.Cause
}

// NewApplyError creates a new ApplyError
func NewApplyError(workspaceID string, cause error) *ApplyError {
	return &ApplyError{WorkspaceID: workspaceID, Cause: cause}
}

// MigrationError wraps a failure of the physical schema executor
type MigrationError struct {
	WorkspaceID string
	Statement   string
	Cause       error
}

func (e *MigrationError) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("migration failed for workspace %s (%s): %v", e.WorkspaceID, e.Statement, e.Cause)
	}
	return fmt.Sprintf("migration failed for workspace %s: %v", e.WorkspaceID, e.Cause)
}

func (e *MigrationError) Code() string {
	return "MIGRATION_FAILED"
}

func (e *MigrationError) Unwrap() error {
	return e.Cause
}

// NewMigrationError creates a new MigrationError
func NewMigrationError(workspaceID, statement string, cause error) *MigrationError {
	return &MigrationError{WorkspaceID: workspaceID, Statement: statement, Cause: cause}
}

// InternalError represents unexpected failures
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s (caused by: %v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e *InternalError) Code() string {
	return "INTERNAL_ERROR"
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{Message: message, Cause: cause}
}

// Helper functions for error checking

// IsConfiguration checks if an error is a ConfigurationError
func IsConfiguration(err error) bool {
	var cfg *ConfigurationError
	return errors.As(err, &cfg)
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// IsApply checks if an error is an ApplyError
func IsApply(err error) bool {
	var apply *ApplyError
	return errors.As(err, &apply)
}

// IsMigration checks if an error is a MigrationError
func IsMigration(err error) bool {
	var migration *MigrationError
	return errors.As(err, &migration)
}

// GetErrorCode returns the error code for an error
// Returns "UNKNOWN_ERROR" if the error doesn't implement AppError
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}
