package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorHelpers(t *testing.T) {
	cause := fmt.Errorf("connection reset")

	tests := []struct {
		name  string
		err   error
		check func(error) bool
		code  string
	}{
		{"configuration", NewConfigurationError("object company", "missing standard_id"), IsConfiguration, "CONFIGURATION_ERROR"},
		{"not found", NewNotFoundError("workspace", "ws-1"), IsNotFound, "NOT_FOUND"},
		{"validation", NewValidationError("mode", "unknown"), IsValidation, "VALIDATION_ERROR"},
		{"conflict", NewConflictError("field", "standard_id", "abc"), IsConflict, "CONFLICT"},
		{"apply", NewApplyError("ws-1", cause), IsApply, "APPLY_FAILED"},
		{"migration", NewMigrationError("ws-1", "ALTER TABLE x", cause), IsMigration, "MIGRATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("sync failed: %w", tt.err)
			assert.True(t, tt.check(wrapped))
			assert.Equal(t, tt.code, GetErrorCode(wrapped))
		})
	}
}

func TestApplyErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("deadlock")
	err := NewApplyError("ws-1", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ws-1")
	assert.Equal(t, "UNKNOWN_ERROR", GetErrorCode(cause))
}
