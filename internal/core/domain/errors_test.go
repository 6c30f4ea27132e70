package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNotImplemented", ErrNotImplemented},
		{"ErrStore", ErrStore},
		{"ErrBrokerUnavailable", ErrBrokerUnavailable},
		{"ErrPublishFailed", ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestValidationError_IsInvalidInput(t *testing.T) {
	err := NewValidationError("title", "Title is required")

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "invalid input: title: Title is required", err.Error())
}

func TestValidationError_AsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("creating task: %w", NewValidationError("status", "Invalid value"))

	var verr *ValidationError
	assert.True(t, errors.As(wrapped, &verr))
	assert.Equal(t, []Violation{{Field: "status", Message: "Invalid value"}}, verr.Violations)
}

func TestValidationError_OrNil(t *testing.T) {
	var empty ValidationError
	assert.NoError(t, empty.OrNil())

	var nilErr *ValidationError
	assert.NoError(t, nilErr.OrNil())

	empty.Add("title", "Title is required")
	empty.Add("dueDate", "Invalid value")
	err := empty.OrNil()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "title: Title is required; dueDate: Invalid value")
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrNotFound))
	assert.True(t, IsClientError(fmt.Errorf("get: %w", ErrNotFound)))
	assert.True(t, IsClientError(NewValidationError("id", "Invalid task ID")))
	assert.False(t, IsClientError(ErrStore))
	assert.False(t, IsClientError(fmt.Errorf("%w: dial refused", ErrBrokerUnavailable)))
}
