package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("text", "text is required")
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "invalid text: text is required", err.Error())

	// Still detectable through wrapping.
	wrapped := fmt.Errorf("generate: %w", err)
	assert.True(t, IsValidation(wrapped))
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("persona", "narrator")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsGeneration(err))
	assert.Equal(t, "persona not found: narrator", err.Error())
}

func TestGenerationErrorPreservesCause(t *testing.T) {
	cause := errors.New("audio prompt unreadable")
	err := NewGenerationError(cause)

	assert.True(t, IsGeneration(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "audio prompt unreadable")
}
