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
		{"ErrInvalidTransition", ErrInvalidTransition},
		{"ErrNotAllowed", ErrNotAllowed},
		{"ErrUnknownTool", ErrUnknownTool},
		{"ErrMissingParameter", ErrMissingParameter},
		{"ErrInvalidParameter", ErrInvalidParameter},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrHostExecution", ErrHostExecution},
		{"ErrNoActiveContext", ErrNoActiveContext},
		{"ErrUnknownCommand", ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestReasonFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureReason
	}{
		{"not allowed", ErrNotAllowed, ReasonNotAllowed},
		{"wrapped not allowed", fmt.Errorf("%w: rm.rf", ErrNotAllowed), ReasonNotAllowed},
		{"unknown tool", ErrUnknownTool, ReasonUnknownTool},
		{"missing parameter", ErrMissingParameter, ReasonMissingParameter},
		{"invalid parameter", ErrInvalidParameter, ReasonInvalidParameter},
		{"rate limited", ErrRateLimited, ReasonRateLimited},
		{"host failure", fmt.Errorf("%w: boom", ErrHostExecution), ReasonHostExecution},
		{"anything else", errors.New("disk on fire"), ReasonInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReasonFor(tt.err))
		})
	}
}

func TestFailure(t *testing.T) {
	result := Failure(fmt.Errorf("%w: command", ErrMissingParameter))

	assert.False(t, result.Success)
	assert.Equal(t, "missing parameter: command", result.Error)
	assert.Equal(t, ReasonMissingParameter, result.Reason)
	assert.Nil(t, result.CommandPayload)
}
