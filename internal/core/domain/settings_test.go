package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultExecutionSettings(t *testing.T) {
	settings := DefaultExecutionSettings()

	assert.True(t, settings.AllowedCommands.IsEmpty())
	assert.True(t, settings.AsyncExecution)
	assert.Equal(t, time.Duration(0), settings.ExecutionDelay)
	assert.False(t, settings.ShowCompletionNotifications)
	assert.Zero(t, settings.SubmitRateLimit)
	assert.Equal(t, 1, settings.SubmitBurst)
	assert.Equal(t, 100*time.Millisecond, settings.PollInterval)
	assert.NoError(t, settings.Validate())
}

func TestExecutionSettings_Mode(t *testing.T) {
	settings := DefaultExecutionSettings()
	assert.Equal(t, ExecutionAsync, settings.Mode())

	settings.AsyncExecution = false
	assert.Equal(t, ExecutionSync, settings.Mode())
}

func TestExecutionMode_Description(t *testing.T) {
	assert.Contains(t, ExecutionSync.Description(), "Synchronous")
	assert.Contains(t, ExecutionAsync.Description(), "Asynchronous")
	assert.Equal(t, "Unknown", ExecutionMode("other").Description())
}

func TestExecutionSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ExecutionSettings)
	}{
		{"negative delay", func(s *ExecutionSettings) { s.ExecutionDelay = -time.Second }},
		{"negative rate", func(s *ExecutionSettings) { s.SubmitRateLimit = -1 }},
		{"zero poll interval", func(s *ExecutionSettings) { s.PollInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultExecutionSettings()
			tt.modify(&settings)
			assert.ErrorIs(t, settings.Validate(), ErrInvalidInput)
		})
	}
}
