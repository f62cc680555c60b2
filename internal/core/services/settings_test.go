package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cmdbridge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

func TestSettingsService_Get_Defaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, svc.GetDefaults(), *settings)
	assert.True(t, settings.AsyncExecution)
	assert.Equal(t, time.Duration(0), settings.ExecutionDelay)
	assert.Equal(t, domain.DefaultPollInterval, settings.PollInterval)
	assert.True(t, settings.AllowedCommands.IsEmpty())
}

func TestSettingsService_Get_FromConfig(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"execution.allowed_commands":              []any{"git.*", " make.build ", ""},
		"execution.async":                         false,
		"execution.delay_ms":                      int64(1500),
		"execution.show_completion_notifications": true,
		"execution.rate_limit":                    2.5,
		"execution.rate_burst":                    int64(4),
		"scheduler.poll_interval_ms":              int64(50),
	})
	svc := NewSettingsService(store, nil)

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.AllowList{"git.*", "make.build"}, settings.AllowedCommands)
	assert.False(t, settings.AsyncExecution)
	assert.Equal(t, domain.ExecutionSync, settings.Mode())
	assert.Equal(t, 1500*time.Millisecond, settings.ExecutionDelay)
	assert.True(t, settings.ShowCompletionNotifications)
	assert.InDelta(t, 2.5, settings.SubmitRateLimit, 1e-9)
	assert.Equal(t, 4, settings.SubmitBurst)
	assert.Equal(t, 50*time.Millisecond, settings.PollInterval)
}

func TestSettingsService_Get_ClampsInvalidValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"execution.delay_ms":         int64(-10),
		"execution.rate_limit":       int64(-3),
		"execution.rate_burst":       int64(-1),
		"scheduler.poll_interval_ms": int64(0),
	})
	svc := NewSettingsService(store, nil)

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), settings.ExecutionDelay)
	assert.Zero(t, settings.SubmitRateLimit)
	assert.Equal(t, domain.DefaultSubmitBurst, settings.SubmitBurst)
	assert.Equal(t, domain.DefaultPollInterval, settings.PollInterval)
}

func TestSettingsService_Get_RateLimitWrongType(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"execution.rate_limit": "fast"})
	svc := NewSettingsService(store, nil)

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Zero(t, settings.SubmitRateLimit)
}

func TestSettingsService_Refresh(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store, nil)
	initial, err := svc.Get()
	require.NoError(t, err)

	initial.ExecutionDelay = time.Hour
	g, scheduler, _, notifier := newTestGateway(t, *initial)
	svc = NewSettingsService(store, g)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := g.Submit(ctx, "noop.success", nil)
		require.NoError(t, err)
	}
	require.Equal(t, 3, scheduler.Stats(ctx).Pending)

	store.Stage("execution.async", false)
	report, err := svc.Refresh(ctx)
	require.NoError(t, err)

	assert.True(t, report.ModeChanged)
	assert.Equal(t, 3, report.Purged())
	assert.Len(t, notifier.Warns(), 1)
	assert.Equal(t, 0, scheduler.Stats(ctx).Pending)
	assert.False(t, g.Settings().AsyncExecution)
	assert.Equal(t, 1, store.Loads())
}

func TestSettingsService_Refresh_AllowList(t *testing.T) {
	store := memory.NewConfigStore()
	g, _, _, _ := newTestGateway(t, domain.DefaultExecutionSettings())
	svc := NewSettingsService(store, g)

	assert.True(t, g.IsAllowed("anything"))

	store.Stage("execution.allowed_commands", []any{"git.*"})
	report, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.True(t, report.AllowListChanged)
	assert.False(t, g.IsAllowed("anything"))
	assert.True(t, g.IsAllowed("git.status"))
}

func TestSettingsService_Refresh_LoadError(t *testing.T) {
	store := memory.NewConfigStore()
	g, _, _, _ := newTestGateway(t, domain.DefaultExecutionSettings())
	svc := NewSettingsService(store, g)

	loadErr := errors.New("permission denied")
	store.FailLoad(loadErr)

	report, err := svc.Refresh(context.Background())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, loadErr)
	assert.True(t, g.Settings().AsyncExecution, "settings untouched on failed reload")
}

func TestSettingsService_Refresh_NoGateway(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)

	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoGateway)
}
