package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driven"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driving"
	"github.com/custodia-labs/cmdbridge/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for execution settings.
const (
	keyAllowedCommands   = "execution.allowed_commands"
	keyAsyncExecution    = "execution.async"
	keyExecutionDelayMs  = "execution.delay_ms"
	keyShowNotifications = "execution.show_completion_notifications"
	keyRateLimit         = "execution.rate_limit"
	keyRateBurst         = "execution.rate_burst"
	keyPollIntervalMs    = "scheduler.poll_interval_ms"
)

// ErrNoGateway is returned by Refresh when no gateway is attached.
var ErrNoGateway = errors.New("settings: no command gateway attached")

// SettingsService builds execution settings snapshots from configuration
// and pushes them to the gateway on refresh.
type SettingsService struct {
	configStore driven.ConfigStore
	gateway     driving.CommandGateway
}

// NewSettingsService creates a new settings service.
// gateway may be nil for read-only use.
func NewSettingsService(configStore driven.ConfigStore, gateway driving.CommandGateway) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		gateway:     gateway,
	}
}

// Get builds a settings snapshot from the current configuration.
// Missing keys take their defaults; negative values are clamped to zero.
func (s *SettingsService) Get() (*domain.ExecutionSettings, error) {
	defaults := domain.DefaultExecutionSettings()

	settings := &domain.ExecutionSettings{
		AllowedCommands:             domain.AllowList(s.configStore.GetStringSlice(keyAllowedCommands)).Normalise(),
		AsyncExecution:              s.getBool(keyAsyncExecution, defaults.AsyncExecution),
		ExecutionDelay:              s.getMillis(keyExecutionDelayMs, defaults.ExecutionDelay),
		ShowCompletionNotifications: s.getBool(keyShowNotifications, defaults.ShowCompletionNotifications),
		SubmitRateLimit:             s.getFloat(keyRateLimit, defaults.SubmitRateLimit),
		SubmitBurst:                 s.getInt(keyRateBurst, defaults.SubmitBurst),
		PollInterval:                s.getMillis(keyPollIntervalMs, defaults.PollInterval),
	}

	if settings.PollInterval <= 0 {
		logger.Warn("%s must be positive, using %s", keyPollIntervalMs, defaults.PollInterval)
		settings.PollInterval = defaults.PollInterval
	}
	if settings.SubmitBurst < 1 {
		settings.SubmitBurst = defaults.SubmitBurst
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Refresh reloads configuration and applies the new snapshot.
func (s *SettingsService) Refresh(ctx context.Context) (*domain.RefreshReport, error) {
	if s.gateway == nil {
		return nil, ErrNoGateway
	}

	if err := s.configStore.Load(); err != nil {
		return nil, fmt.Errorf("reload config: %w", err)
	}

	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	report := s.gateway.Apply(ctx, *settings)
	logger.Debug("settings: refreshed from %s", s.configStore.Path())
	return &report, nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.ExecutionSettings {
	return domain.DefaultExecutionSettings()
}

// Helper methods

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getMillis reads a millisecond count. Negative values become zero.
func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	ms := s.configStore.GetInt(key)
	if ms < 0 {
		logger.Warn("%s is negative (%d), using 0", key, ms)
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}

// getFloat reads a number that TOML may have parsed as int64 or float64.
// Negative values become zero.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	raw, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}

	var val float64
	switch v := raw.(type) {
	case float64:
		val = v
	case int64:
		val = float64(v)
	case int:
		val = float64(v)
	default:
		logger.Warn("%s must be a number, using %v", key, defaultVal)
		return defaultVal
	}

	if val < 0 {
		logger.Warn("%s is negative (%v), using 0", key, val)
		return 0
	}
	return val
}
