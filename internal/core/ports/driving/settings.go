package driving

import (
	"context"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// SettingsService reads execution settings from configuration.
type SettingsService interface {
	// Get builds a settings snapshot from the current configuration.
	Get() (*domain.ExecutionSettings, error)

	// Refresh reloads configuration and applies the new snapshot.
	Refresh(ctx context.Context) (*domain.RefreshReport, error)

	// GetDefaults returns default settings.
	GetDefaults() domain.ExecutionSettings
}
