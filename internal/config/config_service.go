package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"busmap.mbtatools.org/internal/report"
	"busmap.mbtatools.org/internal/utils"
	"github.com/getsentry/sentry-go"
)

// ConfigService holds dependencies and provides config operations.
type ConfigService struct {
	Logger   *slog.Logger
	Client   *http.Client
	Config   *Config
	Backoffs *BackoffStore
}

// NewConfigService creates a new ConfigService instance with the provided logger and HTTP client.
func NewConfigService(logger *slog.Logger, client *http.Client, config *Config) *ConfigService {
	return &ConfigService{
		Logger:   logger,
		Client:   client,
		Config:   config,
		Backoffs: NewBackoffStore(),
	}
}

// RefreshConfig re-fetches the remote configuration every interval until ctx is done.
func (cs *ConfigService) RefreshConfig(ctx context.Context, url, authUser, authPass string, interval time.Duration) {
	refreshConfig(ctx, cs.Client, url, authUser, authPass, cs.Config, cs.Backoffs, cs.Logger, interval)
}

// exported helper functions

// LoadConfigFromFile loads and validates a configuration document from disk.
func LoadConfigFromFile(filePath string) (Settings, error) {
	settings, err := loadConfigFromFile(filePath)
	if err != nil {
		err := fmt.Errorf("failed to load config from file %s: %w", filePath, err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return Settings{}, err
	}
	return settings, nil
}

// LoadConfigFromURL loads and validates a configuration document from a remote URL,
// retrying transient failures with backoff.
func LoadConfigFromURL(ctx context.Context, client *http.Client, url, authUser, authPass string) (Settings, error) {
	settings, err := loadConfigFromURL(ctx, client, url, authUser, authPass, defaultMaxRetries)
	if err != nil {
		err := fmt.Errorf("failed to load config from URL %s: %w", url, err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, err
	}
	return settings, nil
}
