package config

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"busmap.mbtatools.org/internal/report"
	"busmap.mbtatools.org/internal/utils"
	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the configuration document.
const (
	EnvAPIKey            = "MBTA_API_KEY"
	EnvBaseURL           = "MBTA_BASE_URL"
	EnvVehiclePositions  = "GTFS_RT_VEHICLE_POSITIONS_URL"
	EnvConfigAuthUser    = "CONFIG_AUTH_USER"
	EnvConfigAuthPass    = "CONFIG_AUTH_PASS"
	defaultMaxRetries    = 5
	settingsFormatJSON   = "json"
	settingsFormatYAML   = "yaml"
	yamlContentTypeToken = "yaml"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateConfigFlags ensures that at most one configuration source is specified:
// either a config file "--config-file" or a remote config URL "--config-url".
// Neither is fine: the API key can come from the environment alone.
func ValidateConfigFlags(configFile, configURL *string) error {
	if (*configFile != "" && *configURL != "") || (*configFile != "" && len(flag.Args()) > 0) || (*configURL != "" && len(flag.Args()) > 0) {
		return fmt.Errorf("only one of --config-file or --config-url can be specified")
	}
	return nil
}

// ValidateFeed checks the --feed flag value.
func ValidateFeed(feed string) error {
	switch feed {
	case FeedMBTA, FeedGtfsRt:
		return nil
	}
	return fmt.Errorf("unknown vehicle feed %q, expected %q or %q", feed, FeedMBTA, FeedGtfsRt)
}

// ApplyEnvironment overrides settings with the values of the MBTA_* and GTFS_RT_*
// environment variables that are set.
func ApplyEnvironment(settings Settings) Settings {
	if v := os.Getenv(EnvAPIKey); v != "" {
		settings.ApiKey = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		settings.BaseURL = v
	}
	if v := os.Getenv(EnvVehiclePositions); v != "" {
		settings.GtfsRtVehiclePositionsURL = v
	}
	return settings
}

// ValidateSettings checks the tunables and URLs of a settings document.
func ValidateSettings(settings Settings) error {
	if err := validate.Struct(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// refreshConfig starts a loop that periodically fetches the configuration document
// from a remote URL and swaps it into cfg, so that API keys can be rotated without
// a restart.
//
// Failures are logged and reported to Sentry. The next attempt is delayed by the
// backoff recorded for the URL in store, and a successful fetch resets it.
//
// The first fetch happens one interval after start; the caller loads the initial
// document. The routine stops gracefully when the context is canceled.
func refreshConfig(ctx context.Context, client *http.Client, configURL, configAuthUser, configAuthPass string, cfg *Config, store *BackoffStore, logger *slog.Logger, interval time.Duration) {
	wait := interval
	for {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Stopping config refresh routine")
			return
		case <-timer.C:
		}

		wait = interval
		settings, err := loadConfigFromURL(ctx, client, configURL, configAuthUser, configAuthPass, 1)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Stopping config refresh routine")
				return
			}
			store.UpdateBackoff(configURL)
			if next, ok := store.NextRetryAt(configURL); ok {
				wait = time.Until(next)
			}
			logger.Error("Failed to refresh remote config", "error", err, "retry_in", wait)
		} else {
			store.ResetBackoff(configURL)
			cfg.UpdateConfig(ApplyEnvironment(settings))
			logger.Info("Successfully refreshed configuration")
		}
	}
}

// loadConfigFromFile reads a configuration document from disk. Files ending in
// .yml or .yaml are parsed as YAML, anything else as JSON.
func loadConfigFromFile(filePath string) (Settings, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return Settings{}, fmt.Errorf("failed to read config file: %w", err)
	}

	format := settingsFormatJSON
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yml", ".yaml":
		format = settingsFormatYAML
	}

	settings, err := parseSettings(data, format)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return Settings{}, err
	}

	return settings, nil
}

// loadConfigFromURL fetches a configuration document from a remote HTTP(S) endpoint,
// using the provided client and optional basic authentication. A Content-Type or
// path mentioning yaml selects the YAML parser.
func loadConfigFromURL(ctx context.Context, client *http.Client, url, authUser, authPass string, maxRetries int) (Settings, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, fmt.Errorf("failed to create request: %w", err)
	}

	if authUser != "" && authPass != "" {
		req.SetBasicAuth(authUser, authPass)
	}

	resp, err := DoWithBackoff(ctx, client, req, maxRetries)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, fmt.Errorf("failed to fetch remote config: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("remote config returned status: %d", resp.StatusCode)
		report.ReportErrorWithSentryOptions(statusErr, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, statusErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, fmt.Errorf("failed to read remote config: %w", err)
	}

	format := settingsFormatJSON
	if strings.Contains(resp.Header.Get("Content-Type"), yamlContentTypeToken) ||
		strings.HasSuffix(req.URL.Path, ".yml") || strings.HasSuffix(req.URL.Path, ".yaml") {
		format = settingsFormatYAML
	}

	settings, err := parseSettings(data, format)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, err
	}

	return settings, nil
}

func parseSettings(data []byte, format string) (Settings, error) {
	var settings Settings
	switch format {
	case settingsFormatYAML:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return Settings{}, fmt.Errorf("failed to unmarshal YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &settings); err != nil {
			return Settings{}, fmt.Errorf("failed to unmarshal JSON: %w", err)
		}
	}

	if err := ValidateSettings(settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}
