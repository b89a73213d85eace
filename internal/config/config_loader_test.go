package config

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"busmap.mbtatools.org/internal/geo"
	"busmap.mbtatools.org/internal/models"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write temporary file: %v", err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Run("ValidJSON", func(t *testing.T) {
		path := writeTempConfig(t, "appsettings.json", `{"ApiKey": "test-key"}`)

		settings, err := loadConfigFromFile(path)
		if err != nil {
			t.Fatalf("loadConfigFromFile failed: %v", err)
		}
		if settings != (Settings{ApiKey: "test-key"}) {
			t.Errorf("Expected only the api key to be set, got %+v", settings)
		}
	})

	t.Run("ValidYAMLWithTunables", func(t *testing.T) {
		path := writeTempConfig(t, "appsettings.yaml", strings.Join([]string{
			"ApiKey: yaml-key",
			"BaseUrl: https://api-v3.mbta.com",
			"Padding: 1.5",
			"MinRadiusMiles: 0.25",
			"",
		}, "\n"))

		settings, err := loadConfigFromFile(path)
		if err != nil {
			t.Fatalf("loadConfigFromFile failed: %v", err)
		}
		expected := Settings{
			ApiKey:         "yaml-key",
			BaseURL:        "https://api-v3.mbta.com",
			Padding:        1.5,
			MinRadiusMiles: 0.25,
		}
		if settings != expected {
			t.Errorf("Expected %+v, got %+v", expected, settings)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		path := writeTempConfig(t, "invalid.json", `{ this is not valid JSON }`)
		if _, err := loadConfigFromFile(path); err == nil {
			t.Errorf("Expected error with invalid JSON, got none")
		}
	})

	t.Run("FailsValidation", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
		}{
			{"Padding below one", `{"ApiKey": "k", "Padding": 0.5}`},
			{"Negative radius", `{"ApiKey": "k", "MinRadiusMiles": -1}`},
			{"Bad base URL", `{"ApiKey": "k", "BaseUrl": "not a url"}`},
			{"Header without value", `{"ApiKey": "k", "GtfsRtApiKey": "x-api-key"}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				path := writeTempConfig(t, "appsettings.json", tt.content)
				_, err := loadConfigFromFile(path)
				if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
					t.Errorf("Expected validation error, got %v", err)
				}
			})
		}
	})

	t.Run("NonExistentFile", func(t *testing.T) {
		_, err := loadConfigFromFile("non-existent-file.json")
		if err == nil {
			t.Errorf("Expected error for non-existent file, got none")
		}
	})
}

func TestLoadConfigFromURL(t *testing.T) {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}
	ctx := context.Background()

	t.Run("ValidResponse", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "user" || pass != "pass" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ApiKey": "remote-key", "MinDistanceFeet": 90}`))
		}))
		defer ts.Close()

		settings, err := loadConfigFromURL(ctx, client, ts.URL, "user", "pass", 1)
		if err != nil {
			t.Fatalf("loadConfigFromURL failed: %v", err)
		}
		if settings != (Settings{ApiKey: "remote-key", MinDistanceFeet: 90}) {
			t.Errorf("Unexpected settings %+v", settings)
		}
	})

	t.Run("YAMLContentType", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			w.Write([]byte("ApiKey: remote-yaml-key\n"))
		}))
		defer ts.Close()

		settings, err := loadConfigFromURL(ctx, client, ts.URL, "", "", 1)
		if err != nil {
			t.Fatalf("loadConfigFromURL failed: %v", err)
		}
		if settings.ApiKey != "remote-yaml-key" {
			t.Errorf("Expected YAML api key, got %+v", settings)
		}
	})

	t.Run("ErrorResponse", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		_, err := loadConfigFromURL(ctx, client, ts.URL, "", "", 1)
		if err == nil {
			t.Errorf("Expected error with 404 response, got none")
		}
	})

	t.Run("InvalidJSONResponse", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{ this is not valid JSON }`))
		}))
		defer ts.Close()

		_, err := loadConfigFromURL(ctx, client, ts.URL, "", "", 1)
		if err == nil {
			t.Errorf("Expected error for invalid JSON response, got none")
		}
	})

	t.Run("InvalidURL", func(t *testing.T) {
		_, err := loadConfigFromURL(ctx, client, "://invalid-url", "", "", 1)
		if err == nil || !strings.Contains(err.Error(), "failed to create request") {
			t.Errorf("Expected request creation error, got: %v", err)
		}
	})
}

func TestValidateConfigFlags(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		configURL   string
		extraArgs   []string
		expectError bool
	}{
		{"No config", "", "", nil, false},
		{"Valid local config", "appsettings.json", "", nil, false},
		{"Valid remote config", "", "http://example.com/appsettings.json", nil, false},
		{"Both config file and URL", "appsettings.json", "http://example.com/appsettings.json", nil, true},
		{"Config file with extra args", "appsettings.json", "", []string{"extraArg"}, true},
		{"Config URL with extra args", "", "http://example.com/appsettings.json", []string{"extraArg"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(tt.name, flag.ContinueOnError)
			var output bytes.Buffer
			flag.CommandLine.SetOutput(&output)

			configFile := flag.String("config-file", "", "Path to config file")
			configURL := flag.String("config-url", "", "URL to config")

			args := []string{"cmd"}
			if tt.configFile != "" {
				args = append(args, "--config-file="+tt.configFile)
			}
			if tt.configURL != "" {
				args = append(args, "--config-url="+tt.configURL)
			}
			args = append(args, tt.extraArgs...)

			os.Args = args
			flag.CommandLine.Parse(args[1:])

			err := ValidateConfigFlags(configFile, configURL)

			if (err != nil) != tt.expectError {
				t.Errorf("Expected error: %v, got: %v", tt.expectError, err)
			}
			if err != nil && !strings.Contains(err.Error(), "only one of --config-file or --config-url") {
				t.Errorf("Unexpected error message: %v", err)
			}
		})
	}
}

func TestValidateFeed(t *testing.T) {
	for _, feed := range []string{FeedMBTA, FeedGtfsRt} {
		if err := ValidateFeed(feed); err != nil {
			t.Errorf("Expected %q to be valid, got %v", feed, err)
		}
	}
	if err := ValidateFeed("siri"); err == nil {
		t.Error("Expected error for unknown feed")
	}
}

func TestApplyEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvVehiclePositions, "https://cdn.mbta.com/realtime/VehiclePositions.pb")

	settings := ApplyEnvironment(Settings{ApiKey: "file-key", BaseURL: "https://example.com"})

	if settings.ApiKey != "env-key" {
		t.Errorf("Expected environment api key to win, got %q", settings.ApiKey)
	}
	if settings.BaseURL != "https://example.com" {
		t.Errorf("Expected empty environment variable to be ignored, got %q", settings.BaseURL)
	}
	if settings.GtfsRtVehiclePositionsURL != "https://cdn.mbta.com/realtime/VehiclePositions.pb" {
		t.Errorf("Unexpected vehicle positions URL %q", settings.GtfsRtVehiclePositionsURL)
	}
}

func TestSettingsFitOptions(t *testing.T) {
	if opts := (Settings{}).FitOptions(); len(opts) != 0 {
		t.Errorf("Expected no overrides for empty settings, got %d", len(opts))
	}

	points := []models.Point{{Lat: 42.3601, Lng: -71.0589}}
	defaultVP, err := geo.FitViewport(points)
	if err != nil {
		t.Fatalf("FitViewport failed: %v", err)
	}
	paddedVP, err := geo.FitViewport(points, Settings{Padding: 2.4}.FitOptions()...)
	if err != nil {
		t.Fatalf("FitViewport failed: %v", err)
	}
	if ratio := paddedVP.LatSpan / defaultVP.LatSpan; ratio < 1.99 || ratio > 2.01 {
		t.Errorf("Expected padding 2.4 to double the span, got ratio %v", ratio)
	}
}

func TestRefreshConfig(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	cfg := NewConfig(4000, "testing", FeedMBTA, Settings{ApiKey: "original-key"})

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var serverHitCount atomic.Int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHitCount.Add(1)

		user, pass, hasAuth := r.BasicAuth()
		if hasAuth && (user != "testuser" || pass != "testpass") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"ApiKey": "rotated-key"}`)
	}))
	defer mockServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewBackoffStore()
	go refreshConfig(ctx, client, mockServer.URL, "testuser", "testpass", cfg, store, testLogger, 100*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	if hits := serverHitCount.Load(); hits != 0 {
		t.Fatalf("Expected the first refresh to wait one interval, got %d fetches", hits)
	}
	if got := cfg.APIKey(); got != "original-key" {
		t.Fatalf("Config changed before the first refresh, got %q", got)
	}

	time.Sleep(270 * time.Millisecond)

	if serverHitCount.Load() == 0 {
		t.Fatal("Mock server was never called")
	}
	if got := cfg.APIKey(); got != "rotated-key" {
		t.Errorf("Config not updated with refreshed api key, got %q", got)
	}
	if _, ok := store.NextRetryAt(mockServer.URL); ok {
		t.Error("Expected no backoff after a successful refresh")
	}
}
