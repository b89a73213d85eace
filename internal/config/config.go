package config

import (
	"sync"

	"busmap.mbtatools.org/internal/geo"
)

// Vehicle feeds the service can read live positions from.
const (
	FeedMBTA   = "mbta"
	FeedGtfsRt = "gtfs-rt"
)

// Settings is the configuration document, loaded from appsettings.json,
// a YAML file or a remote URL. Only ApiKey is read by most deployments.
type Settings struct {
	ApiKey string `json:"ApiKey" yaml:"ApiKey"`

	BaseURL string `json:"BaseUrl,omitempty" yaml:"BaseUrl,omitempty" validate:"omitempty,url"`

	GtfsRtVehiclePositionsURL string `json:"GtfsRtVehiclePositionsUrl,omitempty" yaml:"GtfsRtVehiclePositionsUrl,omitempty" validate:"omitempty,url"`
	GtfsRtApiKey              string `json:"GtfsRtApiKey,omitempty" yaml:"GtfsRtApiKey,omitempty"`
	GtfsRtApiValue            string `json:"GtfsRtApiValue,omitempty" yaml:"GtfsRtApiValue,omitempty" validate:"required_with=GtfsRtApiKey"`

	Padding         float64 `json:"Padding,omitempty" yaml:"Padding,omitempty" validate:"omitempty,gte=1"`
	MinRadiusMiles  float64 `json:"MinRadiusMiles,omitempty" yaml:"MinRadiusMiles,omitempty" validate:"omitempty,gte=0"`
	MinDistanceFeet float64 `json:"MinDistanceFeet,omitempty" yaml:"MinDistanceFeet,omitempty" validate:"omitempty,gt=0"`
}

// FitOptions returns the viewport options overridden by the settings.
// Unset tunables keep the geo package defaults.
func (s Settings) FitOptions() []geo.Option {
	var opts []geo.Option
	if s.Padding != 0 {
		opts = append(opts, geo.WithPadding(s.Padding))
	}
	if s.MinRadiusMiles != 0 {
		opts = append(opts, geo.WithMinRadiusMiles(s.MinRadiusMiles))
	}
	if s.MinDistanceFeet != 0 {
		opts = append(opts, geo.WithMinDistanceFeet(s.MinDistanceFeet))
	}
	return opts
}

// Config holds all the configuration settings for our application.
type Config struct {
	Port     int
	Env      string
	Feed     string
	Mu       sync.RWMutex
	Settings Settings
}

// NewConfig creates a new instance of a Config struct.
func NewConfig(port int, env, feed string, settings Settings) *Config {
	return &Config{
		Port:     port,
		Env:      env,
		Feed:     feed,
		Settings: settings,
	}
}

// UpdateConfig safely replaces the settings, e.g. after a remote refresh.
func (cfg *Config) UpdateConfig(settings Settings) {
	cfg.Mu.Lock()
	defer cfg.Mu.Unlock()
	cfg.Settings = settings
}

// GetSettings safely returns a copy of the current settings.
func (cfg *Config) GetSettings() Settings {
	cfg.Mu.RLock()
	defer cfg.Mu.RUnlock()
	return cfg.Settings
}

// APIKey returns the MBTA API key. An empty key is allowed by the upstream API
// but heavily rate limited.
func (cfg *Config) APIKey() string {
	cfg.Mu.RLock()
	defer cfg.Mu.RUnlock()
	return cfg.Settings.ApiKey
}
