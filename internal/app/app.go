package app

import (
	"context"
	"log/slog"
	"net/http"

	"busmap.mbtatools.org/internal/config"
	"busmap.mbtatools.org/internal/gtfsrt"
	"busmap.mbtatools.org/internal/mbta"
	"busmap.mbtatools.org/internal/models"
)

// RouteCatalog lists the bus routes riders can pick from.
type RouteCatalog interface {
	FetchBusRoutes(ctx context.Context) ([]models.Route, error)
}

// VehicleFeed returns the live vehicles of a single route.
type VehicleFeed interface {
	FetchVehicles(ctx context.Context, routeID string) ([]models.Vehicle, error)
}

// SourceFactory builds the upstream clients for the given settings.
type SourceFactory func(settings config.Settings) (RouteCatalog, VehicleFeed)

// Application wires the configuration, the upstream clients and the logger
// behind the HTTP handlers.
type Application struct {
	ConfigService  *config.ConfigService
	Sources        SourceFactory
	Logger         *slog.Logger
	Version        string
	AllowedOrigins []string
}

// New creates and wires all dependencies for the Application.
// Accepts config, logger, client, and version as arguments.
func New(cfg *config.Config, logger *slog.Logger, client *http.Client, version string) *Application {
	return &Application{
		ConfigService: config.NewConfigService(logger, client, cfg),
		Sources:       NewSourceFactory(client, cfg.Feed, logger),
		Logger:        logger,
		Version:       version,
	}
}

// NewSourceFactory returns a factory building MBTA clients, with vehicles read from
// the GTFS-realtime feed instead when feed is config.FeedGtfsRt. Clients are cheap
// and rebuilt from the current settings so a rotated API key takes effect at once.
func NewSourceFactory(client *http.Client, feed string, logger *slog.Logger) SourceFactory {
	return func(settings config.Settings) (RouteCatalog, VehicleFeed) {
		mbtaClient := mbta.NewClient(client, settings.BaseURL, settings.ApiKey, logger)
		if feed == config.FeedGtfsRt {
			return mbtaClient, gtfsrt.NewClient(client, settings.GtfsRtVehiclePositionsURL,
				settings.GtfsRtApiKey, settings.GtfsRtApiValue, logger)
		}
		return mbtaClient, mbtaClient
	}
}

func (app *Application) sources() (RouteCatalog, VehicleFeed, config.Settings) {
	settings := app.ConfigService.Config.GetSettings()
	catalog, vehicles := app.Sources(settings)
	return catalog, vehicles, settings
}
