package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"busmap.mbtatools.org/internal/config"
	"busmap.mbtatools.org/internal/models"
)

// fakeCatalog and fakeFeed stand in for the upstream clients in handler tests.
type fakeCatalog struct {
	routes []models.Route
	err    error
}

func (f *fakeCatalog) FetchBusRoutes(ctx context.Context) ([]models.Route, error) {
	return f.routes, f.err
}

type fakeFeed struct {
	mu       sync.Mutex
	vehicles map[string][]models.Vehicle
	err      error
	requests []string
}

func (f *fakeFeed) FetchVehicles(ctx context.Context, routeID string) ([]models.Vehicle, error) {
	f.mu.Lock()
	f.requests = append(f.requests, routeID)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.vehicles[routeID], nil
}

func newTestApplication(t *testing.T, settings config.Settings, catalog RouteCatalog, feed VehicleFeed) *Application {
	t.Helper()

	cfg := config.NewConfig(4000, "testing", config.FeedMBTA, settings)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &Application{
		ConfigService: config.NewConfigService(logger, http.DefaultClient, cfg),
		Sources: func(config.Settings) (RouteCatalog, VehicleFeed) {
			return catalog, feed
		},
		Logger:  logger,
		Version: "test-version",
	}
}
