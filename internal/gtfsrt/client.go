package gtfsrt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"

	"busmap.mbtatools.org/internal/feed"
	"busmap.mbtatools.org/internal/metrics"
	"busmap.mbtatools.org/internal/models"
	"busmap.mbtatools.org/internal/report"
	"github.com/jamespfennell/gtfs"
)

// Client reads live vehicles from a GTFS-realtime VehiclePositions feed.
// The whole feed is downloaded on every call and filtered by route locally.
type Client struct {
	httpClient *http.Client
	feedURL    string
	apiHeader  string
	apiValue   string
	logger     *slog.Logger
}

// NewClient creates a Client for feedURL. When both apiHeader and apiValue are set
// they are sent as a request header, which is how most agencies gate their feeds.
func NewClient(httpClient *http.Client, feedURL, apiHeader, apiValue string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		httpClient: httpClient,
		feedURL:    feedURL,
		apiHeader:  apiHeader,
		apiValue:   apiValue,
		logger:     logger,
	}
}

// FetchVehicles returns the vehicles of routeID found in the feed.
//
// GTFS-realtime carries no headsigns, so every vehicle is labeled with the
// "Unknown" headsign and keeps the direction of its trip descriptor. Vehicles
// without a position are dropped like any other invalid coordinate.
func (c *Client) FetchVehicles(ctx context.Context, routeID string) ([]models.Vehicle, error) {
	if routeID == "" {
		return nil, c.fetchFailed(0, errors.New("route id is required"))
	}

	data, err := c.download(ctx)
	if err != nil {
		return nil, err
	}

	realtime, err := gtfs.ParseRealtime(data, &gtfs.ParseRealtimeOptions{})
	if err != nil {
		return nil, c.parseFailed(err)
	}

	vehicles, stats := feed.NormalizeWithStats(recordsForRoute(realtime.Vehicles, routeID), nil)
	stats.Record(routeID)

	c.logger.Debug("fetched gtfs-rt vehicles",
		"route_id", routeID,
		"feed_vehicles", len(realtime.Vehicles),
		"received", stats.Received,
		"dropped", stats.Dropped)

	return vehicles, nil
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, c.fetchFailed(0, fmt.Errorf("failed to create HTTP request: %w", err))
	}
	if c.apiHeader != "" && c.apiValue != "" {
		req.Header.Set(c.apiHeader, c.apiValue)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fetchFailed(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fetchFailed(resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fetchFailed(0, fmt.Errorf("failed to read GTFS-RT feed: %w", err))
	}
	return data, nil
}

// recordsForRoute converts the feed vehicles serving routeID into normalizer input.
// The feed has no trip attributes to include, so every trip reference stays unjoined.
func recordsForRoute(vehicles []gtfs.Vehicle, routeID string) []feed.RawVehicle {
	var raw []feed.RawVehicle

	for _, vehicle := range vehicles {
		if vehicle.Trip == nil || vehicle.Trip.ID.RouteID != routeID {
			continue
		}
		if vehicle.ID == nil || vehicle.ID.ID == "" {
			continue
		}

		rv := feed.RawVehicle{
			ID:          vehicle.ID.ID,
			Latitude:    math.NaN(),
			Longitude:   math.NaN(),
			DirectionID: directionID(vehicle.Trip.ID.DirectionID),
			TripID:      vehicle.Trip.ID.ID,
		}
		if vehicle.Position != nil && vehicle.Position.Latitude != nil && vehicle.Position.Longitude != nil {
			rv.Latitude = float64(*vehicle.Position.Latitude)
			rv.Longitude = float64(*vehicle.Position.Longitude)
		}
		raw = append(raw, rv)
	}

	return raw
}

// directionID maps the GTFS-realtime direction onto the 0/1 convention of the
// MBTA API. An unspecified direction is treated as outbound.
func directionID(d gtfs.DirectionID) int {
	switch d {
	case gtfs.DirectionID_True:
		return models.DirectionInbound
	case gtfs.DirectionID_False:
		return models.DirectionOutbound
	default:
		return models.DirectionOutbound
	}
}

func (c *Client) fetchFailed(statusCode int, err error) error {
	fetchErr := feed.NewFetchError(metrics.EndpointGtfsRt, c.feedURL, statusCode, err)
	metrics.UpstreamFetchErrors.WithLabelValues(metrics.EndpointGtfsRt, metrics.KindFetch).Inc()
	report.ReportUpstreamError(fetchErr, metrics.EndpointGtfsRt, c.feedURL, nil)
	return fetchErr
}

func (c *Client) parseFailed(err error) error {
	parseErr := feed.NewParseError(metrics.EndpointGtfsRt, c.feedURL, err)
	metrics.UpstreamFetchErrors.WithLabelValues(metrics.EndpointGtfsRt, metrics.KindParse).Inc()
	report.ReportUpstreamError(parseErr, metrics.EndpointGtfsRt, c.feedURL, nil)
	return parseErr
}
