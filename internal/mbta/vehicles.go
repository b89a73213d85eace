package mbta

import (
	"context"
	"errors"
	"net/url"

	"busmap.mbtatools.org/internal/feed"
	"busmap.mbtatools.org/internal/metrics"
	"busmap.mbtatools.org/internal/models"
)

// FetchVehicles returns the live vehicles of one route with their trips joined in.
// Vehicles with unusable coordinates are dropped. A route with no vehicles in
// service yields an empty, non-nil slice.
func (c *Client) FetchVehicles(ctx context.Context, routeID string) ([]models.Vehicle, error) {
	query := url.Values{}
	query.Set("filter[route]", routeID)
	query.Set("include", "trip")
	requestURL := c.baseURL + "/vehicles?" + query.Encode()

	if routeID == "" {
		return nil, c.fetchFailed(metrics.EndpointVehicles, requestURL, 0, errors.New("route id is required"))
	}

	var payload vehiclesResponse
	if err := c.getJSON(ctx, metrics.EndpointVehicles, "/vehicles", query, &payload); err != nil {
		return nil, err
	}

	raw, trips, err := payload.rawRecords()
	if err != nil {
		return nil, c.parseFailed(metrics.EndpointVehicles, requestURL, err)
	}

	vehicles, stats := feed.NormalizeWithStats(raw, trips)
	stats.Record(routeID)

	c.logger.Debug("fetched vehicles",
		"route_id", routeID,
		"received", stats.Received,
		"dropped", stats.Dropped,
		"unjoined", stats.Unjoined)

	return vehicles, nil
}
