package mbta

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"

	"busmap.mbtatools.org/internal/metrics"
	"busmap.mbtatools.org/internal/models"
)

// busRouteType is the GTFS route_type of bus routes.
const busRouteType = "3"

// maxPrefix is the sort key of route ids without a usable numeric prefix.
const maxPrefix = math.MaxInt

// FetchBusRoutes returns every bus route in the catalog, ordered by the numeric
// prefix of the route id. Routes with equal prefixes keep their upstream order;
// ids without a leading number sort after all numbered routes.
func (c *Client) FetchBusRoutes(ctx context.Context) ([]models.Route, error) {
	query := url.Values{}
	query.Set("filter[type]", busRouteType)
	requestURL := c.baseURL + "/routes?" + query.Encode()

	var payload routesResponse
	if err := c.getJSON(ctx, metrics.EndpointRoutes, "/routes", query, &payload); err != nil {
		return nil, err
	}

	if payload.Data == nil {
		return nil, c.parseFailed(metrics.EndpointRoutes, requestURL, errMissingData)
	}

	routes := make([]models.Route, 0, len(*payload.Data))
	for i, r := range *payload.Data {
		if r.ID == "" {
			return nil, c.parseFailed(metrics.EndpointRoutes, requestURL,
				fmt.Errorf(`route at index %d: missing required field "id"`, i))
		}
		routes = append(routes, models.Route{ID: r.ID, LongName: r.Attributes.LongName})
	}

	slices.SortStableFunc(routes, func(a, b models.Route) int {
		pa, pb := numericPrefix(a.ID), numericPrefix(b.ID)
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	})

	metrics.RoutesInCatalog.Set(float64(len(routes)))
	c.logger.Debug("fetched bus routes", "count", len(routes))

	return routes, nil
}

// numericPrefix parses the leading run of digits of a route id, so "34E" sorts as 34.
// Ids without leading digits, or whose prefix overflows, sort last.
func numericPrefix(id string) int {
	end := 0
	for end < len(id) && id[end] >= '0' && id[end] <= '9' {
		end++
	}
	if end == 0 {
		return maxPrefix
	}
	n, err := strconv.Atoi(id[:end])
	if err != nil {
		return maxPrefix
	}
	return n
}
