package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OutgoingLatency tracks the duration of requests made to upstream feeds.
	OutgoingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "busmap_outgoing_request_duration_seconds",
			Help:    "Duration of outgoing HTTP requests to upstream feeds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"url", "method", "status"},
	)

	UpstreamFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busmap_upstream_fetch_errors_total",
		Help: "Number of failed upstream fetches by endpoint and kind (fetch = network or status, parse = payload)",
	}, []string{"endpoint", "kind"})
)

var (
	VehiclesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busmap_vehicles_received_total",
		Help: "Number of raw vehicle records received from the vehicle feed",
	}, []string{"route_id"})

	VehiclesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busmap_vehicles_dropped_total",
		Help: "Number of vehicle records dropped because of invalid coordinates",
	}, []string{"route_id"})

	VehiclesUnjoined = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busmap_vehicles_unjoined_total",
		Help: "Number of vehicles whose trip was missing from the included trips",
	}, []string{"route_id"})
)

var (
	RoutesInCatalog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "busmap_routes_in_catalog",
		Help: "Number of bus routes returned by the last route catalog fetch",
	})

	FallbackViewports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "busmap_fallback_viewports_total",
		Help: "Number of responses that used the fallback region instead of a fitted viewport",
	})
)

// Endpoint labels used with UpstreamFetchErrors.
const (
	EndpointRoutes   = "routes"
	EndpointVehicles = "vehicles"
	EndpointGtfsRt   = "gtfs_rt"
)

// Error kinds used with UpstreamFetchErrors.
const (
	KindFetch = "fetch"
	KindParse = "parse"
)
