package app

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"busmap.mbtatools.org/internal/metrics"
)

// latencyTrackingRoundTripper observes the duration of every upstream request in
// metrics.OutgoingLatency, labeled by URL without its query, method and status.
// Dropping the query keeps the api key and the route filter out of the labels.
type latencyTrackingRoundTripper struct {
	next http.RoundTripper
}

func (rt *latencyTrackingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	safeURL := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	metrics.OutgoingLatency.WithLabelValues(
		safeURL,
		req.Method,
		status,
	).Observe(duration)

	return resp, err
}

// NewPooledClient returns the HTTP client shared by all upstream clients.
//
// A map page polls the vehicles of one route every few seconds, so connections to
// the MBTA API are kept alive (90s idle timeout, 10 idle per host). Dial and TLS
// handshakes fail after 5s and a whole request after 10s, which is the only
// timeout the upstream clients rely on.
func NewPooledClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &http.Client{
		Transport: &latencyTrackingRoundTripper{next: transport},
		Timeout:   10 * time.Second,
	}
}
