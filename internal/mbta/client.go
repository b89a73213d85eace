package mbta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"busmap.mbtatools.org/internal/feed"
	"busmap.mbtatools.org/internal/metrics"
	"busmap.mbtatools.org/internal/report"
)

// DefaultBaseURL is the MBTA v3 API root.
const DefaultBaseURL = "https://api-v3.mbta.com"

// Client talks to the MBTA v3 JSON:API. It holds no state between calls; the
// http.Client it is given carries the timeouts.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a Client for the given base URL and static API key.
// An empty baseURL selects DefaultBaseURL.
func NewClient(httpClient *http.Client, baseURL, apiKey string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

// getJSON performs a GET against path and decodes the JSON body into out.
//
// Transport failures and non-2xx responses are returned as *feed.FetchError,
// undecodable bodies as *feed.ParseError. Both are reported to Sentry and counted
// in metrics.UpstreamFetchErrors.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	query = maps.Clone(query)
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	requestURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return c.fetchFailed(endpoint, requestURL, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/vnd.api+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fetchFailed(endpoint, requestURL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fetchFailed(endpoint, requestURL, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fetchFailed(endpoint, requestURL, 0, fmt.Errorf("failed to read response body: %w", err))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return c.parseFailed(endpoint, requestURL, err)
	}
	return nil
}

func (c *Client) fetchFailed(endpoint, requestURL string, statusCode int, err error) error {
	fetchErr := feed.NewFetchError(endpoint, requestURL, statusCode, err)
	metrics.UpstreamFetchErrors.WithLabelValues(endpoint, metrics.KindFetch).Inc()
	report.ReportUpstreamError(fetchErr, endpoint, requestURL, nil)
	return fetchErr
}

func (c *Client) parseFailed(endpoint, requestURL string, err error) error {
	parseErr := feed.NewParseError(endpoint, requestURL, err)
	metrics.UpstreamFetchErrors.WithLabelValues(endpoint, metrics.KindParse).Inc()
	report.ReportUpstreamError(parseErr, endpoint, requestURL, nil)
	return parseErr
}
