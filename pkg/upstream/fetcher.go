// Package upstream provides the shared HTTP fetch layer for the external
// data providers. It owns timeouts, error classification, JSON decoding
// and per-provider observability; the data clients on top of it decide
// caching and fallback.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every upstream call. A call that exceeds it is a
// failure that triggers the caller's stale-fallback path; there is no
// automatic retry.
const DefaultTimeout = 30 * time.Second

// Prometheus metrics for upstream requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civic_upstream_requests_total",
		Help: "Total upstream requests by provider and status",
	}, []string{"provider", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "civic_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds by provider",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civic_upstream_errors_total",
		Help: "Total upstream errors by provider and class",
	}, []string{"provider", "class"})
)

// Fetcher performs GET requests against one upstream provider.
type Fetcher struct {
	name       string
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a Fetcher for the named provider. Headers are attached to
// every request (typically the provider's API key header).
func New(name, baseURL string, headers map[string]string, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		name:    name,
		baseURL: baseURL,
		headers: headers,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger.With().Str("provider", name).Logger(),
	}
}

// SetHTTPClient swaps the HTTP client (for tests).
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}

// GetJSON performs a GET against path with the given query parameters
// and decodes the JSON response into v. A 404 returns ErrNotFound; any
// other non-2xx status or transport error returns an *APIError.
func (f *Fetcher) GetJSON(ctx context.Context, path string, params url.Values, v any) error {
	u := f.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, val := range f.headers {
		req.Header.Set(k, val)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	requestDuration.WithLabelValues(f.name).Observe(time.Since(start).Seconds())

	if err != nil {
		errorsTotal.WithLabelValues(f.name, string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(f.name, "network_error").Inc()
		f.logger.Warn().Err(err).Str("path", path).Msg("Upstream request failed")
		return &APIError{Provider: f.name, Class: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(f.name, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotFound {
		// Not an error: the subject simply has no data upstream.
		return ErrNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		class := classify(resp.StatusCode)
		errorsTotal.WithLabelValues(f.name, string(class)).Inc()
		f.logger.Warn().
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Upstream request error")
		return &APIError{
			Provider:   f.name,
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(f.name, string(ErrorClassNetwork)).Inc()
		return &APIError{Provider: f.name, Class: ErrorClassNetwork, Message: "read response body", Err: err}
	}

	if v != nil {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("decode %s response: %w", f.name, err)
		}
	}

	f.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("Upstream request complete")

	return nil
}
