// Package metrics provides the centralized Prometheus registry for the
// data client. All metrics are defined in their respective packages
// (cache, ratelimit, upstream) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the data client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - civic_cache_hits_total{category} (Counter): Fresh cache hits by data category
//   - civic_cache_misses_total{category} (Counter): Cache misses by data category
//   - civic_cache_stale_fallbacks_total{category} (Counter): Expired entries served after upstream failure
//   - civic_cache_invalidations_total{category} (Counter): Explicit cache invalidations
//
// Rate Limit Metrics (pkg/ratelimit):
//   - civic_ratelimit_allowed_total{rule} (Counter): Requests admitted by rule
//   - civic_ratelimit_rejected_total{rule} (Counter): Requests rejected by rule
//
// Upstream Metrics (pkg/upstream):
//   - civic_upstream_requests_total{provider, status} (Counter): Upstream requests by provider and HTTP status
//   - civic_upstream_request_duration_seconds{provider} (Histogram): Upstream request duration
//   - civic_upstream_errors_total{provider, class} (Counter): Upstream errors by class (client, server, network)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(civic_cache_hits_total[5m])) /
//   (sum(rate(civic_cache_hits_total[5m])) + sum(rate(civic_cache_misses_total[5m])))
//
//   # Stale Serving Rate (upstream health proxy)
//   rate(civic_cache_stale_fallbacks_total[5m])
//
//   # Rate Limit Rejection Rate
//   sum(rate(civic_ratelimit_rejected_total[5m])) by (rule)
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(civic_upstream_request_duration_seconds_bucket[5m]))
