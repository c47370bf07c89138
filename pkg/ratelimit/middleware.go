package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for admission control.
var (
	requestsAllowed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civic_ratelimit_allowed_total",
		Help: "Total requests allowed by the rate limiter, by rule",
	}, []string{"rule"})

	requestsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civic_ratelimit_rejected_total",
		Help: "Total requests rejected by the rate limiter, by rule",
	}, []string{"rule"})
)

// Paths that bypass rate limiting entirely; no counter is touched.
const (
	staticPrefix = "/static"
	healthPath   = "/health"
)

// Middleware enforces per-client request budgets in front of an
// http.Handler. Every response, allowed or denied, carries the standard
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset
// headers; denials are 429s with a Retry-After hint.
type Middleware struct {
	rules  []Rule
	store  Store
	logger zerolog.Logger
}

// NewMiddleware creates admission-control middleware. A nil rules slice
// uses DefaultRules; a nil store uses a fresh MemoryStore.
func NewMiddleware(rules []Rule, store Store, logger zerolog.Logger) *Middleware {
	if rules == nil {
		rules = DefaultRules()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Middleware{rules: rules, store: store, logger: logger}
}

// Handler wraps next with rate limiting.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if strings.HasPrefix(path, staticPrefix) || path == healthPath {
			next.ServeHTTP(w, r)
			return
		}

		clientID := ClientID(r)
		rule := MatchRule(m.rules, path)

		decision, err := m.store.CheckAndIncrement(r.Context(), clientID, rule.Key(), rule.Requests, rule.Window)
		if err != nil {
			// Fail open: an unavailable store must not take the
			// service down with it.
			m.logger.Warn().Err(err).Str("client", clientID).Msg("Rate limit store unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		reset := decision.ResetAt.Unix()

		if !decision.Allowed {
			requestsRejected.WithLabelValues(rule.Key()).Inc()
			m.logger.Warn().
				Str("client", clientID).
				Str("path", path).
				Str("rule", rule.Key()).
				Time("reset_at", decision.ResetAt).
				Msg("Request rejected by rate limiter")

			retryAfter := int(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}

			setRateLimitHeaders(w, rule.Requests, 0, reset)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"detail":      "Rate limit exceeded. Please try again later.",
				"retry_after": retryAfter,
			})
			return
		}

		requestsAllowed.WithLabelValues(rule.Key()).Inc()
		setRateLimitHeaders(w, rule.Requests, decision.Remaining, reset)
		next.ServeHTTP(w, r)
	})
}

// ClientID resolves the client identity for a request: the first IP in
// X-Forwarded-For when present, else the direct connection address, else
// the literal "unknown".
func ClientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if idx := strings.Index(xff, ","); idx >= 0 {
			first = xff[:idx]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return "unknown"
}

func setRateLimitHeaders(w http.ResponseWriter, limit, remaining int, reset int64) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
}
