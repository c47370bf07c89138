package main

import (
	"context"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/civicpulse/congress-data-client/pkg/congress"
	"github.com/civicpulse/congress-data-client/pkg/fec"
	"github.com/civicpulse/congress-data-client/pkg/logging"
	"github.com/civicpulse/congress-data-client/pkg/news"
	"github.com/civicpulse/congress-data-client/pkg/ratelimit"
	"github.com/civicpulse/congress-data-client/pkg/sections"
	"github.com/civicpulse/congress-data-client/pkg/store"
	"github.com/civicpulse/congress-data-client/pkg/upstream"
)

const (
	defaultCongressURL = "https://api.congress.gov/v3"
	defaultFECURL      = "https://api.open.fec.gov/v1"
	defaultNewsURL     = "https://newsapi.org/v2"
)

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: os.Getenv("LOG_PRETTY") == "true",
		Output: os.Stderr,
	})

	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "data/civic.db")

	st, err := store.Open(dbPath)
	if err != nil {
		logger.Fatal().Err(err).Str("db_path", dbPath).Msg("Failed to open store")
	}
	defer st.Close()

	congressFetcher := upstream.New("congress",
		getEnv("CONGRESS_API_URL", defaultCongressURL),
		map[string]string{"X-Api-Key": os.Getenv("CONGRESS_API_KEY")}, logger)
	fecFetcher := upstream.New("openfec",
		getEnv("FEC_API_URL", defaultFECURL),
		map[string]string{"X-Api-Key": os.Getenv("FEC_API_KEY")}, logger)
	newsFetcher := upstream.New("newsapi",
		getEnv("NEWS_API_URL", defaultNewsURL),
		map[string]string{"X-Api-Key": os.Getenv("NEWS_API_KEY")}, logger)

	congressClient := congress.NewClient(congressFetcher, st, logger)
	fecClient := fec.NewClient(fecFetcher, st, logger)
	newsClient := news.NewClient(newsFetcher, st, logger)
	sectionService := sections.NewService(congressClient, fecClient, newsClient, logger)

	limiter := ratelimit.NewMiddleware(nil, rateLimitStore(logger), logger)

	server := NewServer(congressClient, fecClient, newsClient, sectionService, logger)

	addr := ":" + port
	logger.Info().Str("addr", addr).Msg("Starting API server")
	if err := http.ListenAndServe(addr, server.Handler(limiter)); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// rateLimitStore selects the rate limit backend: Redis when REDIS_URL is
// set and reachable, otherwise the in-process store.
func rateLimitStore(logger zerolog.Logger) ratelimit.Store {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return ratelimit.NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{Addr: redisURL})
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn().Err(err).Str("redis_url", redisURL).Msg("Redis unreachable, using in-memory rate limiting")
		return ratelimit.NewMemoryStore()
	}
	logger.Info().Str("redis_url", redisURL).Msg("Rate limiting backed by Redis")
	return ratelimit.NewRedisStore(client)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
