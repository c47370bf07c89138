// Package news implements the read-through data client for news
// coverage of legislators, including a bounded-concurrency fan-out for
// fetching coverage of many legislators at once.
package news

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/civicpulse/congress-data-client/pkg/cache"
	"github.com/civicpulse/congress-data-client/pkg/store"
	"github.com/civicpulse/congress-data-client/pkg/upstream"
)

// DefaultConcurrency bounds simultaneous upstream news fetches during a
// fan-out. Cache reads are never gated.
const DefaultConcurrency = 3

// Store is the persistence surface the news client needs.
type Store interface {
	ListNews(ctx context.Context, bioguideID string) ([]store.NewsArticle, error)
	ReplaceNews(ctx context.Context, bioguideID string, articles []store.NewsArticle) error
	DeleteNews(ctx context.Context, bioguideID string) error
}

type articleSearchResponse struct {
	Articles []articleItem `json:"articles"`
}

type articleItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Author      string `json:"author"`
	URLToImage  string `json:"urlToImage"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// Client is the news data client.
type Client struct {
	fetcher *upstream.Fetcher
	store   Store
	sem     *semaphore.Weighted
	logger  zerolog.Logger
}

// NewClient creates a news client over the given fetcher and store with
// the default fan-out concurrency.
func NewClient(fetcher *upstream.Fetcher, st Store, logger zerolog.Logger) *Client {
	return &Client{
		fetcher: fetcher,
		store:   st,
		sem:     semaphore.NewWeighted(DefaultConcurrency),
		logger:  logger.With().Str("component", "news-client").Logger(),
	}
}

// SetConcurrency replaces the fan-out semaphore. Not safe to call while
// a fan-out is in flight.
func (c *Client) SetConcurrency(n int64) {
	if n < 1 {
		n = 1
	}
	c.sem = semaphore.NewWeighted(n)
}

// GetNews returns recent articles mentioning a legislator, read-through
// cached with the News TTL. Callers resolve the legislator's name; an
// empty name means there is nothing to search for, so the call returns
// an empty fresh result without touching the cache or the upstream.
func (c *Client) GetNews(ctx context.Context, bioguideID, name string, limit int) (cache.CachedResponse[[]store.NewsArticle], error) {
	if name == "" {
		return cache.Fresh[[]store.NewsArticle](nil), nil
	}
	if limit <= 0 {
		limit = 10
	}

	cached, err := c.store.ListNews(ctx, bioguideID)
	if err != nil {
		return cache.Fresh[[]store.NewsArticle](nil), fmt.Errorf("lookup news: %w", err)
	}

	if len(cached) > 0 && cache.IsValid(cached[0].CachedAt, cache.News) {
		cache.Hits.WithLabelValues(cache.News.String()).Inc()
		return cache.Fresh(truncateArticles(cached, limit)), nil
	}
	cache.Misses.WithLabelValues(cache.News.String()).Inc()

	// Only the upstream call is gated; cache hits above return without
	// ever touching the semaphore.
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return cache.Fresh[[]store.NewsArticle](nil), err
	}
	articles, err := c.fetchArticles(ctx, name, limit)
	c.sem.Release(1)

	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return cache.Fresh[[]store.NewsArticle](nil), nil
		}
		if len(cached) == 0 {
			c.logger.Warn().Err(err).Str("bioguide_id", bioguideID).Msg("News fetch failed with no cached fallback")
			return cache.Fresh[[]store.NewsArticle](nil), nil
		}
		cache.StaleFallbacks.WithLabelValues(cache.News.String()).Inc()
		c.logger.Warn().Err(err).Str("bioguide_id", bioguideID).Msg("Serving stale news data")
		return cache.Stale(truncateArticles(cached, limit), cache.News.Label()), nil
	}

	for i := range articles {
		articles[i].BioguideID = bioguideID
	}
	if err := c.store.ReplaceNews(ctx, bioguideID, articles); err != nil {
		return cache.Fresh[[]store.NewsArticle](nil), fmt.Errorf("persist news: %w", err)
	}
	return cache.Fresh(articles), nil
}

func (c *Client) fetchArticles(ctx context.Context, name string, limit int) ([]store.NewsArticle, error) {
	params := url.Values{}
	params.Set("q", `"`+name+`"`)
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", strconv.Itoa(limit))

	var resp articleSearchResponse
	if err := c.fetcher.GetJSON(ctx, "/everything", params, &resp); err != nil {
		return nil, err
	}

	articles := make([]store.NewsArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		article := store.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			SourceName:  a.Source.Name,
			Author:      a.Author,
			ImageURL:    a.URLToImage,
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			article.PublishedAt = &t
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// Subject identifies one legislator in a fan-out request.
type Subject struct {
	BioguideID string
	Name       string
}

// GetNewsForMany fetches news for several legislators concurrently,
// bounded by the client's semaphore. Duplicate bioguide IDs are
// collapsed to the first occurrence. Legislators whose fetch fails and
// who have no cached articles are omitted from the result rather than
// failing the whole fan-out.
func (c *Client) GetNewsForMany(ctx context.Context, subjects []Subject, limitPer int) (map[string]cache.CachedResponse[[]store.NewsArticle], error) {
	seen := make(map[string]bool, len(subjects))
	deduped := subjects[:0:0]
	for _, s := range subjects {
		if s.BioguideID == "" || seen[s.BioguideID] {
			continue
		}
		seen[s.BioguideID] = true
		deduped = append(deduped, s)
	}

	out := make(map[string]cache.CachedResponse[[]store.NewsArticle], len(deduped))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, s := range deduped {
		wg.Add(1)
		go func(s Subject) {
			defer wg.Done()
			resp, err := c.GetNews(ctx, s.BioguideID, s.Name, limitPer)
			if err != nil {
				c.logger.Warn().Err(err).Str("bioguide_id", s.BioguideID).Msg("Dropping subject from news fan-out")
				return
			}
			if len(resp.Data) == 0 && !resp.IsStale {
				return
			}
			mu.Lock()
			out[s.BioguideID] = resp
			mu.Unlock()
		}(s)
	}
	wg.Wait()

	return out, ctx.Err()
}

// Invalidate drops all cached articles for a legislator. Idempotent.
func (c *Client) Invalidate(ctx context.Context, bioguideID string) error {
	cache.Invalidations.WithLabelValues(cache.News.String()).Inc()
	return c.store.DeleteNews(ctx, bioguideID)
}

// Refresh invalidates then re-fetches a legislator's news.
func (c *Client) Refresh(ctx context.Context, bioguideID, name string, limit int) (cache.CachedResponse[[]store.NewsArticle], error) {
	if err := c.Invalidate(ctx, bioguideID); err != nil {
		return cache.Fresh[[]store.NewsArticle](nil), err
	}
	return c.GetNews(ctx, bioguideID, name, limit)
}

func truncateArticles(articles []store.NewsArticle, limit int) []store.NewsArticle {
	if len(articles) > limit {
		return articles[:limit]
	}
	return articles
}
