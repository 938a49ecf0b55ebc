// Package marketplace implements the upstream search API client. One
// fetch issues a search per configured keyword, scoped to a fixed
// category taxonomy, and merges the results into a single batch. A failed
// keyword contributes zero items and is logged; it never fails the batch.
package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"marketwatch/internal/domain"
	"marketwatch/internal/metrics"
)

const SourceName = "marketplace search"

// Config holds marketplace source configuration.
type Config struct {
	BaseURL        string
	Keywords       []string
	TaxonomyID     int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RequestsPerSec float64
}

type Source struct {
	httpClient     *http.Client
	baseURL        string
	keywords       []string
	taxonomyID     int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	limiter        *rate.Limiter
	metrics        *metrics.Metrics // nil disables instrumentation
	logger         *slog.Logger
}

func New(cfg Config, m *metrics.Metrics, logger *slog.Logger) *Source {
	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}

	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		keywords:       cfg.Keywords,
		taxonomyID:     cfg.TaxonomyID,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		limiter:        limiter,
		metrics:        m,
		logger:         logger.With("source", "marketplace"),
	}
}

// Name returns a human-readable source name.
func (s *Source) Name() string {
	return SourceName
}

// FetchListings runs one search per keyword and returns the merged batch
// in keyword order. Keyword queries run concurrently; a query that fails
// after retries is logged and skipped. The only hard error is context
// cancellation.
func (s *Source) FetchListings(ctx context.Context) ([]domain.Listing, error) {
	// Each goroutine writes only its own slot, so no lock is needed.
	perKeyword := make([][]Item, len(s.keywords))

	g, gctx := errgroup.WithContext(ctx)
	for i, kw := range s.keywords {
		g.Go(func() error {
			items, err := s.fetchKeyword(gctx, kw)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Error("keyword query failed", "keyword", kw, "error", err)
				if s.metrics != nil {
					s.metrics.FetchErrorsTotal.Inc()
				}
				return nil
			}
			s.logger.Info("keyword query ok", "keyword", kw, "items", len(items))
			perKeyword[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Item
	for _, items := range perKeyword {
		all = append(all, items...)
	}

	s.logger.Info("fetch complete", "total_items", len(all))
	return s.transform(all), nil
}

func (s *Source) fetchKeyword(ctx context.Context, keyword string) ([]Item, error) {
	var items []Item
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		items, err = s.doSearch(ctx, keyword)
		if err == nil {
			return items, nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("search failed, retrying",
			"keyword", keyword,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doSearch(ctx context.Context, keyword string) ([]Item, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	filters, err := json.Marshal(map[string][]int{"taxonomy_ids": {s.taxonomyID}})
	if err != nil {
		return nil, fmt.Errorf("encode filters: %w", err)
	}

	params := url.Values{}
	params.Set("keywords", keyword)
	params.Set("source", "search_box")
	params.Set("order_by", "newest")
	params.Set("filters", string(filters))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-DeviceOS", "0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return apiResp.Data.Section.Payload.Items, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func (s *Source) transform(items []Item) []domain.Listing {
	listings := make([]domain.Listing, 0, len(items))

	for _, it := range items {
		l := domain.Listing{
			ID:          it.ID,
			Title:       it.Title,
			Description: it.Description,
			SellerID:    it.UserID,
			Images:      it.Images.URLs,
		}

		if it.Price != nil && it.Price.Amount != nil {
			amount := *it.Price.Amount
			l.Price = &amount
		}

		if it.Location != nil {
			l.Location = &domain.Location{
				Latitude:  it.Location.Latitude,
				Longitude: it.Location.Longitude,
			}
		}

		// published_at wins over created_at when both are present.
		if raw, ok := rawTime(it.PublishedAt); ok {
			l.PublishedRaw = raw
		} else if raw, ok := rawTime(it.CreatedAt); ok {
			l.PublishedRaw = raw
		}

		listings = append(listings, l)
	}

	return listings
}

func rawTime(ri RawInstant) (*domain.RawTime, bool) {
	if !ri.Present {
		return nil, false
	}
	return &domain.RawTime{
		Text:    ri.Text,
		Epoch:   ri.Epoch,
		IsEpoch: ri.IsEpoch,
	}, true
}
