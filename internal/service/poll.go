package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marketwatch/internal/config"
	"marketwatch/internal/domain"
	"marketwatch/internal/enrich"
	"marketwatch/internal/metrics"
)

// PollService runs one poll cycle: fetch a batch, enrich it against the
// batch population, and persist the listings not yet recorded in the
// ledger. The ledger is reloaded from durable storage on every cycle and
// appended only after the data write succeeds, so a listing is never
// marked seen without having been written.
type PollService struct {
	source    Source
	store     ListingStore
	ledger    Ledger
	publisher Publisher // nil disables alert publishing
	enricher  *enrich.Enricher
	metrics   *metrics.Metrics // nil disables instrumentation
	logger    *slog.Logger
	riskCfg   config.RiskConfig
}

func NewPollService(
	source Source,
	store ListingStore,
	ledger Ledger,
	publisher Publisher,
	enricher *enrich.Enricher,
	m *metrics.Metrics,
	logger *slog.Logger,
	riskCfg config.RiskConfig,
) *PollService {
	return &PollService{
		source:    source,
		store:     store,
		ledger:    ledger,
		publisher: publisher,
		enricher:  enricher,
		metrics:   m,
		logger:    logger.With("component", "poll"),
		riskCfg:   riskCfg,
	}
}

// Poll executes one cycle. An empty batch short-circuits straight to the
// stats report; statistics, enrichment and persistence are all skipped.
func (s *PollService) Poll(ctx context.Context) (*domain.PollStats, error) {
	startTime := time.Now()
	s.logger.Info("starting poll cycle", "source", s.source.Name())

	listings, err := s.source.FetchListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch listings: %w", err)
	}

	stats := &domain.PollStats{Fetched: len(listings)}
	if s.metrics != nil {
		s.metrics.ListingsFetched.Add(float64(len(listings)))
	}

	if len(listings) == 0 {
		s.logger.Warn("no listings received")
		stats.Duration = time.Since(startTime)
		return stats, nil
	}

	pop := s.enricher.EnrichBatch(listings)
	stats.MedianPrice = pop.MedianPrice
	if s.metrics != nil {
		s.metrics.BatchMedianPrice.Set(pop.MedianPrice)
	}
	s.logger.Info("batch enriched", "median_price", pop.MedianPrice)

	newListings, err := s.persist(ctx, listings, stats)
	if err != nil {
		return stats, err
	}

	s.publishAlerts(ctx, newListings, stats)

	stats.Duration = time.Since(startTime)
	s.logger.Info("poll cycle completed",
		"fetched", stats.Fetched,
		"new", stats.New,
		"duplicate", stats.Duplicate,
		"dropped", stats.Dropped,
		"published", stats.Published,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

// persist partitions the batch against the ledger and writes only unseen
// listings. The data write happens before the ledger append: losing the
// mark on a crash means a duplicate next cycle, the reverse would mean a
// silently dropped record.
func (s *PollService) persist(ctx context.Context, listings []domain.Listing, stats *domain.PollStats) ([]domain.Listing, error) {
	seen, err := s.ledger.LoadSeen(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	var (
		newListings []domain.Listing
		newIDs      []string
	)
	inBatch := make(map[string]struct{}, len(listings))

	for i := range listings {
		l := &listings[i]
		if l.ID == "" {
			stats.Dropped++
			continue
		}
		if _, ok := seen[l.ID]; ok {
			stats.Duplicate++
			continue
		}
		if _, ok := inBatch[l.ID]; ok {
			stats.Duplicate++
			continue
		}
		inBatch[l.ID] = struct{}{}
		newListings = append(newListings, *l)
		newIDs = append(newIDs, l.ID)
	}

	if len(newListings) == 0 {
		s.logger.Info("no new listings")
		return nil, nil
	}

	if err := s.store.AppendListings(ctx, newListings); err != nil {
		return nil, fmt.Errorf("append listings: %w", err)
	}
	if err := s.ledger.AppendSeen(ctx, newIDs); err != nil {
		return nil, fmt.Errorf("append seen ids: %w", err)
	}

	stats.New = len(newListings)
	if s.metrics != nil {
		s.metrics.ListingsPersisted.Add(float64(len(newListings)))
		s.metrics.ListingsDuplicate.Add(float64(stats.Duplicate))
		s.metrics.ListingsDropped.Add(float64(stats.Dropped))
	}
	s.logger.Info("persisted new listings", "count", len(newListings))

	return newListings, nil
}

// publishAlerts emits each newly persisted listing scoring at or above the
// alert threshold. Publish failures are counted, never fatal: the data is
// already durable at this point.
func (s *PollService) publishAlerts(ctx context.Context, newListings []domain.Listing, stats *domain.PollStats) {
	if s.publisher == nil {
		return
	}

	for i := range newListings {
		l := &newListings[i]
		if l.Enrichment == nil || l.Enrichment.RiskScore < s.riskCfg.AlertThreshold {
			continue
		}
		if err := s.publisher.Publish(ctx, l); err != nil {
			stats.Errors++
			s.logger.Error("publish alert failed", "listing_id", l.ID, "error", err)
			continue
		}
		stats.Published++
		if s.metrics != nil {
			s.metrics.AlertsPublished.Inc()
		}
	}
}
