// Package enrich attaches derived fields to fetched listings: a canonical
// publication timestamp, a geo point for map indexing, and the risk
// scoring result computed against the batch population.
package enrich

import (
	"log/slog"

	"marketwatch/internal/config"
	"marketwatch/internal/domain"
	"marketwatch/internal/risk"
)

type Enricher struct {
	scorer *risk.Scorer
	logger *slog.Logger
}

func NewEnricher(cfg config.RiskConfig, logger *slog.Logger) *Enricher {
	return &Enricher{
		scorer: risk.NewScorer(cfg),
		logger: logger.With("component", "enricher"),
	}
}

// EnrichBatch computes the population statistics for one fetched batch and
// enriches every listing in place. The returned population is the one the
// scores were computed against.
func (e *Enricher) EnrichBatch(listings []domain.Listing) risk.Population {
	pop := risk.ComputePopulation(listings)

	for i := range listings {
		e.enrich(&listings[i], pop)
	}

	e.logger.Debug("batch enriched",
		"listings", len(listings),
		"median_price", pop.MedianPrice,
	)

	return pop
}

func (e *Enricher) enrich(l *domain.Listing, pop risk.Population) {
	if ts, ok := NormalizeTimestamp(l.PublishedRaw); ok {
		l.PublishedAt = ts
	}

	if l.Location != nil && l.Location.Latitude != nil && l.Location.Longitude != nil {
		l.Geo = &domain.GeoPoint{
			Lat: *l.Location.Latitude,
			Lon: *l.Location.Longitude,
		}
	}

	// Unpriced listings are excluded from scoring, not failed.
	if !l.HasPrice() {
		return
	}

	res := e.scorer.Score(l, pop)

	keywords := res.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	factors := res.Factors
	if factors == nil {
		factors = []string{}
	}

	l.Enrichment = &domain.Enrichment{
		MedianPrice:        pop.MedianPrice,
		RiskScore:          res.Score,
		SuspiciousKeywords: keywords,
		RiskFactors:        factors,
	}
}
