package enrich

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketwatch/internal/config"
	"marketwatch/internal/domain"
	"marketwatch/testdata/utils"
)

func newTestEnricher() *Enricher {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewEnricher(config.DefaultRisk(), logger)
}

func TestEnrichBatch_AttachesEnrichment(t *testing.T) {
	listings := []domain.Listing{
		{
			ID:           "1",
			Title:        "iphone 12 128gb azul",
			Description:  "pantalla impecable, batería al 88%, con cargador",
			Price:        utils.Ptr(100.0),
			SellerID:     "a",
			Images:       []string{"x", "y", "z"},
			PublishedRaw: &domain.RawTime{Epoch: 1700000000, IsEpoch: true},
		},
		{
			ID:          "2",
			Title:       "samsung galaxy a52",
			Description: "funciona perfectamente, se entrega con su caja",
			Price:       utils.Ptr(200.0),
			SellerID:    "b",
			Images:      []string{"x", "y", "z"},
		},
	}

	pop := newTestEnricher().EnrichBatch(listings)

	assert.Equal(t, 150.0, pop.MedianPrice)

	require.NotNil(t, listings[0].Enrichment)
	assert.Equal(t, 150.0, listings[0].Enrichment.MedianPrice)
	assert.Equal(t, "2023-11-14T22:13:20Z", listings[0].PublishedAt)

	require.NotNil(t, listings[1].Enrichment)
	assert.Empty(t, listings[1].PublishedAt)
}

func TestEnrichBatch_GeoAttachedOnlyWhenComplete(t *testing.T) {
	listings := []domain.Listing{
		{
			ID:    "1",
			Price: utils.Ptr(100.0),
			Location: &domain.Location{
				Latitude:  utils.Ptr(40.41),
				Longitude: utils.Ptr(-3.70),
			},
		},
		{
			ID:    "2",
			Price: utils.Ptr(100.0),
			Location: &domain.Location{
				Latitude: utils.Ptr(40.41), // longitude missing
			},
		},
		{
			ID:    "3",
			Price: utils.Ptr(100.0),
		},
	}

	newTestEnricher().EnrichBatch(listings)

	require.NotNil(t, listings[0].Geo)
	assert.Equal(t, 40.41, listings[0].Geo.Lat)
	assert.Equal(t, -3.70, listings[0].Geo.Lon)
	assert.Nil(t, listings[1].Geo)
	assert.Nil(t, listings[2].Geo)
}

func TestEnrichBatch_UnpricedListingNotScored(t *testing.T) {
	listings := []domain.Listing{
		{ID: "1", Price: utils.Ptr(100.0)},
		{ID: "2"}, // no price
	}

	newTestEnricher().EnrichBatch(listings)

	assert.NotNil(t, listings[0].Enrichment)
	assert.Nil(t, listings[1].Enrichment)
}

func TestEnrichBatch_EnrichmentSlicesNeverNil(t *testing.T) {
	listings := []domain.Listing{
		{
			ID:          "1",
			Title:       "iphone 12 128gb azul",
			Description: "pantalla impecable, batería al 88%, con cargador",
			Price:       utils.Ptr(100.0),
			SellerID:    "a",
			Images:      []string{"x", "y", "z"},
		},
	}
	newTestEnricher().EnrichBatch(listings)

	require.NotNil(t, listings[0].Enrichment)
	assert.NotNil(t, listings[0].Enrichment.SuspiciousKeywords)
	assert.NotNil(t, listings[0].Enrichment.RiskFactors)
}
