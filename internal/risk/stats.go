package risk

import (
	"sort"

	"marketwatch/internal/domain"
)

// Population holds the batch-wide statistics the scorer compares each
// listing against. It is recomputed for every poll cycle and never
// persisted.
type Population struct {
	MedianPrice  float64
	SellerCounts map[string]int
}

// ComputePopulation derives the median price and per-seller listing counts
// for one fetched batch. Listings without a price are skipped for the
// median; listings without a seller are skipped for the counts. An empty
// or fully unpriced batch yields a zero median.
func ComputePopulation(listings []domain.Listing) Population {
	pop := Population{
		SellerCounts: make(map[string]int),
	}

	prices := make([]float64, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		if l.HasPrice() {
			prices = append(prices, *l.Price)
		}
		if l.SellerID != "" {
			pop.SellerCounts[l.SellerID]++
		}
	}

	pop.MedianPrice = median(prices)
	return pop
}

// median returns the standard median: the middle value for odd-length
// input, the average of the two middle values for even-length input, and
// 0 for empty input.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
