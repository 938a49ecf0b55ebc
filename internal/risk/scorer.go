package risk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"marketwatch/internal/config"
	"marketwatch/internal/domain"
)

// MaxScore is the ceiling for a listing's risk score. Rules are additive
// evidence; a listing triggering more than 100 raw points saturates at 100
// rather than being rescaled.
const MaxScore = 100

// Result is the outcome of scoring one listing.
type Result struct {
	Score    int
	Keywords []string // lexicon terms found in the description, lexicon order
	Factors  []string // one entry per triggered rule, in evaluation order
}

// Scorer computes a heuristic fraud-likelihood score for a single listing
// against its batch population. Scoring is pure: the same listing and
// population always produce the same result.
type Scorer struct {
	cfg config.RiskConfig
}

func NewScorer(cfg config.RiskConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score evaluates every rule against the listing. Rules are independent
// and more than one may fire. Text comparisons are case-insensitive and
// absent text fields count as empty strings. The caller must only pass
// priced listings; unpriced listings are excluded from scoring upstream.
func (s *Scorer) Score(l *domain.Listing, pop Population) Result {
	var res Result

	desc := strings.ToLower(l.Description)
	title := strings.ToLower(l.Title)
	price := 0.0
	if l.HasPrice() {
		price = *l.Price
	}
	descLen := utf8.RuneCountInString(desc)

	// Price anomalies.
	if price < s.cfg.MedianLowFraction*pop.MedianPrice {
		res.add(40, "Very low price (<50% median)")
	}
	if price < s.cfg.LowPriceCutoff {
		res.add(20, fmt.Sprintf("Extremely low price (<%.0f€)", s.cfg.LowPriceCutoff))
	}

	// Lexicon hits in the description.
	for _, kw := range s.cfg.SuspiciousKeywords {
		if strings.Contains(desc, strings.ToLower(kw)) {
			res.Keywords = append(res.Keywords, kw)
		}
	}
	if len(res.Keywords) > 0 {
		res.add(20, "Keywords: "+strings.Join(res.Keywords, ", "))
	}

	// Seller behaviour, only when the listing names a seller.
	if l.SellerID != "" {
		posts := pop.SellerCounts[l.SellerID]
		if posts > s.cfg.ProlificSellerCount {
			res.add(20, "Seller posts many items (>20/day)")
		}
		if posts == 1 {
			res.add(10, "Seller with only one listing")
		}
	}

	// Text quality.
	if descLen < s.cfg.ShortDescriptionLen {
		res.add(10, "Very short description")
	}
	if strings.Contains(desc, s.cfg.NotWorkingPhrase) && price > s.cfg.ContradictionPrice {
		res.add(10, fmt.Sprintf("Contradiction: %q but high price", s.cfg.NotWorkingPhrase))
	}

	// Image anomalies. l.Images is already the flattened URL list.
	numImages := len(l.Images)
	if numImages == 1 {
		res.add(15, "Only one image (possible stock photo)")
	}
	if numImages > 2 && float64(distinctCount(l.Images)) < float64(numImages)/2 {
		res.add(10, "Repeated images (possible fake listing)")
	}

	// Generic title: exact match, not substring.
	for _, generic := range s.cfg.GenericTitles {
		if title == strings.ToLower(generic) {
			res.add(15, "Generic title (model not specified)")
			break
		}
	}

	// Flagship model with a weak description.
	if containsAny(title, s.cfg.FlagshipMarkers) && descLen < s.cfg.WeakDescriptionLen {
		res.add(20, "High-end model with weak description")
	}

	// Legacy model priced above the batch.
	if containsAny(title, s.cfg.LegacyMarkers) && price > pop.MedianPrice*s.cfg.MedianHighFactor {
		res.add(10, "Overpriced old model")
	}

	if res.Score > MaxScore {
		res.Score = MaxScore
	}
	return res
}

func (r *Result) add(points int, factor string) {
	r.Score += points
	r.Factors = append(r.Factors, factor)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

func distinctCount(urls []string) int {
	set := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		set[u] = struct{}{}
	}
	return len(set)
}
