package pipeline

import (
	"sort"

	"stayscout/internal/domain"
)

// Filter applies the user business thresholds as a pure predicate
// conjunction. Absent criteria constrain nothing; a record missing a metric
// a criterion constrains cannot satisfy it. Relative input order is
// preserved, and an empty result is a valid outcome, not an error.
func Filter(hotels []domain.EnrichedHotel, c domain.FilterCriteria) []domain.EnrichedHotel {
	out := make([]domain.EnrichedHotel, 0, len(hotels))
	for _, h := range hotels {
		if c.MaxPrice != nil && (h.Price == nil || *h.Price > *c.MaxPrice) {
			continue
		}
		if c.MaxDistanceKM != nil && (h.CenterKM == nil || *h.CenterKM > *c.MaxDistanceKM) {
			continue
		}
		if c.MinRating != nil && (h.Unrated || h.Rating < *c.MinRating) {
			continue
		}
		if c.MinReviews != nil && h.ReviewCount < *c.MinReviews {
			continue
		}
		out = append(out, h)
	}
	return out
}

// RankByValue returns the top n hotels by value score descending. Records
// without a score rank last; ties keep input order.
func RankByValue(hotels []domain.EnrichedHotel, n int) []domain.EnrichedHotel {
	ranked := make([]domain.EnrichedHotel, len(hotels))
	copy(ranked, hotels)
	sort.SliceStable(ranked, func(i, j int) bool {
		vi, vj := ranked[i].ValueScore, ranked[j].ValueScore
		switch {
		case vi == nil:
			return false
		case vj == nil:
			return true
		default:
			return *vi > *vj
		}
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
