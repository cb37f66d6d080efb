package pipeline

import (
	"sort"
	"sync"

	"stayscout/internal/domain"
)

// Enrich computes the city-relative metrics over the full consolidated set.
// The value score needs the city-wide average price, so this cannot run
// per-record. Returns ErrInsufficientData when no record carries a usable
// price; the caller still has the consolidated set.
func Enrich(cfg Config, hotels []domain.ConsolidatedHotel) ([]domain.EnrichedHotel, error) {
	avg, ok := cityAveragePrice(hotels, cfg.workers())
	if !ok {
		return nil, domain.ErrInsufficientData
	}

	out := make([]domain.EnrichedHotel, len(hotels))
	for i, h := range hotels {
		e := domain.EnrichedHotel{
			ConsolidatedHotel: h,
			Tier:              popularityTier(h.ReviewCount, cfg.TierBreaks),
			Location:          locationCategory(h.CenterKM, cfg.LocationBreaks),
		}
		if h.Price != nil {
			// rating relative to price normalized by the city average;
			// higher = more value for money.
			v := h.Rating / (*h.Price / avg)
			e.ValueScore = &v
		}
		out[i] = e
	}
	return out, nil
}

// cityAveragePrice is the mean over records with a valid price. Partitions
// accumulate local sum/count pairs which are combined once, sequentially —
// never a shared running average under concurrent writers.
func cityAveragePrice(hotels []domain.ConsolidatedHotel, workers int) (float64, bool) {
	type partial struct {
		sum   float64
		count int
	}
	if workers > len(hotels) {
		workers = len(hotels)
	}
	if workers < 1 {
		workers = 1
	}

	parts := make([]partial, workers)
	var wg sync.WaitGroup
	chunk := (len(hotels) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(hotels) {
			hi = len(hotels)
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			for _, h := range hotels[lo:hi] {
				if h.Price != nil && *h.Price > 0 {
					parts[w].sum += *h.Price
					parts[w].count++
				}
			}
		}(w, lo, hi)
	}
	wg.Wait()

	var total partial
	for _, p := range parts {
		total.sum += p.sum
		total.count += p.count
	}
	if total.count == 0 {
		return 0, false
	}
	return total.sum / float64(total.count), true
}

func popularityTier(reviews int, breaks []int) domain.PopularityTier {
	i := sort.SearchInts(breaks, reviews+1) // strictly-greater breakpoint
	return domain.PopularityTier(i)
}

// locationCategory classifies by distance-to-center; records with unknown
// distance land in the outermost category.
func locationCategory(km *float64, breaks []float64) domain.LocationCategory {
	if km == nil {
		return domain.LocationCategory(len(breaks))
	}
	// first breakpoint >= km; a record exactly on the boundary stays in
	// the nearer category
	return domain.LocationCategory(sort.SearchFloat64s(breaks, *km))
}
