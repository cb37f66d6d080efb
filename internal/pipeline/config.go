package pipeline

import (
	"fmt"
	"sort"

	"stayscout/internal/domain"
)

// Config carries every tunable the core consumes. Plain values only; no
// environment lookups happen inside the pipeline.
type Config struct {
	NoiseTokens []string // generic name tokens stripped before comparison

	GridCellDeg         float64 // candidate-search cell size, decimal degrees
	NameThreshold       float64 // minimum similarity in [0,1]
	DistanceThresholdKM float64 // maximum pair separation

	// RatingScale maps each source to the max of its native rating scale
	// (5 for 0-5 sites, 10 for 0-10 sites). Missing entries default to 10.
	RatingScale map[domain.Source]float64

	TierBreaks     []int     // ascending review-count breakpoints
	LocationBreaks []float64 // ascending distance-to-center breakpoints, km

	CityCenter *domain.Coords // optional; used to recompute missing distances

	Workers int // parallelism for normalization and pair scoring
}

// DefaultNoiseTokens are the generic hotel-category words that differ freely
// between platforms for the same physical property.
var DefaultNoiseTokens = []string{
	"hotel", "resort", "spa", "suites", "apartments", "inn", "boutique", "luxury", "grand", "the",
}

// Validate rejects unusable settings before any record is processed.
func (c Config) Validate() error {
	if c.NameThreshold < 0 || c.NameThreshold > 1 {
		return &domain.ConfigurationError{Field: "name_threshold", Reason: fmt.Sprintf("must be in [0,1], got %g", c.NameThreshold)}
	}
	if c.DistanceThresholdKM < 0 {
		return &domain.ConfigurationError{Field: "distance_threshold_km", Reason: fmt.Sprintf("must be >= 0, got %g", c.DistanceThresholdKM)}
	}
	if c.GridCellDeg <= 0 {
		return &domain.ConfigurationError{Field: "grid_cell_deg", Reason: fmt.Sprintf("must be > 0, got %g", c.GridCellDeg)}
	}
	for src, max := range c.RatingScale {
		if max <= 0 {
			return &domain.ConfigurationError{Field: "rating_scale", Reason: fmt.Sprintf("source %s: scale max must be > 0, got %g", src, max)}
		}
	}
	if !sort.IntsAreSorted(c.TierBreaks) {
		return &domain.ConfigurationError{Field: "tier_breaks", Reason: "breakpoints must be ascending"}
	}
	if !sort.Float64sAreSorted(c.LocationBreaks) {
		return &domain.ConfigurationError{Field: "location_breaks", Reason: "breakpoints must be ascending"}
	}
	return nil
}

func (c Config) scaleFor(src domain.Source) float64 {
	if max, ok := c.RatingScale[src]; ok {
		return max
	}
	return 10
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}
