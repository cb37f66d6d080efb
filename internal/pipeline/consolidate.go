package pipeline

import (
	"strconv"
	"strings"

	"stayscout/internal/domain"
)

// Consolidate merges every accepted match into one unified record and passes
// unmatched listings through as single-source records. Output count is
// always |accepted| + |unmatched A| + |unmatched B|; nothing is dropped.
func Consolidate(cfg Config, a, b []domain.NormalizedListing, decisions []domain.MatchDecision) []domain.ConsolidatedHotel {
	matchedA := make(map[int]bool, len(a))
	matchedB := make(map[int]bool, len(b))

	out := make([]domain.ConsolidatedHotel, 0, len(a)+len(b))
	for _, d := range decisions {
		if !d.Accepted {
			continue
		}
		matchedA[d.AIndex] = true
		matchedB[d.BIndex] = true
		out = append(out, merge(cfg, a[d.AIndex], b[d.BIndex]))
	}
	for i := range a {
		if !matchedA[i] {
			out = append(out, single(cfg, a[i]))
		}
	}
	for j := range b {
		if !matchedB[j] {
			out = append(out, single(cfg, b[j]))
		}
	}
	return out
}

// merge applies the field precedence rules for a matched pair. Rating and
// price follow the source with the higher review count (the statistically
// stronger sample); averaging across scales is deliberately not done.
// Coordinates follow reported precision.
func merge(cfg Config, la, lb domain.NormalizedListing) domain.ConsolidatedHotel {
	primary, secondary := la, lb
	if lb.Raw.ReviewCount > la.Raw.ReviewCount {
		primary, secondary = lb, la
	}

	h := domain.ConsolidatedHotel{
		Name:         la.Raw.Name, // A's formatting is the canonical one
		RatingSource: primary.Raw.Source,
		ReviewCount:  primary.Raw.ReviewCount,
		Sources:      []domain.Source{la.Raw.Source, lb.Raw.Source},
		URLs:         map[domain.Source]string{},
	}
	if la.Raw.URL != "" {
		h.URLs[la.Raw.Source] = la.Raw.URL
	}
	if lb.Raw.URL != "" {
		h.URLs[lb.Raw.Source] = lb.Raw.URL
	}

	switch {
	case !primary.Unrated:
		h.Rating = primary.Rating10
	case !secondary.Unrated:
		h.Rating = secondary.Rating10
		h.RatingSource = secondary.Raw.Source
	default:
		h.Unrated = true
	}

	switch {
	case primary.Raw.Price > 0:
		p := primary.Raw.Price
		h.Price = &p
		h.PriceSource = primary.Raw.Source
	case secondary.Raw.Price > 0:
		p := secondary.Raw.Price
		h.Price = &p
		h.PriceSource = secondary.Raw.Source
	}

	// Coordinate precedence: more reported decimal places wins; equal
	// precision keeps A, the side the bucket grid was anchored on.
	ca, cb := la.Raw.Coords, lb.Raw.Coords
	switch {
	case validCoords(ca) && validCoords(cb):
		if coordPrecision(*cb) > coordPrecision(*ca) {
			h.Coords = &domain.Coords{Lat: cb.Lat, Lon: cb.Lon}
		} else {
			h.Coords = &domain.Coords{Lat: ca.Lat, Lon: ca.Lon}
		}
	case validCoords(ca):
		h.Coords = &domain.Coords{Lat: ca.Lat, Lon: ca.Lon}
	case validCoords(cb):
		h.Coords = &domain.Coords{Lat: cb.Lat, Lon: cb.Lon}
	}

	h.CenterKM = centerDistance(cfg, h.Coords, primary.Raw.CenterKM, secondary.Raw.CenterKM)
	return h
}

func single(cfg Config, l domain.NormalizedListing) domain.ConsolidatedHotel {
	h := domain.ConsolidatedHotel{
		Name:         l.Raw.Name,
		RatingSource: l.Raw.Source,
		Rating:       l.Rating10,
		Unrated:      l.Unrated,
		ReviewCount:  l.Raw.ReviewCount,
		Sources:      []domain.Source{l.Raw.Source},
		URLs:         map[domain.Source]string{},
	}
	if l.Raw.URL != "" {
		h.URLs[l.Raw.Source] = l.Raw.URL
	}
	if l.Raw.Price > 0 {
		p := l.Raw.Price
		h.Price = &p
		h.PriceSource = l.Raw.Source
	}
	if validCoords(l.Raw.Coords) {
		h.Coords = &domain.Coords{Lat: l.Raw.Coords.Lat, Lon: l.Raw.Coords.Lon}
	}
	h.CenterKM = centerDistance(cfg, h.Coords, l.Raw.CenterKM, nil)
	return h
}

// centerDistance carries the reported distance-to-center from the preferred
// source, falling back to the other, then to recomputing against the
// configured city center.
func centerDistance(cfg Config, coords *domain.Coords, preferred, fallback *float64) *float64 {
	if preferred != nil {
		v := *preferred
		return &v
	}
	if fallback != nil {
		v := *fallback
		return &v
	}
	if cfg.CityCenter != nil && coords != nil {
		v := haversineM(*cfg.CityCenter, *coords) / 1000
		return &v
	}
	return nil
}

// coordPrecision counts decimal places via shortest round-trip formatting,
// summed over both axes.
func coordPrecision(c domain.Coords) int {
	return decimals(c.Lat) + decimals(c.Lon)
}

func decimals(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
