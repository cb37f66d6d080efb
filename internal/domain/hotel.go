package domain

// ConsolidatedHotel is the unit of truth after merging a matched pair, or a
// single-source pass-through. Field provenance is kept so the report can say
// where each number came from.
type ConsolidatedHotel struct {
	Name         string
	Price        *float64 // nil = no source reported a usable price
	PriceSource  Source
	Rating       float64 // 0-10 scale
	RatingSource Source
	Unrated      bool
	ReviewCount  int // the count that backed the rating/price decision
	Coords       *Coords
	CenterKM     *float64
	Sources      []Source          // {A}, {B} or {A,B}
	URLs         map[Source]string // one per contributing source
}

// Matched reports whether both platforms contributed to this record.
func (c ConsolidatedHotel) Matched() bool { return len(c.Sources) == 2 }

// PopularityTier is an ordinal classification over review count.
type PopularityTier int

const (
	TierNiche PopularityTier = iota
	TierKnown
	TierPopular
	TierLandmark
)

func (t PopularityTier) String() string {
	names := []string{"niche", "known", "popular", "landmark"}
	if int(t) >= 0 && int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// LocationCategory is an ordinal classification over distance to center.
type LocationCategory int

const (
	LocationCenter LocationCategory = iota
	LocationWalkable
	LocationCommute
	LocationOutskirts
)

func (l LocationCategory) String() string {
	names := []string{"center", "walkable", "commute", "outskirts"}
	if int(l) >= 0 && int(l) < len(names) {
		return names[l]
	}
	return "unknown"
}

// EnrichedHotel adds the city-relative metrics. ValueScore is nil when the
// record has no usable price; such records are never silently scored.
type EnrichedHotel struct {
	ConsolidatedHotel
	ValueScore *float64
	Tier       PopularityTier
	Location   LocationCategory
}
