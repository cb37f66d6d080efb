package domain

import "context"

type ResultRepository interface {
	// Write path: a run lands atomically or not at all.
	ReplaceRun(ctx context.Context, hotels []EnrichedHotel, decisions []MatchDecision) error

	// Read paths
	ListHotels(ctx context.Context) ([]EnrichedHotel, error)
	ListDecisions(ctx context.Context, q DecisionsQuery) ([]MatchDecision, error)
}

// SourceClient is the acquisition collaborator: one per platform, already
// pointed at the right city/date query. The core never retries upstream.
type SourceClient interface {
	FetchListings(ctx context.Context) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// FilterCriteria are the user business thresholds; nil means no constraint
// on that dimension.
type FilterCriteria struct {
	MaxPrice      *float64
	MaxDistanceKM *float64
	MinRating     *float64
	MinReviews    *int
}

type DecisionsQuery struct {
	AcceptedOnly bool
	Limit        int
}
