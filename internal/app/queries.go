package app

import (
	"context"
	"encoding/json"
	"time"

	"stayscout/internal/domain"
	"stayscout/internal/pipeline"
)

type QueryService struct {
	repo     domain.ResultRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ResultRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

// ListHotels returns the full enriched view of the latest run.
func (s *QueryService) ListHotels(ctx context.Context) ([]domain.EnrichedHotel, error) {
	const key = "hotels:full"
	var out []domain.EnrichedHotel
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	hotels, err := s.repo.ListHotels(ctx)
	if err != nil {
		return nil, err
	}

	// copy before caching so callers can't mutate the cached value
	cp := make([]domain.EnrichedHotel, len(hotels))
	copy(cp, hotels)
	if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	}
	return hotels, nil
}

// TopHotels returns the filtered view ranked by value score, best first.
// Filtering and ranking reuse the core engine so the API and the exporter
// can never disagree.
func (s *QueryService) TopHotels(ctx context.Context, criteria domain.FilterCriteria, n int) ([]domain.EnrichedHotel, error) {
	hotels, err := s.ListHotels(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.RankByValue(pipeline.Filter(hotels, criteria), n), nil
}

// ListDecisions returns the audit trail of the latest run.
func (s *QueryService) ListDecisions(ctx context.Context, q domain.DecisionsQuery) ([]domain.MatchDecision, error) {
	key := decisionsKey(q.AcceptedOnly, q.Limit)
	var out []domain.MatchDecision
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	ds, err := s.repo.ListDecisions(ctx, q)
	if err != nil {
		return nil, err
	}
	cp := make([]domain.MatchDecision, len(ds))
	copy(cp, ds)
	if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	}
	return ds, nil
}
