package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"stayscout/internal/adapters/observability"
	"stayscout/internal/domain"
	"stayscout/internal/pipeline"
)

// ReconcileService runs one full reconciliation: fetch both feeds, run the
// core pipeline, persist the results, evict stale caches.
type ReconcileService struct {
	srcA, srcB domain.SourceClient
	repo       domain.ResultRepository
	cache      domain.Cache
	cfg        pipeline.Config
}

func NewReconcileService(a, b domain.SourceClient, r domain.ResultRepository, cache domain.Cache, cfg pipeline.Config) *ReconcileService {
	return &ReconcileService{srcA: a, srcB: b, repo: r, cache: cache, cfg: cfg}
}

// Reconcile executes one run. A configuration problem aborts before any
// record is processed. When enrichment fails for lack of price data the
// partial result (consolidated set + audit trail) is returned alongside
// domain.ErrInsufficientData and nothing is persisted — a run lands fully
// or not at all.
func (s *ReconcileService) Reconcile(ctx context.Context) (*pipeline.Result, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	var rawA, rawB []domain.RawListing
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := s.srcA.FetchListings(gctx)
		if err != nil {
			return fmt.Errorf("fetch source A: %w", err)
		}
		rawA = MapListings(domain.SourceA, recs)
		return nil
	})
	g.Go(func() error {
		recs, err := s.srcB.FetchListings(gctx)
		if err != nil {
			return fmt.Errorf("fetch source B: %w", err)
		}
		rawB = MapListings(domain.SourceB, recs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info().Int("source_a", len(rawA)).Int("source_b", len(rawB)).Msg("feeds materialized")

	res, err := pipeline.Run(ctx, s.cfg, rawA, rawB)
	if res != nil {
		recordRunMetrics(res)
		logWarnings(res)
	}
	if errors.Is(err, domain.ErrInsufficientData) {
		log.Error().Int("consolidated", len(res.Consolidated)).Msg("no usable prices; run not persisted")
		return res, err
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceRun(ctx, res.Enriched, res.Decisions); err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}
	s.invalidate(ctx)

	log.Info().
		Int("matched", res.Accepted()).
		Int("consolidated", len(res.Consolidated)).
		Int("decisions", len(res.Decisions)).
		Int("warnings", res.Warnings).
		Msg("reconciliation completed")
	return res, nil
}

// logWarnings surfaces every data-quality note as a Warn event so bad feed
// batches are visible without digging into the persisted rows.
func logWarnings(res *pipeline.Result) {
	for _, set := range [][]domain.NormalizedListing{res.A, res.B} {
		for _, n := range set {
			for _, w := range n.Warnings {
				log.Warn().
					Str("source", string(n.Raw.Source)).
					Str("name", n.Raw.Name).
					Msg(w)
			}
		}
	}
}

func recordRunMetrics(res *pipeline.Result) {
	observability.ObserveListings(string(domain.SourceA), len(res.A))
	observability.ObserveListings(string(domain.SourceB), len(res.B))
	for _, d := range res.Decisions {
		if d.Accepted {
			observability.ObserveDecision("accepted")
		} else {
			observability.ObserveDecision(d.Reason)
		}
	}
	observability.ObserveWarnings(res.Warnings)
}

// invalidate drops the query caches a fresh run made stale.
func (s *ReconcileService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, "hotels:full")
	// common decision-list variants, same trick as the hotel cache: exact
	// enumeration is impossible, so clear the limits the API serves by default
	for _, accepted := range []bool{true, false} {
		for _, lim := range []int{100, 500, 1000} {
			_ = s.cache.Del(ctx, decisionsKey(accepted, lim))
		}
	}
}

func decisionsKey(acceptedOnly bool, limit int) string {
	return fmt.Sprintf("decisions:%t:%d", acceptedOnly, limit)
}
