package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"stayscout/internal/domain"
)

// Result holds everything one pipeline run produced. Enriched is nil when
// enrichment failed; the consolidated set and the audit trail are still
// populated so the caller can hand out partial results.
type Result struct {
	A, B         []domain.NormalizedListing
	Decisions    []domain.MatchDecision
	Consolidated []domain.ConsolidatedHotel
	Enriched     []domain.EnrichedHotel
	Warnings     int
}

// Accepted counts the accepted match decisions.
func (r *Result) Accepted() int {
	n := 0
	for _, d := range r.Decisions {
		if d.Accepted {
			n++
		}
	}
	return n
}

// Run executes the whole core pipeline over two fully-materialized raw
// datasets. Configuration problems abort before any record is touched.
// ErrInsufficientData from enrichment is returned alongside the partial
// Result; any other error discards the run.
func Run(ctx context.Context, cfg Config, rawA, rawB []domain.RawListing) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	var err error
	if res.A, err = normalizeAll(ctx, cfg, rawA); err != nil {
		return nil, err
	}
	if res.B, err = normalizeAll(ctx, cfg, rawB); err != nil {
		return nil, err
	}
	for _, n := range res.A {
		res.Warnings += len(n.Warnings)
	}
	for _, n := range res.B {
		res.Warnings += len(n.Warnings)
	}

	pairs := GeneratePairs(cfg, res.A, res.B)
	scored, err := scorePairs(ctx, cfg, res.A, res.B, pairs)
	if err != nil {
		return nil, err
	}
	res.Decisions = Decide(res.A, res.B, scored, cfg)
	res.Consolidated = Consolidate(cfg, res.A, res.B, res.Decisions)

	res.Enriched, err = Enrich(cfg, res.Consolidated)
	if errors.Is(err, domain.ErrInsufficientData) {
		return res, err
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// normalizeAll fans normalization out over index partitions; each worker
// writes disjoint slots, results merge by position.
func normalizeAll(ctx context.Context, cfg Config, raw []domain.RawListing) ([]domain.NormalizedListing, error) {
	out := make([]domain.NormalizedListing, len(raw))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())
	for _, part := range partitions(len(raw), cfg.workers()) {
		lo, hi := part[0], part[1]
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				out[i] = Normalize(cfg, raw[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// scorePairs computes similarity and distance for every candidate pair,
// partition-parallel with positional writes. Decision-making stays
// sequential because of the one-to-one claim set.
func scorePairs(ctx context.Context, cfg Config, a, b []domain.NormalizedListing, pairs []Pair) ([]ScoredPair, error) {
	out := make([]ScoredPair, len(pairs))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())
	for _, part := range partitions(len(pairs), cfg.workers()) {
		lo, hi := part[0], part[1]
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				sim, dist := Score(a[pairs[i].AIndex], b[pairs[i].BIndex])
				out[i] = ScoredPair{Pair: pairs[i], Similarity: sim, DistanceM: dist}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// partitions splits [0,n) into at most k contiguous [lo,hi) ranges.
func partitions(n, k int) [][2]int {
	var parts [][2]int
	if n == 0 {
		return parts
	}
	chunk := (n + k - 1) / k
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		parts = append(parts, [2]int{lo, hi})
	}
	return parts
}
