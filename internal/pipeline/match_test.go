package pipeline

import (
	"math"
	"testing"

	"stayscout/internal/domain"
)

func scoreAll(cfg Config, a, b []domain.NormalizedListing) []ScoredPair {
	pairs := GeneratePairs(cfg, a, b)
	out := make([]ScoredPair, len(pairs))
	for i, p := range pairs {
		sim, dist := Score(a[p.AIndex], b[p.BIndex])
		out[i] = ScoredPair{Pair: p, Similarity: sim, DistanceM: dist}
	}
	return out
}

func accepted(ds []domain.MatchDecision) []domain.MatchDecision {
	var out []domain.MatchDecision
	for _, d := range ds {
		if d.Accepted {
			out = append(out, d)
		}
	}
	return out
}

func TestScore_IdenticalCleanNames(t *testing.T) {
	cfg := testCfg()
	a := Normalize(cfg, domain.RawListing{Source: domain.SourceA, Name: "Grand Plaza Hotel & Spa", Coords: &domain.Coords{Lat: 38.7169, Lon: -9.1399}})
	b := Normalize(cfg, domain.RawListing{Source: domain.SourceB, Name: "grand plaza hotel", Coords: &domain.Coords{Lat: 38.7170, Lon: -9.1400}})

	sim, dist := Score(a, b)
	if sim != 1.0 {
		t.Fatalf("similarity = %v, want 1.0", sim)
	}
	if dist <= 0 || dist > 50 {
		t.Fatalf("distance = %vm, want a few meters", dist)
	}
}

func TestScore_MissingCoordsIsInfinitelyFar(t *testing.T) {
	cfg := testCfg()
	a := Normalize(cfg, domain.RawListing{Source: domain.SourceA, Name: "X", Coords: &domain.Coords{Lat: 38.7, Lon: -9.1}})
	b := Normalize(cfg, domain.RawListing{Source: domain.SourceB, Name: "X"})
	if _, dist := Score(a, b); !math.IsInf(dist, 1) {
		t.Fatalf("distance = %v, want +Inf", dist)
	}
}

// Scenario: same physical hotel listed on both platforms with different
// formatting clears both gates and is accepted exactly once.
func TestDecide_AcceptsCrossPlatformMatch(t *testing.T) {
	cfg := testCfg()
	cfg.NameThreshold = 0.8
	cfg.DistanceThresholdKM = 0.2

	a := normalizeSlice(cfg, []domain.RawListing{
		{Source: domain.SourceA, Name: "Grand Plaza Hotel & Spa", Coords: &domain.Coords{Lat: 38.7169, Lon: -9.1399}},
	})
	b := normalizeSlice(cfg, []domain.RawListing{
		{Source: domain.SourceB, Name: "grand plaza hotel", Coords: &domain.Coords{Lat: 38.7170, Lon: -9.1400}},
	})

	ds := Decide(a, b, scoreAll(cfg, a, b), cfg)
	acc := accepted(ds)
	if len(acc) != 1 {
		t.Fatalf("expected one accepted match, got %d (%+v)", len(acc), ds)
	}
	if acc[0].AIndex != 0 || acc[0].BIndex != 0 || acc[0].Reason != "" {
		t.Fatalf("unexpected decision: %+v", acc[0])
	}
}

// Scenario: identical names 5 km apart must be rejected on distance, and the
// audit trail must say so.
func TestDecide_DistanceRejection(t *testing.T) {
	cfg := testCfg()
	cfg.GridCellDeg = 0.05 // wide cells so the pair is still proposed
	cfg.DistanceThresholdKM = 1

	a := normalizeSlice(cfg, []domain.RawListing{
		{Source: domain.SourceA, Name: "Riverside Palace", Coords: &domain.Coords{Lat: 38.700, Lon: -9.140}},
	})
	b := normalizeSlice(cfg, []domain.RawListing{
		{Source: domain.SourceB, Name: "Riverside Palace", Coords: &domain.Coords{Lat: 38.745, Lon: -9.140}}, // ~5 km north
	})

	ds := Decide(a, b, scoreAll(cfg, a, b), cfg)
	if len(ds) != 1 {
		t.Fatalf("expected one audited decision, got %d", len(ds))
	}
	d := ds[0]
	if d.Accepted || d.Reason != domain.ReasonDistance {
		t.Fatalf("expected distance rejection, got %+v", d)
	}
	if d.Similarity != 1.0 {
		t.Fatalf("similarity = %v, want 1.0", d.Similarity)
	}
}

func TestDecide_SimilarityRejection(t *testing.T) {
	cfg := testCfg()
	a := normalizeSlice(cfg, []domain.RawListing{
		{Source: domain.SourceA, Name: "Atlantic View", Coords: &domain.Coords{Lat: 38.700, Lon: -9.140}},
	})
	b := normalizeSlice(cfg, []domain.RawListing{
		{Source: domain.SourceB, Name: "Mountain Lodge Retreat", Coords: &domain.Coords{Lat: 38.7001, Lon: -9.1401}},
	})
	ds := Decide(a, b, scoreAll(cfg, a, b), cfg)
	if len(ds) != 1 || ds[0].Accepted || ds[0].Reason != domain.ReasonSimilarity {
		t.Fatalf("expected similarity rejection, got %+v", ds)
	}
}

// One B record must never be consumed by two A records; the later claimant
// gets an audited "claimed" rejection.
func TestDecide_OneToOneClaiming(t *testing.T) {
	cfg := testCfg()
	cfg.NameThreshold = 0.8

	a := normalizeSlice(cfg, []domain.RawListing{
		{Source: domain.SourceA, Name: "Sunset Beach", Coords: &domain.Coords{Lat: 38.7000, Lon: -9.1400}},
		{Source: domain.SourceA, Name: "Sunset Beach", Coords: &domain.Coords{Lat: 38.7001, Lon: -9.1401}},
	})
	b := normalizeSlice(cfg, []domain.RawListing{
		{Source: domain.SourceB, Name: "Sunset Beach", Coords: &domain.Coords{Lat: 38.7000, Lon: -9.1400}},
	})

	ds := Decide(a, b, scoreAll(cfg, a, b), cfg)
	acc := accepted(ds)
	if len(acc) != 1 {
		t.Fatalf("expected exactly one accepted match, got %d", len(acc))
	}
	seenClaimed := false
	for _, d := range ds {
		if !d.Accepted && d.Reason == domain.ReasonClaimed {
			seenClaimed = true
		}
	}
	if !seenClaimed {
		t.Fatalf("expected a claimed rejection in the audit trail: %+v", ds)
	}

	// injectivity: no A or B index appears in two accepted decisions
	seenA, seenB := map[int]bool{}, map[int]bool{}
	for _, d := range acc {
		if seenA[d.AIndex] || seenB[d.BIndex] {
			t.Fatalf("duplicate index in accepted decisions: %+v", acc)
		}
		seenA[d.AIndex], seenB[d.BIndex] = true, true
	}
}

// Ties on similarity go to the smaller distance.
func TestDecide_TieBreakOnDistance(t *testing.T) {
	cfg := testCfg()
	cfg.NameThreshold = 0.8

	a := normalizeSlice(cfg, []domain.RawListing{
		{Source: domain.SourceA, Name: "Harbor Lights", Coords: &domain.Coords{Lat: 38.7000, Lon: -9.1400}},
	})
	b := normalizeSlice(cfg, []domain.RawListing{
		{Source: domain.SourceB, Name: "Harbor Lights", Coords: &domain.Coords{Lat: 38.7008, Lon: -9.1400}}, // ~90 m
		{Source: domain.SourceB, Name: "Harbor Lights", Coords: &domain.Coords{Lat: 38.7001, Lon: -9.1400}}, // ~11 m
	})

	ds := Decide(a, b, scoreAll(cfg, a, b), cfg)
	acc := accepted(ds)
	if len(acc) != 1 || acc[0].BIndex != 1 {
		t.Fatalf("expected the closer candidate to win, got %+v", acc)
	}
}

// Raising the similarity threshold never increases accepted matches; raising
// the distance threshold never decreases them.
func TestDecide_ThresholdMonotonicity(t *testing.T) {
	base := testCfg()
	base.GridCellDeg = 0.05

	a := normalizeSlice(base, []domain.RawListing{
		{Source: domain.SourceA, Name: "Grand Plaza Hotel & Spa", Coords: &domain.Coords{Lat: 38.7169, Lon: -9.1399}},
		{Source: domain.SourceA, Name: "Casa do Rio", Coords: &domain.Coords{Lat: 38.7200, Lon: -9.1500}},
		{Source: domain.SourceA, Name: "Lisboa Central Inn", Coords: &domain.Coords{Lat: 38.7100, Lon: -9.1300}},
	})
	b := normalizeSlice(base, []domain.RawListing{
		{Source: domain.SourceB, Name: "grand plaza hotel", Coords: &domain.Coords{Lat: 38.7170, Lon: -9.1400}},
		{Source: domain.SourceB, Name: "Casa de Rio", Coords: &domain.Coords{Lat: 38.7230, Lon: -9.1520}},
		{Source: domain.SourceB, Name: "Central Lisboa", Coords: &domain.Coords{Lat: 38.7150, Lon: -9.1280}},
	})

	count := func(nameThr, distKM float64) int {
		cfg := base
		cfg.NameThreshold = nameThr
		cfg.DistanceThresholdKM = distKM
		return len(accepted(Decide(a, b, scoreAll(cfg, a, b), cfg)))
	}

	prev := -1
	for _, thr := range []float64{0.5, 0.7, 0.9, 1.0} {
		n := count(thr, 2.0)
		if prev >= 0 && n > prev {
			t.Fatalf("accepted count grew when similarity threshold rose: %d -> %d at %v", prev, n, thr)
		}
		prev = n
	}

	prev = -1
	for _, dist := range []float64{0.05, 0.5, 1.0, 5.0} {
		n := count(0.6, dist)
		if prev >= 0 && n < prev {
			t.Fatalf("accepted count shrank when distance threshold rose: %d -> %d at %v", prev, n, dist)
		}
		prev = n
	}
}
