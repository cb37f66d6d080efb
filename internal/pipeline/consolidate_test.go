package pipeline

import (
	"testing"

	"stayscout/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestConsolidate_CompletenessCount(t *testing.T) {
	cfg := testCfg()
	cfg.NameThreshold = 0.8

	a := normalizeSlice(cfg, []domain.RawListing{
		listing(domain.SourceA, "Grand Plaza Hotel", 38.7169, -9.1399),
		listing(domain.SourceA, "Only On A", 38.7300, -9.1500),
	})
	b := normalizeSlice(cfg, []domain.RawListing{
		listing(domain.SourceB, "grand plaza", 38.7170, -9.1400),
		listing(domain.SourceB, "Only On B", 38.7400, -9.1600),
	})

	ds := Decide(a, b, scoreAll(cfg, a, b), cfg)
	if len(accepted(ds)) != 1 {
		t.Fatalf("setup: expected one accepted match, got %+v", ds)
	}

	out := Consolidate(cfg, a, b, ds)
	// 1 merged + 1 unmatched A + 1 unmatched B
	if len(out) != 3 {
		t.Fatalf("consolidated count = %d, want 3", len(out))
	}
	merged := 0
	for _, h := range out {
		if h.Matched() {
			merged++
		}
	}
	if merged != 1 {
		t.Fatalf("expected exactly one two-source record, got %d", merged)
	}
}

func TestMerge_ReviewCountPrecedence(t *testing.T) {
	cfg := testCfg()
	la := Normalize(cfg, domain.RawListing{
		Source: domain.SourceA, Name: "Grand Plaza Hotel & Spa",
		Price: 120, Rating: 4.2, ReviewCount: 340,
		Coords: &domain.Coords{Lat: 38.7169, Lon: -9.1399},
		URL:    "https://a.example/grand-plaza",
	})
	lb := Normalize(cfg, domain.RawListing{
		Source: domain.SourceB, Name: "grand plaza hotel",
		Price: 115, Rating: 8.9, ReviewCount: 1200,
		Coords: &domain.Coords{Lat: 38.717, Lon: -9.14},
		URL:    "https://b.example/grand-plaza",
	})

	h := merge(cfg, la, lb)

	// B has the bigger sample: its price and rating win
	if h.Price == nil || *h.Price != 115 || h.PriceSource != domain.SourceB {
		t.Fatalf("price precedence wrong: %+v", h)
	}
	if !approx(h.Rating, 8.9) || h.RatingSource != domain.SourceB {
		t.Fatalf("rating precedence wrong: %+v", h)
	}
	if h.ReviewCount != 1200 {
		t.Fatalf("review count = %d, want 1200", h.ReviewCount)
	}

	// but A's raw name stays canonical
	if h.Name != "Grand Plaza Hotel & Spa" {
		t.Fatalf("canonical name = %q", h.Name)
	}
	if h.URLs[domain.SourceA] == "" || h.URLs[domain.SourceB] == "" {
		t.Fatalf("both source URLs must survive: %+v", h.URLs)
	}
	if len(h.Sources) != 2 {
		t.Fatalf("sources = %v", h.Sources)
	}
}

func TestMerge_CoordinatePrecision(t *testing.T) {
	cfg := testCfg()
	la := Normalize(cfg, domain.RawListing{
		Source: domain.SourceA, Name: "X", ReviewCount: 10,
		Coords: &domain.Coords{Lat: 38.72, Lon: -9.14}, // coarse
	})
	lb := Normalize(cfg, domain.RawListing{
		Source: domain.SourceB, Name: "X", ReviewCount: 999,
		Coords: &domain.Coords{Lat: 38.716938, Lon: -9.139917}, // precise
	})

	h := merge(cfg, la, lb)
	if h.Coords == nil || h.Coords.Lat != 38.716938 {
		t.Fatalf("expected the more precise coordinates, got %+v", h.Coords)
	}

	// equal precision keeps A's coordinates regardless of review counts
	lb2 := Normalize(cfg, domain.RawListing{
		Source: domain.SourceB, Name: "X", ReviewCount: 999,
		Coords: &domain.Coords{Lat: 38.75, Lon: -9.15},
	})
	h = merge(cfg, la, lb2)
	if h.Coords == nil || h.Coords.Lat != 38.72 {
		t.Fatalf("equal precision must keep A, got %+v", h.Coords)
	}
}

func TestMerge_RatingFallback(t *testing.T) {
	cfg := testCfg()
	// primary (more reviews) has no rating; secondary's must be used
	la := Normalize(cfg, domain.RawListing{Source: domain.SourceA, Name: "X", Rating: 4.0, ReviewCount: 5})
	lb := Normalize(cfg, domain.RawListing{Source: domain.SourceB, Name: "X", ReviewCount: 900})

	h := merge(cfg, la, lb)
	if h.Unrated || !approx(h.Rating, 8.0) || h.RatingSource != domain.SourceA {
		t.Fatalf("expected fallback to A's rating, got %+v", h)
	}
}

// Scenario: a listing that exists only on one platform flows through
// unchanged as a single-source record.
func TestSingle_PassThrough(t *testing.T) {
	cfg := testCfg()
	l := Normalize(cfg, domain.RawListing{
		Source: domain.SourceB, Name: "Casa do Fado",
		Price: 80, Rating: 9.1, ReviewCount: 42,
		Coords:   &domain.Coords{Lat: 38.71, Lon: -9.13},
		CenterKM: ptr(1.4),
	})

	h := single(cfg, l)
	if h.Matched() {
		t.Fatalf("single-source record reported as matched")
	}
	if h.Name != "Casa do Fado" || h.Price == nil || *h.Price != 80 {
		t.Fatalf("fields not carried through: %+v", h)
	}
	if !approx(h.Rating, 9.1) || h.ReviewCount != 42 {
		t.Fatalf("rating/reviews not carried through: %+v", h)
	}
	if h.CenterKM == nil || *h.CenterKM != 1.4 {
		t.Fatalf("reported center distance must survive: %+v", h.CenterKM)
	}
}

func TestCenterDistance_RecomputeFromCityCenter(t *testing.T) {
	cfg := testCfg()
	cfg.CityCenter = &domain.Coords{Lat: 38.7139, Lon: -9.1335}

	l := Normalize(cfg, listing(domain.SourceA, "X", 38.7169, -9.1399))
	h := single(cfg, l)
	if h.CenterKM == nil {
		t.Fatalf("expected recomputed center distance")
	}
	if *h.CenterKM < 0.3 || *h.CenterKM > 1.2 {
		t.Fatalf("recomputed distance %v km out of plausible range", *h.CenterKM)
	}
}

func TestDecimals(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{38.72, 2},
		{38.716938, 6},
		{38, 0},
		{-9.1, 1},
	}
	for _, c := range cases {
		if got := decimals(c.in); got != c.want {
			t.Fatalf("decimals(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}
