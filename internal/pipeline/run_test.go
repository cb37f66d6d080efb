package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"stayscout/internal/domain"
)

func fixtureA() []domain.RawListing {
	return []domain.RawListing{
		{Source: domain.SourceA, Name: "Grand Plaza Hotel & Spa", Price: 120, Rating: 4.2, ReviewCount: 340,
			Coords: &domain.Coords{Lat: 38.7169, Lon: -9.1399}, URL: "https://a.example/1"},
		{Source: domain.SourceA, Name: "Casa do Fado", Price: 80, Rating: 4.6, ReviewCount: 42,
			Coords: &domain.Coords{Lat: 38.7100, Lon: -9.1300}},
		{Source: domain.SourceA, Name: "Riverside Palace", Price: 95, Rating: 3.9, ReviewCount: 500,
			Coords: &domain.Coords{Lat: 38.7000, Lon: -9.1400}},
	}
}

func fixtureB() []domain.RawListing {
	return []domain.RawListing{
		{Source: domain.SourceB, Name: "grand plaza hotel", Price: 115, Rating: 8.9, ReviewCount: 1200,
			Coords: &domain.Coords{Lat: 38.7170, Lon: -9.1400}, URL: "https://b.example/1"},
		{Source: domain.SourceB, Name: "Lisboa Central Inn", Price: 70, Rating: 7.2, ReviewCount: 210,
			Coords: &domain.Coords{Lat: 38.7200, Lon: -9.1500}},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testCfg()
	cfg.NameThreshold = 0.8

	res, err := Run(context.Background(), cfg, fixtureA(), fixtureB())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Accepted() != 1 {
		t.Fatalf("accepted = %d, want 1 (%+v)", res.Accepted(), res.Decisions)
	}
	// 1 merged + 2 unmatched A + 1 unmatched B
	if len(res.Consolidated) != 4 {
		t.Fatalf("consolidated = %d, want 4", len(res.Consolidated))
	}
	if len(res.Enriched) != len(res.Consolidated) {
		t.Fatalf("enrichment must cover every consolidated record")
	}

	// the matched record takes B's price/rating (1200 > 340 reviews) but
	// keeps A's name
	var matched *domain.EnrichedHotel
	for i := range res.Enriched {
		if res.Enriched[i].Matched() {
			matched = &res.Enriched[i]
		}
	}
	if matched == nil {
		t.Fatalf("no merged record in output")
	}
	if matched.Name != "Grand Plaza Hotel & Spa" {
		t.Fatalf("canonical name = %q", matched.Name)
	}
	if matched.Price == nil || *matched.Price != 115 || matched.PriceSource != domain.SourceB {
		t.Fatalf("price precedence wrong: %+v", matched.ConsolidatedHotel)
	}
	for _, e := range res.Enriched {
		if e.ValueScore == nil {
			t.Fatalf("every priced record must carry a value score: %+v", e)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	cfg := testCfg()
	cfg.NameThreshold = 0.8
	cfg.Workers = 7 // deliberately not dividing the input evenly

	first, err := Run(context.Background(), cfg, fixtureA(), fixtureB())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := Run(context.Background(), cfg, fixtureA(), fixtureB())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(first.Decisions, second.Decisions) {
		t.Fatalf("decisions differ across runs")
	}
	if !reflect.DeepEqual(first.Enriched, second.Enriched) {
		t.Fatalf("enriched output differs across runs")
	}
}

func TestRun_ConfigurationErrorAbortsEarly(t *testing.T) {
	cfg := testCfg()
	cfg.NameThreshold = 7 // similarity is on [0,1]

	res, err := Run(context.Background(), cfg, fixtureA(), fixtureB())
	var ce *domain.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
	if res != nil {
		t.Fatalf("no partial result on configuration error, got %+v", res)
	}
}

// All-unpriced input: the run fails at enrichment but hands back the
// consolidated set and the audit trail.
func TestRun_PartialResultOnInsufficientData(t *testing.T) {
	cfg := testCfg()
	strip := func(raw []domain.RawListing) []domain.RawListing {
		for i := range raw {
			raw[i].Price = 0
		}
		return raw
	}

	res, err := Run(context.Background(), cfg, strip(fixtureA()), strip(fixtureB()))
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
	if res == nil || len(res.Consolidated) == 0 || len(res.Decisions) == 0 {
		t.Fatalf("partial result must keep consolidated set and audit trail: %+v", res)
	}
	if res.Enriched != nil {
		t.Fatalf("no enriched output expected, got %+v", res.Enriched)
	}
	// zeroed prices are quality warnings, not errors
	if res.Warnings == 0 {
		t.Fatalf("expected recorded warnings")
	}
}

func TestPartitions(t *testing.T) {
	cases := []struct {
		n, k int
		want [][2]int
	}{
		{0, 4, nil},
		{1, 4, [][2]int{{0, 1}}},
		{10, 3, [][2]int{{0, 4}, {4, 8}, {8, 10}}},
		{4, 4, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}}},
	}
	for _, c := range cases {
		got := partitions(c.n, c.k)
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("partitions(%d,%d) = %v, want %v", c.n, c.k, got, c.want)
		}
	}
}
