package pipeline

import "stayscout/internal/domain"

// Pair indexes one candidate (A,B) comparison.
type Pair struct {
	AIndex, BIndex int
}

// GeneratePairs proposes candidate pairs via the grid pre-filter: each A
// record is only compared against B records in the same or an adjacent cell,
// so boundary rounding cannot hide a neighbor. Listings without coordinates
// generate no cross-source pairs (nothing could clear the distance gate).
// Pure function of its inputs; output order is deterministic.
//
// Known trade-off: a true match whose platforms disagree on position by more
// than one cell is never proposed. The cell size is config for exactly this
// reason.
func GeneratePairs(cfg Config, a, b []domain.NormalizedListing) []Pair {
	byCell := make(map[[2]int][]int, len(b))
	for j := range b {
		if b[j].Bucket.CellLat == noCell {
			continue
		}
		key := [2]int{b[j].Bucket.CellLat, b[j].Bucket.CellLon}
		byCell[key] = append(byCell[key], j)
	}

	var pairs []Pair
	for i := range a {
		if a[i].Bucket.CellLat == noCell {
			continue
		}
		for dLat := -1; dLat <= 1; dLat++ {
			for dLon := -1; dLon <= 1; dLon++ {
				key := [2]int{a[i].Bucket.CellLat + dLat, a[i].Bucket.CellLon + dLon}
				for _, j := range byCell[key] {
					pairs = append(pairs, Pair{AIndex: i, BIndex: j})
				}
			}
		}
	}
	return pairs
}
