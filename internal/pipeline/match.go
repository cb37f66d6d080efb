package pipeline

import (
	"math"

	"github.com/agnivade/levenshtein"

	"stayscout/internal/domain"
)

// ScoredPair is a candidate pair with its computed comparison metrics.
type ScoredPair struct {
	Pair
	Similarity float64
	DistanceM  float64
}

// Score computes the two matching signals for a candidate pair: normalized
// edit-distance similarity over the cleaned names (1.0 = identical) and
// great-circle separation in meters (+Inf when either side has no usable
// coordinates, which can never clear the distance gate).
func Score(a, b domain.NormalizedListing) (similarity, distanceM float64) {
	similarity = nameSimilarity(a.CleanName, b.CleanName)
	distanceM = math.Inf(1)
	if validCoords(a.Raw.Coords) && validCoords(b.Raw.Coords) {
		distanceM = haversineM(*a.Raw.Coords, *b.Raw.Coords)
	}
	return similarity, distanceM
}

func nameSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(d)/float64(maxLen)
}

// Decide turns scored candidates into the audit trail. A pair is accepted
// only when similarity and distance both clear their thresholds; among the
// candidates of one A record the highest similarity wins, exact ties going
// to the smaller distance. A B record consumed by an accepted match is out
// of candidacy for every later A record (one-to-one matching). Every input
// pair yields exactly one decision.
func Decide(a, b []domain.NormalizedListing, scored []ScoredPair, cfg Config) []domain.MatchDecision {
	decisions := make([]domain.MatchDecision, 0, len(scored))
	claimedB := make(map[int]bool)
	maxDistM := cfg.DistanceThresholdKM * 1000

	for start := 0; start < len(scored); {
		end := start
		for end < len(scored) && scored[end].AIndex == scored[start].AIndex {
			end++
		}
		group := scored[start:end]
		start = end

		// Pick the winner among passing, unclaimed candidates.
		winner := -1
		for k, sp := range group {
			if sp.Similarity < cfg.NameThreshold || sp.DistanceM > maxDistM || claimedB[sp.BIndex] {
				continue
			}
			if winner < 0 ||
				sp.Similarity > group[winner].Similarity ||
				(sp.Similarity == group[winner].Similarity && sp.DistanceM < group[winner].DistanceM) {
				winner = k
			}
		}

		for k, sp := range group {
			d := domain.MatchDecision{
				AIndex:     sp.AIndex,
				BIndex:     sp.BIndex,
				AName:      a[sp.AIndex].Raw.Name,
				BName:      b[sp.BIndex].Raw.Name,
				Similarity: sp.Similarity,
				DistanceM:  sp.DistanceM,
			}
			switch {
			case sp.Similarity < cfg.NameThreshold:
				d.Reason = domain.ReasonSimilarity
			case sp.DistanceM > maxDistM:
				d.Reason = domain.ReasonDistance
			case claimedB[sp.BIndex]:
				d.Reason = domain.ReasonClaimed
			case k == winner:
				d.Accepted = true
			default:
				d.Reason = domain.ReasonOutranked
			}
			decisions = append(decisions, d)
		}
		if winner >= 0 {
			claimedB[group[winner].BIndex] = true
		}
	}
	return decisions
}
