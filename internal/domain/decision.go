package domain

// Rejection reasons recorded in the audit trail.
const (
	ReasonSimilarity = "similarity"
	ReasonDistance   = "distance"
	ReasonClaimed    = "claimed"   // B side already consumed by an earlier match
	ReasonOutranked  = "outranked" // lost the tie-break to a better candidate
)

// MatchDecision is one audit row: every evaluated candidate pair produces
// exactly one, accepted or not. Append-only.
type MatchDecision struct {
	AIndex, BIndex int // indices into the normalized A/B slices
	AName, BName   string
	Similarity     float64 // [0,1] over cleaned names
	DistanceM      float64
	Accepted       bool
	Reason         string // empty when accepted
}
