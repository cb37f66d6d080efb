package domain

// Source tags which platform a listing came from.
type Source string

const (
	SourceA Source = "A"
	SourceB Source = "B"
)

// RawListing is one scraped hotel row as the feed collaborator delivered it.
// Immutable once captured; Price 0 and Rating 0 mean "not reported".
type RawListing struct {
	Source      Source
	Name        string
	Price       float64
	Rating      float64 // in the source's own scale
	ReviewCount int
	Coords      *Coords
	CenterKM    *float64 // distance to city center as reported, km
	URL         string
	RawJSON     []byte // full payload for audit/debugging
}

type Coords struct{ Lat, Lon float64 }

// BucketKey bounds the candidate search: coarse grid cell plus the first
// cleaned name token. Never used as a match criterion by itself.
type BucketKey struct {
	CellLat, CellLon int
	Token            string
}

// NormalizedListing is the comparable form of a RawListing. Exactly one per
// raw record; derivation is pure and deterministic.
type NormalizedListing struct {
	Raw       RawListing
	CleanName string
	Rating10  float64 // rescaled to 0-10
	Unrated   bool
	Bucket    BucketKey
	Warnings  []string // data-quality notes recorded during normalization
}
