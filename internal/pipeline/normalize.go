package pipeline

import (
	"fmt"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"stayscout/internal/domain"
)

// Normalize converts one raw listing into its comparable form. Total and
// deterministic: malformed fields are defaulted with a recorded warning,
// never an error, so downstream stages always receive a complete record.
func Normalize(cfg Config, raw domain.RawListing) domain.NormalizedListing {
	n := domain.NormalizedListing{Raw: raw}

	n.CleanName = CleanName(raw.Name, cfg.NoiseTokens)
	if n.CleanName == "" {
		n.Warnings = append(n.Warnings, "empty name after cleaning")
	}

	// Linear rescale onto 0-10. Out-of-range or missing ratings become the
	// unrated sentinel rather than dropping the record.
	scale := cfg.scaleFor(raw.Source)
	switch {
	case raw.Rating <= 0:
		n.Unrated = true
		n.Warnings = append(n.Warnings, "missing rating, defaulted to unrated")
	case raw.Rating > scale:
		n.Unrated = true
		n.Warnings = append(n.Warnings, fmt.Sprintf("rating %g exceeds scale max %g, defaulted to unrated", raw.Rating, scale))
	default:
		n.Rating10 = raw.Rating / scale * 10
	}

	if raw.Price <= 0 {
		n.Warnings = append(n.Warnings, "missing price")
	}

	n.Bucket = domain.BucketKey{CellLat: noCell, CellLon: noCell, Token: firstToken(n.CleanName)}
	if validCoords(raw.Coords) {
		n.Bucket.CellLat, n.Bucket.CellLon = cellOf(*raw.Coords, cfg.GridCellDeg)
	} else {
		n.Warnings = append(n.Warnings, "missing or invalid coordinates")
	}

	return n
}

// CleanName folds case and diacritics, strips the configured noise tokens
// and punctuation, and collapses whitespace. When everything was noise the
// sanitized original is kept so the record still has a comparable key.
// Fixed point: CleanName(CleanName(x)) == CleanName(x).
func CleanName(name string, noise []string) string {
	folded := strings.ToLower(strings.TrimSpace(unidecode.Unidecode(name)))
	sanitized := collapse(stripPunct(folded))
	if sanitized == "" {
		return ""
	}

	kept := make([]string, 0, 8)
	for _, tok := range strings.Fields(sanitized) {
		if !isNoise(tok, noise) {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		return sanitized
	}
	return strings.Join(kept, " ")
}

func isNoise(tok string, noise []string) bool {
	for _, w := range noise {
		if tok == w {
			return true
		}
	}
	return false
}

func stripPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

func firstToken(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}
