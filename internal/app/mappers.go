package app

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"stayscout/internal/domain"
)

/********** alias registry (single source of truth) **********/

// Feeds use different header/field conventions for the same concepts; the
// first non-empty alias wins.
var listingAliases = map[string][]string{
	"name":     {"HOTEL_NAME", "hotel_name", "name", "title", "property.name"},
	"price":    {"PRICE", "price", "price_total", "rate.total", "pricing.displayPrice"},
	"rating":   {"RATING", "rating", "review_score", "score", "reviews.score"},
	"reviews":  {"REVIEW_AMOUNT", "review_amount", "review_count", "reviews_count", "reviews.count"},
	"lat":      {"LATITUDE", "latitude", "lat", "location.lat", "coordinates.lat"},
	"lon":      {"LONGITUDE", "longitude", "lon", "lng", "location.lon", "location.lng", "coordinates.lon"},
	"distance": {"DISTANCE", "distance", "distance_from_center", "location.distanceFromCenter"},
	"url":      {"URL", "url", "link", "detail_url", "deeplink"},
}

// MapListings converts one feed's loosely-typed records into RawListings.
// This is the only boundary where heterogeneous scraped shapes exist; every
// later stage sees the strict record only.
func MapListings(src domain.Source, in []map[string]any) []domain.RawListing {
	out := make([]domain.RawListing, 0, len(in))
	for _, rec := range in {
		out = append(out, mapListing(src, rec))
	}
	return out
}

func mapListing(src domain.Source, rec map[string]any) domain.RawListing {
	l := domain.RawListing{Source: src}

	if s := firstNonEmptyAlias(rec, "name"); s != nil {
		l.Name = *s
	}
	if s := firstNonEmptyAlias(rec, "url"); s != nil {
		l.URL = *s
	}
	if f := getFloatFlexible(rec, listingAliases["price"]...); f != nil && *f > 0 {
		l.Price = *f
	}
	if f := getFloatFlexible(rec, listingAliases["rating"]...); f != nil && *f > 0 {
		l.Rating = *f
	}
	if f := getFloatFlexible(rec, listingAliases["reviews"]...); f != nil && *f > 0 {
		l.ReviewCount = int(*f)
	}

	lat := getFloatFlexible(rec, listingAliases["lat"]...)
	lon := getFloatFlexible(rec, listingAliases["lon"]...)
	if lat != nil && lon != nil {
		l.Coords = &domain.Coords{Lat: *lat, Lon: *lon}
	}

	for _, path := range listingAliases["distance"] {
		if v := lookupAny(rec, path); v != nil {
			if km := distanceKM(v); km != nil {
				l.CenterKM = km
				break
			}
		}
	}

	if raw, err := json.Marshal(rec); err == nil {
		l.RawJSON = raw
	} else {
		log.Error().Err(err).Str("context", "mapListing").Msg("marshal listing payload failed")
	}
	return l
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func firstNonEmptyAlias(m map[string]any, key string) *string {
	for _, p := range listingAliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return &s
		}
	}
	return nil
}

var numRe = regexp.MustCompile(`\d+\.?\d*`)

// getFloatFlexible: number from several paths; tolerates float64/int and
// strings with currency symbols, thousands commas or "8,4" decimals.
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(v)
			if s == "" || strings.EqualFold(s, "n/a") {
				continue
			}
			// "1,234.56" -> drop thousands; "8,4" -> decimal comma
			if strings.Contains(s, ",") && strings.Contains(s, ".") {
				s = strings.ReplaceAll(s, ",", "")
			} else {
				s = strings.ReplaceAll(s, ",", ".")
			}
			if n := numRe.FindString(s); n != "" {
				if f, err := strconv.ParseFloat(n, 64); err == nil {
					return &f
				}
			}
		}
	}
	return nil
}

// distanceKM parses a distance field into kilometers. Feeds report either a
// bare number (already km) or a unit-suffixed string like "350 m" or
// "1.2 km" (unit names vary by site locale; meters is the fallback).
func distanceKM(v any) *float64 {
	switch t := v.(type) {
	case float64:
		f := t
		return &f
	case int:
		f := float64(t)
		return &f
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if s == "" || s == "n/a" {
			return nil
		}
		n := numRe.FindString(strings.ReplaceAll(s, ",", "."))
		if n == "" {
			return nil
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil
		}
		if strings.Contains(s, "km") || strings.Contains(s, `ק"מ`) {
			return &f
		}
		if strings.Contains(s, "m") || strings.Contains(s, "מטר") {
			f /= 1000
			return &f
		}
		return &f // unitless string: assume km
	}
	return nil
}
