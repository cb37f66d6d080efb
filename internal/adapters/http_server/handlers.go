// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"stayscout/internal/app"
	"stayscout/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	// Criteria are the run's configured business thresholds, used when the
	// request doesn't override them.
	Criteria domain.FilterCriteria
	TopN     int
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/hotels", h.listHotels)
	s.mux.Get("/v1/hotels/top", h.topHotels)
	s.mux.Get("/v1/matches", h.listMatches)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// listHotels serves the full, unfiltered enriched view.
func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.Q.ListHotels(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Query failed", "could not load hotels")
		return
	}
	writeJSON(w, r, hotels)
}

// topHotels serves the filtered view ranked by value score. Query params
// override the configured business thresholds per request.
func (h *Handlers) topHotels(w http.ResponseWriter, r *http.Request) {
	criteria := h.Criteria
	var bad string
	parseF := func(key string, dst **float64) {
		if s := r.URL.Query().Get(key); s != "" {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				bad = key
				return
			}
			*dst = &f
		}
	}
	parseF("max_price", &criteria.MaxPrice)
	parseF("max_distance_km", &criteria.MaxDistanceKM)
	parseF("min_rating", &criteria.MinRating)
	if s := r.URL.Query().Get("min_reviews"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			bad = "min_reviews"
		} else {
			criteria.MinReviews = &n
		}
	}
	if bad != "" {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", bad+" must be numeric")
		return
	}

	n := h.TopN
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 || v > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid n", "n must be an integer between 1 and 200")
			return
		}
		n = v
	}

	hotels, err := h.Q.TopHotels(r.Context(), criteria, n)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Query failed", "could not load hotels")
		return
	}
	writeJSON(w, r, hotels)
}

// listMatches serves the audit trail of the latest run.
func (h *Handlers) listMatches(w http.ResponseWriter, r *http.Request) {
	q := domain.DecisionsQuery{Limit: 500}
	if s := r.URL.Query().Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l <= 0 || l > 5000 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 5000")
			return
		}
		q.Limit = l
	}
	q.AcceptedOnly = r.URL.Query().Get("accepted") == "true"

	ds, err := h.Q.ListDecisions(r.Context(), q)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Query failed", "could not load match decisions")
		return
	}
	writeJSON(w, r, ds)
}
