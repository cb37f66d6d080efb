package mysql

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"stayscout/internal/domain"
)

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ReplaceRun clears the previous run and lands the new one in a single
// transaction, so readers never see a half-written run.
func (r *Repo) ReplaceRun(ctx context.Context, hotels []domain.EnrichedHotel, decisions []domain.MatchDecision) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteDecisionsSQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, deleteHotelsSQL); err != nil {
		return err
	}

	if len(hotels) > 0 {
		values := make([]string, 0, len(hotels))
		args := make([]any, 0, len(hotels)*16)
		for _, h := range hotels {
			values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
			var lat, lon any
			if h.Coords != nil {
				lat, lon = h.Coords.Lat, h.Coords.Lon
			}
			args = append(args,
				h.Name,
				valF64(h.Price),
				valStr(string(h.PriceSource)),
				h.Rating,
				string(h.RatingSource),
				h.Unrated,
				h.ReviewCount,
				lat, lon,
				valF64(h.CenterKM),
				joinSources(h.Sources),
				valStr(h.URLs[domain.SourceA]),
				valStr(h.URLs[domain.SourceB]),
				valF64(h.ValueScore),
				int(h.Tier),
				int(h.Location),
			)
		}
		if _, err := tx.ExecContext(ctx, insertHotelsPrefix+strings.Join(values, ","), args...); err != nil {
			return err
		}
	}

	if len(decisions) > 0 {
		values := make([]string, 0, len(decisions))
		args := make([]any, 0, len(decisions)*8)
		for _, d := range decisions {
			values = append(values, "(?,?,?,?,?,?,?,?)")
			// +Inf (unknown separation) is stored as NULL
			var dist any
			if !math.IsInf(d.DistanceM, 1) {
				dist = d.DistanceM
			}
			args = append(args, d.AIndex, d.BIndex, d.AName, d.BName, d.Similarity, dist, d.Accepted, d.Reason)
		}
		if _, err := tx.ExecContext(ctx, insertDecisionsPrefix+strings.Join(values, ","), args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repo) ListHotels(ctx context.Context) ([]domain.EnrichedHotel, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EnrichedHotel
	for rows.Next() {
		var (
			h                      domain.EnrichedHotel
			price, centerKM, score sql.NullFloat64
			lat, lon               sql.NullFloat64
			priceSource            sql.NullString
			ratingSource, sources  string
			urlA, urlB             sql.NullString
			tier, location         int
		)
		if err := rows.Scan(
			&h.Name, &price, &priceSource, &h.Rating, &ratingSource, &h.Unrated, &h.ReviewCount,
			&lat, &lon, &centerKM, &sources, &urlA, &urlB, &score, &tier, &location,
		); err != nil {
			return nil, err
		}
		if price.Valid {
			p := price.Float64
			h.Price = &p
		}
		if priceSource.Valid {
			h.PriceSource = domain.Source(priceSource.String)
		}
		h.RatingSource = domain.Source(ratingSource)
		if lat.Valid && lon.Valid {
			h.Coords = &domain.Coords{Lat: lat.Float64, Lon: lon.Float64}
		}
		if centerKM.Valid {
			v := centerKM.Float64
			h.CenterKM = &v
		}
		h.Sources = splitSources(sources)
		h.URLs = map[domain.Source]string{}
		if urlA.Valid {
			h.URLs[domain.SourceA] = urlA.String
		}
		if urlB.Valid {
			h.URLs[domain.SourceB] = urlB.String
		}
		if score.Valid {
			v := score.Float64
			h.ValueScore = &v
		}
		h.Tier = domain.PopularityTier(tier)
		h.Location = domain.LocationCategory(location)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) ListDecisions(ctx context.Context, q domain.DecisionsQuery) ([]domain.MatchDecision, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.db.QueryContext(ctx, listDecisionsSQL, q.AcceptedOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MatchDecision
	for rows.Next() {
		var (
			d    domain.MatchDecision
			dist sql.NullFloat64
		)
		if err := rows.Scan(&d.AIndex, &d.BIndex, &d.AName, &d.BName, &d.Similarity, &dist, &d.Accepted, &d.Reason); err != nil {
			return nil, err
		}
		if dist.Valid {
			d.DistanceM = dist.Float64
		} else {
			d.DistanceM = math.Inf(1)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func joinSources(srcs []domain.Source) string {
	parts := make([]string, len(srcs))
	for i, s := range srcs {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func splitSources(s string) []domain.Source {
	var out []domain.Source
	for _, p := range strings.Split(s, ",") {
		if p != "" {
			out = append(out, domain.Source(p))
		}
	}
	return out
}
