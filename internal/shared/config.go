package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"stayscout/internal/domain"
	"stayscout/internal/pipeline"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	// Feed endpoints (acquisition collaborators, one per platform)
	SourceABase string
	SourceAKey  string
	SourceBBase string
	SourceBKey  string
	SourceRPS   int
	City        string
	CheckIn     string
	CheckOut    string

	Workers int
	TopN    int

	// Core pipeline tunables
	NoiseTokens    []string
	GridCellDeg    float64
	NameThreshold  float64
	DistanceKM     float64
	RatingScaleA   float64
	RatingScaleB   float64
	TierBreaks     []int
	LocationBreaks []float64
	CenterLat      *float64
	CenterLon      *float64

	// Business filter thresholds (all optional; unset = unconstrained)
	MaxPrice      *float64
	MaxDistanceKM *float64
	MinRating     *float64
	MinReviews    *int
}

func Load() Config {
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/stayscout?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		SourceABase: env("SOURCE_A_BASE_URL", ""),
		SourceAKey:  env("SOURCE_A_API_KEY", ""),
		SourceBBase: env("SOURCE_B_BASE_URL", ""),
		SourceBKey:  env("SOURCE_B_API_KEY", ""),
		SourceRPS:   atoi("SOURCE_RPS", 5),
		City:        env("QUERY_CITY", ""),
		CheckIn:     env("QUERY_CHECKIN", ""),
		CheckOut:    env("QUERY_CHECKOUT", ""),

		Workers: atoi("PIPELINE_WORKERS", 8),
		TopN:    atoi("REPORT_TOP_N", 10),

		NoiseTokens:    csv("NOISE_TOKENS", pipeline.DefaultNoiseTokens),
		GridCellDeg:    atof("GRID_CELL_DEG", 0.01),
		NameThreshold:  atof("NAME_THRESHOLD", 0.85),
		DistanceKM:     atof("DISTANCE_THRESHOLD_KM", 0.5),
		RatingScaleA:   atof("RATING_SCALE_A", 10),
		RatingScaleB:   atof("RATING_SCALE_B", 10),
		TierBreaks:     csvInts("TIER_BREAKS", []int{100, 500, 1500}),
		LocationBreaks: csvFloats("LOCATION_BREAKS", []float64{1, 3, 7}),
		CenterLat:      optFloat("CITY_CENTER_LAT"),
		CenterLon:      optFloat("CITY_CENTER_LON"),

		MaxPrice:      optFloat("FILTER_MAX_PRICE"),
		MaxDistanceKM: optFloat("FILTER_MAX_DISTANCE_KM"),
		MinRating:     optFloat("FILTER_MIN_RATING"),
		MinReviews:    optInt("FILTER_MIN_REVIEWS"),
	}
	if c.SourceABase == "" || c.SourceBBase == "" {
		log.Warn().Msg("one or both source feed URLs are empty")
	}
	return c
}

// Pipeline assembles the core config from the loaded settings.
func (c Config) Pipeline() pipeline.Config {
	pc := pipeline.Config{
		NoiseTokens:         c.NoiseTokens,
		GridCellDeg:         c.GridCellDeg,
		NameThreshold:       c.NameThreshold,
		DistanceThresholdKM: c.DistanceKM,
		RatingScale: map[domain.Source]float64{
			domain.SourceA: c.RatingScaleA,
			domain.SourceB: c.RatingScaleB,
		},
		TierBreaks:     c.TierBreaks,
		LocationBreaks: c.LocationBreaks,
		Workers:        c.Workers,
	}
	if c.CenterLat != nil && c.CenterLon != nil {
		pc.CityCenter = &domain.Coords{Lat: *c.CenterLat, Lon: *c.CenterLon}
	}
	return pc
}

func (c Config) Criteria() domain.FilterCriteria {
	return domain.FilterCriteria{
		MaxPrice:      c.MaxPrice,
		MaxDistanceKM: c.MaxDistanceKM,
		MinRating:     c.MinRating,
		MinReviews:    c.MinReviews,
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func optFloat(k string) *float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

func optInt(k string) *int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return &n
		}
	}
	return nil
}

func csv(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func csvInts(k string, def []int) []int {
	var out []int
	for _, s := range csv(k, nil) {
		if n, err := strconv.Atoi(s); err == nil {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func csvFloats(k string, def []float64) []float64 {
	var out []float64
	for _, s := range csv(k, nil) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
