package main

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"stayscout/internal/adapters/observability"
	redisad "stayscout/internal/adapters/redis"
	"stayscout/internal/adapters/sources"
	"stayscout/internal/app"
	"stayscout/internal/domain"
	"stayscout/internal/shared"
	mysqlrepo "stayscout/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("city", cfg.City).
		Str("checkin", cfg.CheckIn).
		Str("checkout", cfg.CheckOut).
		Int("workers", cfg.Workers).
		Msg("reconciler starting")

	// invalid thresholds abort before any record is processed
	pcfg := cfg.Pipeline()
	if err := pcfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuration rejected")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	query := sources.Query{City: cfg.City, CheckIn: cfg.CheckIn, CheckOut: cfg.CheckOut}
	clientA, err := sources.New("source_a", cfg.SourceABase, cfg.SourceAKey, cfg.SourceRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize source A client")
	}
	clientB, err := sources.New("source_b", cfg.SourceBBase, cfg.SourceBKey, cfg.SourceRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize source B client")
	}

	svc := app.NewReconcileService(clientA.WithQuery(query), clientB.WithQuery(query), repo, cache, pcfg)

	res, err := svc.Reconcile(ctx)
	if errors.Is(err, domain.ErrInsufficientData) {
		// consolidated data and the audit trail exist but value scores are
		// undefined; surface it loudly instead of exporting a partial report
		log.Fatal().Err(err).
			Int("consolidated", len(res.Consolidated)).
			Msg("run aborted at enrichment")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("reconciliation failed")
	}
	log.Info().Int("hotels", len(res.Enriched)).Msg("run persisted")
}
