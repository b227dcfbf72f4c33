package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"maternidad/internal/audit"
	audithandler "maternidad/internal/audit/handler"
	auditmemory "maternidad/internal/audit/store/memory"
	auditpostgres "maternidad/internal/audit/store/postgres"
	"maternidad/internal/audit/publisher"
	authhandler "maternidad/internal/auth/handler"
	"maternidad/internal/auth/revocation"
	"maternidad/internal/auth/token"
	clinicalhandler "maternidad/internal/clinical/handler"
	clinicalservice "maternidad/internal/clinical/service"
	clinicalstore "maternidad/internal/clinical/store"
	clinicalmemory "maternidad/internal/clinical/store/memory"
	clinicalpostgres "maternidad/internal/clinical/store/postgres"
	correctionhandler "maternidad/internal/correction/handler"
	correctionservice "maternidad/internal/correction/service"
	correctionstore "maternidad/internal/correction/store"
	correctionmemory "maternidad/internal/correction/store/memory"
	correctionpostgres "maternidad/internal/correction/store/postgres"
	"maternidad/internal/platform/config"
	"maternidad/internal/platform/httpserver"
	"maternidad/internal/platform/logger"
	"maternidad/internal/platform/metrics"
	"maternidad/internal/platform/middleware"
	platformredis "maternidad/internal/platform/redis"
	"maternidad/internal/report"
	reporthandler "maternidad/internal/report/handler"
	httptransport "maternidad/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	// Postgres when configured, memory stores otherwise (dev and tests).
	var (
		db              *sql.DB
		auditStore      audit.Store
		clinicStore     clinicalstore.Store
		correctionStore correctionstore.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("database unreachable", "error", err)
			os.Exit(1)
		}
		auditStore = auditpostgres.New(db)
		clinicStore = clinicalpostgres.New(db)
		correctionStore = correctionpostgres.New(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		auditStore = auditmemory.New()
		clinicStore = clinicalmemory.New()
		correctionStore = correctionmemory.New()
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var revocations interface {
		authhandler.Revoker
		middleware.RevocationChecker
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocations = revocation.NewRedisList(redisClient.Client)
	} else {
		revocations = revocation.NewMemoryList()
	}

	recorderOpts := []audit.RecorderOption{audit.WithMetrics(m)}
	kafkaPublisher, err := publisher.NewKafka(cfg.KafkaSeeds, cfg.KafkaTopic, log)
	if err != nil {
		log.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}
	if kafkaPublisher != nil {
		recorderOpts = append(recorderOpts, audit.WithPublisher(kafkaPublisher))
	}
	recorder := audit.NewRecorder(auditStore, log, recorderOpts...)

	tokenService := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)
	clinicService := clinicalservice.New(clinicStore, recorder, log)
	correctionService := correctionservice.New(correctionStore, recorder, log, correctionservice.WithMetrics(m))
	reportService := report.NewService(clinicStore, recorder,
		report.WithMetrics(m),
		report.WithLocalNationality(cfg.LocalNationality),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:      log,
		Validator:   tokenService,
		Revocations: revocations,
		Handlers: []httptransport.Registrar{
			clinicalhandler.New(clinicService, log),
			correctionhandler.New(correctionService, log),
			reporthandler.New(reportService, log),
			audithandler.New(recorder, log),
			authhandler.New(recorder, revocations, cfg.AccessTokenTTL, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if kafkaPublisher != nil {
		kafkaPublisher.Close(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
