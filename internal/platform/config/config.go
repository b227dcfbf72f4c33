package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaSeeds    []string
	KafkaTopic    string
	JWTSigningKey string
	JWTIssuer     string
	// LocalNationality is the exact nationality string counted as domestic
	// in the REM report. Anything else non-empty counts as foreign.
	LocalNationality string
	AccessTokenTTL   time.Duration
}

func FromEnv() Server {
	cfg := Server{
		Addr:             getenv("MATERNIDAD_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("MATERNIDAD_DATABASE_URL"),
		RedisURL:         os.Getenv("MATERNIDAD_REDIS_URL"),
		KafkaTopic:       getenv("MATERNIDAD_KAFKA_TOPIC", "maternidad.auditoria"),
		JWTSigningKey:    getenv("MATERNIDAD_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:        getenv("MATERNIDAD_JWT_ISSUER", "maternidad"),
		LocalNationality: getenv("MATERNIDAD_LOCAL_NATIONALITY", "Chilena"),
		AccessTokenTTL:   8 * time.Hour,
	}
	if seeds := os.Getenv("MATERNIDAD_KAFKA_SEEDS"); seeds != "" {
		cfg.KafkaSeeds = strings.Split(seeds, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
