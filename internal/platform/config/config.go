package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  string
	KafkaTopic    string
	JWTSigningKey string

	// RequireVerifiedApproval makes the admission workflow reject approve
	// calls for students whose identity has not been verified.
	RequireVerifiedApproval bool

	// TxRetries bounds how many times a serializable transaction is retried
	// on conflict before surfacing contention to the caller.
	TxRetries int
}

// FeeCacheTTL bounds staleness of cached fee schedules. Occupancy state is
// never cached; only the slow-moving fee time-series is.
var FeeCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("HOSTELCORE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "hostelcore.events"
	}

	retries := 3
	if raw := os.Getenv("TX_RETRIES"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			retries = n
		}
	}

	return Server{
		Addr:                    addr,
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisURL:                os.Getenv("REDIS_URL"),
		KafkaBrokers:            os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:              topic,
		JWTSigningKey:           jwtSigningKey,
		RequireVerifiedApproval: os.Getenv("REQUIRE_VERIFIED_APPROVAL") == "true",
		TxRetries:               retries,
	}
}
