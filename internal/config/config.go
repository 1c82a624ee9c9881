package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DefaultReservationTTL    = 5 * time.Minute
	DefaultSessionCookieName = "sessionid"
)

var defaultShippingFee = decimal.NewFromInt(100)

// Config holds settings shared by every binary. Each command checks the fields
// it actually needs.
type Config struct {
	Port               string
	PostgresURL        string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	KafkaBrokers       []string
	EmailServiceURL    string
	ReservationTTL     time.Duration
	DefaultShippingFee decimal.Decimal
	CORSOrigins        []string
	SessionCookieName  string
	AdminEmails        []string
	OTLPEndpoint       string
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:               os.Getenv("PORT"),
		PostgresURL:        os.Getenv("POSTGRES_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		EmailServiceURL:    os.Getenv("EMAIL_SERVICE_URL"),
		ReservationTTL:     DefaultReservationTTL,
		DefaultShippingFee: defaultShippingFee,
		CORSOrigins:        splitList(os.Getenv("CORS_ORIGINS")),
		SessionCookieName:  getenv("SESSION_COOKIE_NAME", DefaultSessionCookieName),
		AdminEmails:        splitList(os.Getenv("ADMIN_NOTIFICATION_EMAILS")),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = db
	}

	if v := os.Getenv("RESERVATION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RESERVATION_TTL %q: %w", v, err)
		}
		if ttl <= 0 {
			return Config{}, fmt.Errorf("RESERVATION_TTL must be positive, got %s", ttl)
		}
		cfg.ReservationTTL = ttl
	}

	if v := os.Getenv("DEFAULT_SHIPPING_FEE"); v != "" {
		fee, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEFAULT_SHIPPING_FEE %q: %w", v, err)
		}
		if fee.IsNegative() {
			return Config{}, fmt.Errorf("DEFAULT_SHIPPING_FEE must not be negative, got %s", fee)
		}
		cfg.DefaultShippingFee = fee
	}

	return cfg, nil
}

// Addr returns the listen address, using fallback when PORT is unset.
func (c Config) Addr(fallback string) string {
	port := c.Port
	if port == "" {
		port = fallback
	}
	return ":" + port
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
