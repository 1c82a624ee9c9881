package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("RESERVATION_TTL", "")
		t.Setenv("DEFAULT_SHIPPING_FEE", "")
		t.Setenv("SESSION_COOKIE_NAME", "")
		t.Setenv("KAFKA_BROKERS", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ReservationTTL != 5*time.Minute {
			t.Errorf("expected ttl 5m, got %s", cfg.ReservationTTL)
		}
		if !cfg.DefaultShippingFee.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected fee 100, got %s", cfg.DefaultShippingFee)
		}
		if cfg.SessionCookieName != "sessionid" {
			t.Errorf("expected cookie sessionid, got %s", cfg.SessionCookieName)
		}
		if len(cfg.KafkaBrokers) != 0 {
			t.Errorf("expected no brokers, got %v", cfg.KafkaBrokers)
		}
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("RESERVATION_TTL", "90s")
		t.Setenv("DEFAULT_SHIPPING_FEE", "45.50")
		t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
		t.Setenv("REDIS_DB", "2")
		t.Setenv("ADMIN_NOTIFICATION_EMAILS", "ops@example.com")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ReservationTTL != 90*time.Second {
			t.Errorf("expected ttl 90s, got %s", cfg.ReservationTTL)
		}
		if !cfg.DefaultShippingFee.Equal(decimal.RequireFromString("45.5")) {
			t.Errorf("expected fee 45.50, got %s", cfg.DefaultShippingFee)
		}
		if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
			t.Errorf("unexpected brokers: %v", cfg.KafkaBrokers)
		}
		if cfg.RedisDB != 2 {
			t.Errorf("expected redis db 2, got %d", cfg.RedisDB)
		}
		if len(cfg.AdminEmails) != 1 {
			t.Errorf("unexpected admin emails: %v", cfg.AdminEmails)
		}
	})

	t.Run("rejects bad values", func(t *testing.T) {
		for key, value := range map[string]string{
			"RESERVATION_TTL":      "soon",
			"DEFAULT_SHIPPING_FEE": "-1",
			"REDIS_DB":             "x",
		} {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, value)
				if _, err := Load(); err == nil {
					t.Errorf("expected error for %s=%s", key, value)
				}
			})
		}
	})
}

func TestConfig_Addr(t *testing.T) {
	if got := (Config{}).Addr("8080"); got != ":8080" {
		t.Errorf("expected :8080, got %s", got)
	}
	if got := (Config{Port: "9000"}).Addr("8080"); got != ":9000" {
		t.Errorf("expected :9000, got %s", got)
	}
}
