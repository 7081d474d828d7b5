package config

import (
	"strings"
	"testing"
	"time"

	domainbooking "roomstay/internal/domain/booking"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage != "memory" || cfg.Broker != "none" || cfg.Locker != "memory" {
		t.Fatalf("unexpected backends %s/%s/%s", cfg.Storage, cfg.Broker, cfg.Locker)
	}
	if cfg.IdempTTL != 168*time.Hour {
		t.Fatalf("IdempTTL = %s", cfg.IdempTTL)
	}
	want := []time.Duration{50 * time.Millisecond, 200 * time.Millisecond, time.Second}
	if len(cfg.RetryBackoff) != len(want) {
		t.Fatalf("RetryBackoff = %v", cfg.RetryBackoff)
	}
	for i := range want {
		if cfg.RetryBackoff[i] != want[i] {
			t.Fatalf("RetryBackoff = %v", cfg.RetryBackoff)
		}
	}
	if cfg.RefundPolicyValue() != domainbooking.RefundAlways {
		t.Fatalf("refund policy = %s", cfg.RefundPolicyValue())
	}
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BROKER", "Kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REFUND_POLICY", "paid_only")
	t.Setenv("CURRENCY", "usd")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Broker != "kafka" || len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected kafka config %+v", cfg)
	}
	if cfg.Currency != "USD" || cfg.RefundPolicyValue() != domainbooking.RefundIfPaid {
		t.Fatalf("unexpected currency/refund %s/%s", cfg.Currency, cfg.RefundPolicy)
	}
	if !cfg.CatalogConsumerEnabled() {
		t.Fatalf("catalog consumer should be enabled")
	}
}

func TestLoadRejectsIncompleteBackends(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET"},
		{"mongo without uri", map[string]string{"JWT_SECRET": "s", "STORAGE": "mongo"}, "MONGO_URI"},
		{"kafka without brokers", map[string]string{"JWT_SECRET": "s", "BROKER": "kafka"}, "KAFKA_BROKERS"},
		{"rabbit without url", map[string]string{"JWT_SECRET": "s", "BROKER": "rabbitmq"}, "RABBITMQ_URL"},
		{"unknown locker", map[string]string{"JWT_SECRET": "s", "LOCKER": "zookeeper"}, "LOCKER"},
		{"bad refund policy", map[string]string{"JWT_SECRET": "s", "REFUND_POLICY": "never"}, "refund policy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}
