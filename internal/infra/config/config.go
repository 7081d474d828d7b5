package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	domainbooking "roomstay/internal/domain/booking"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Storage  string `envconfig:"STORAGE" default:"memory"`
	MongoURI string `envconfig:"MONGO_URI"`
	MongoDB  string `envconfig:"MONGO_DB" default:"roomstay"`

	Broker             string        `envconfig:"BROKER" default:"none"`
	KafkaBrokers       []string      `envconfig:"KAFKA_BROKERS"`
	KafkaTopicPrefix   string        `envconfig:"KAFKA_TOPIC_PREFIX"`
	KafkaCatalogTopics []string      `envconfig:"KAFKA_CATALOG_TOPICS" default:"catalog.events.v1"`
	KafkaGroupID       string        `envconfig:"KAFKA_GROUP_ID" default:"roomstay-catalog"`
	RabbitMQURL        string        `envconfig:"RABBITMQ_URL"`
	RabbitMQExchange   string        `envconfig:"RABBITMQ_EXCHANGE" default:"roomstay.events"`
	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"500ms"`

	Locker    string        `envconfig:"LOCKER" default:"memory"`
	RedisAddr string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	LockTTL   time.Duration `envconfig:"LOCK_TTL" default:"10s"`

	JWTSecret    string          `envconfig:"JWT_SECRET"`
	Currency     string          `envconfig:"CURRENCY" default:"INR"`
	RefundPolicy string          `envconfig:"REFUND_POLICY" default:"always"`
	IdempTTL     time.Duration   `envconfig:"IDEMP_TTL" default:"168h"`
	RetryBackoff []time.Duration `envconfig:"RETRY_BACKOFF" default:"50ms,200ms,1s"`

	OTLPEndpoint    string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	CatalogFixtures string `envconfig:"CATALOG_FIXTURES"`
}

// Load parses configuration from the current environment and checks that
// each selected backend has what it needs.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	cfg.Broker = strings.ToLower(strings.TrimSpace(cfg.Broker))
	cfg.Locker = strings.ToLower(strings.TrimSpace(cfg.Locker))
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage {
	case "memory":
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORAGE=mongo")
		}
	default:
		return fmt.Errorf("invalid STORAGE %q: use memory or mongo", c.Storage)
	}
	switch c.Broker {
	case "none":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when BROKER=kafka")
		}
	case "rabbitmq":
		if c.RabbitMQURL == "" {
			return fmt.Errorf("RABBITMQ_URL is required when BROKER=rabbitmq")
		}
	default:
		return fmt.Errorf("invalid BROKER %q: use none, kafka or rabbitmq", c.Broker)
	}
	switch c.Locker {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid LOCKER %q: use memory or redis", c.Locker)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("invalid CURRENCY %q", c.Currency)
	}
	if _, err := domainbooking.ParseRefundPolicy(c.RefundPolicy); err != nil {
		return err
	}
	return nil
}

func (c Config) RefundPolicyValue() domainbooking.RefundPolicy {
	p, _ := domainbooking.ParseRefundPolicy(c.RefundPolicy)
	return p
}

// CatalogConsumerEnabled reports whether catalog updates arrive over Kafka,
// independently of where the outbox publishes.
func (c Config) CatalogConsumerEnabled() bool {
	return len(c.KafkaBrokers) > 0 && len(c.KafkaCatalogTopics) > 0
}
