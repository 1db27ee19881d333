// Package config turns command-line flags and environment variables into a Config.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Addr           string
	Storage        string
	DatabaseURL    string
	RedisURL       string
	SessionTTL     time.Duration
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaGroup     string
	SellerWhatsApp string
	AdminEmails    []string
	SeedFile       string
	SecureCookies  bool
	LogLevel       slog.Level
}

// Flags are shared by every command so `migrate` and `seed` see the same storage settings.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "addr", Value: ":9091", Usage: "HTTP listen address", EnvVars: []string{"ADDR"}},
		&cli.StringFlag{Name: "storage", Value: StorageMemory, Usage: "memory or postgres", EnvVars: []string{"STORAGE"}},
		&cli.StringFlag{Name: "database-url", Usage: "postgres connection string", EnvVars: []string{"DATABASE_URL"}},
		&cli.StringFlag{Name: "redis-url", Usage: "redis URL for sessions; empty keeps them in memory", EnvVars: []string{"REDIS_URL"}},
		&cli.DurationFlag{Name: "session-ttl", Value: 7 * 24 * time.Hour, Usage: "session lifetime", EnvVars: []string{"SESSION_TTL"}},
		&cli.StringFlag{Name: "kafka-brokers", Usage: "comma separated brokers; empty uses the in-process bus", EnvVars: []string{"KAFKA_BROKERS"}},
		&cli.StringFlag{Name: "kafka-topic", Value: "storefront.orders", Usage: "order events topic", EnvVars: []string{"KAFKA_TOPIC"}},
		&cli.StringFlag{Name: "kafka-group", Usage: "consumer group; empty gives every instance its own", EnvVars: []string{"KAFKA_GROUP"}},
		&cli.StringFlag{Name: "seller-whatsapp", Value: "5519981917697", Usage: "seller phone used in checkout links", EnvVars: []string{"SELLER_WHATSAPP"}},
		&cli.StringFlag{Name: "admin-emails", Usage: "comma separated admin account emails", EnvVars: []string{"ADMIN_EMAILS"}},
		&cli.StringFlag{Name: "seed-file", Usage: "YAML catalog seeded into an empty store; empty uses the built-in one", EnvVars: []string{"SEED_FILE"}},
		&cli.BoolFlag{Name: "secure-cookies", Usage: "mark the session cookie Secure", EnvVars: []string{"SECURE_COOKIES"}},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error", EnvVars: []string{"LOG_LEVEL"}},
	}
}

// FromContext reads and validates the flags.
func FromContext(c *cli.Context) (Config, error) {
	cfg := Config{
		Addr:           c.String("addr"),
		Storage:        strings.ToLower(c.String("storage")),
		DatabaseURL:    c.String("database-url"),
		RedisURL:       c.String("redis-url"),
		SessionTTL:     c.Duration("session-ttl"),
		KafkaBrokers:   splitList(c.String("kafka-brokers")),
		KafkaTopic:     c.String("kafka-topic"),
		KafkaGroup:     c.String("kafka-group"),
		SellerWhatsApp: c.String("seller-whatsapp"),
		AdminEmails:    splitList(c.String("admin-emails")),
		SeedFile:       c.String("seed-file"),
		SecureCookies:  c.Bool("secure-cookies"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q", c.String("log-level"))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("storage %q requires --database-url", c.Storage)
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address is empty")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("kafka topic is empty")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NewLogger builds the JSON slog logger used by the whole process.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
