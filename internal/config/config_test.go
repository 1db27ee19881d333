package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func parse(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	var (
		cfg Config
		err error
	)
	app := &cli.App{
		Name:  "test",
		Flags: Flags(),
		Action: func(c *cli.Context) error {
			cfg, err = FromContext(c)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	return cfg, err
}

func TestDefaults(t *testing.T) {
	cfg, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, ":9091", cfg.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestFlags(t *testing.T) {
	cfg, err := parse(t,
		"--storage", "Postgres",
		"--database-url", "postgres://x",
		"--kafka-brokers", "a:9092, b:9092,",
		"--admin-emails", "boss@shop.com",
		"--log-level", "debug",
		"--session-ttl", "1h",
	)
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"boss@shop.com"}, cfg.AdminEmails)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("ADDR", ":8080")
	t.Setenv("SELLER_WHATSAPP", "5511999990000")
	cfg, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "5511999990000", cfg.SellerWhatsApp)
}

func TestValidation(t *testing.T) {
	_, err := parse(t, "--storage", "postgres")
	assert.Error(t, err)
	_, err = parse(t, "--storage", "mongo")
	assert.Error(t, err)
	_, err = parse(t, "--log-level", "loud")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, slog.LevelWarn)
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
