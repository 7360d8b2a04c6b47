package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  mode: "release"
database:
  mysql:
    dsn: "user:pass@tcp(db:3306)/chat"
  redis:
    addr: "redis:6379"
    db: 1
kafka:
  brokers: "kafka:9092"
  topic: "replies"
  group_id: "workers"
  concurrency: 4
chat:
  free_daily_limit: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "user:pass@tcp(db:3306)/chat", cfg.Database.MySQL.DSN)
	assert.Equal(t, 1, cfg.Database.Redis.DB)
	assert.Equal(t, "replies", cfg.Kafka.Topic)
	assert.Equal(t, 4, cfg.Kafka.Concurrency)
	assert.Equal(t, 3, cfg.Chat.FreeDailyLimit)
}

// 未配置的字段回落到默认值。
func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "8080"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Kafka.Concurrency)
	assert.Equal(t, 2, cfg.Kafka.MaxAttempts)
	assert.Equal(t, 2000, cfg.Kafka.RetryBackoffMs)
	assert.Equal(t, 5, cfg.Chat.FreeDailyLimit)
	assert.Equal(t, 10, cfg.Chat.HistorySize)
	assert.Equal(t, 600, cfg.Chat.CacheTTLSeconds)
	assert.Equal(t, 7, cfg.JWT.TokenExpireDays)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
