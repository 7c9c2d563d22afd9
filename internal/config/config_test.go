package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	wbfconfig "github.com/wb-go/wbf/config"
)

// envSource - настоящий wbf-конфиг поверх переменных окружения теста
func envSource(t *testing.T, env map[string]string) Source {
	t.Helper()
	base := map[string]string{
		"REMBG_URL":     "http://rembg:7000/remove",
		"AWS_S3_BUCKET": "images",
	}
	for k, v := range env {
		base[k] = v
	}
	for k, v := range base {
		t.Setenv(k, v)
	}

	c := wbfconfig.New()
	c.EnableEnv("")
	return c
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(envSource(t, nil))
	require.NoError(t, err)

	require.Equal(t, "3000", cfg.Port)
	require.Equal(t, "info", cfg.LogLevel)
	require.False(t, cfg.BBoxRequired)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, 30*time.Second, cfg.Remover.Timeout)
	require.Equal(t, 1, cfg.Remover.RetryAttempts)
	require.Equal(t, 2.0, cfg.Remover.RetryBackoff)
	require.Equal(t, int64(32<<20), cfg.Remover.MaxBytes)
	require.Equal(t, "s3.amazonaws.com", cfg.Storage.Endpoint)
	require.Equal(t, "processed-images", cfg.Storage.KeyPrefix)
	require.True(t, cfg.Storage.UseSSL)
	require.True(t, cfg.Storage.PublicRead)
	require.Equal(t, 5, cfg.Storage.ConnectAttempts)
	require.False(t, cfg.Kafka.Enabled())
	require.Equal(t, "processed-images", cfg.Kafka.Topic)
	require.False(t, cfg.Redis.Enabled())
	require.Equal(t, 24*time.Hour, cfg.Redis.TTL)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(envSource(t, map[string]string{
		"APP_PORT":             "8080",
		"BBOX_REQUIRED":        "true",
		"REMBG_RETRY_ATTEMPTS": "3",
		"REMBG_RETRY_BACKOFF":  "1.5",
		"REMBG_TIMEOUT":        "5s",
		"REMBG_MAX_BYTES":      "1024",
		"S3_KEY_PREFIX":        "/custom/",
		"S3_PUBLIC_BASE_URL":   "https://cdn.example.com/",
		"S3_USE_SSL":           "false",
		"KAFKA_BROKER":         "kafka:9092",
		"REDIS_ADDR":           "redis:6379",
		"IDEMPOTENCY_TTL":      "1h",
	}))
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.True(t, cfg.BBoxRequired)
	require.Equal(t, 3, cfg.Remover.RetryAttempts)
	require.Equal(t, 1.5, cfg.Remover.RetryBackoff)
	require.Equal(t, 5*time.Second, cfg.Remover.Timeout)
	require.Equal(t, int64(1024), cfg.Remover.MaxBytes)
	require.Equal(t, "custom", cfg.Storage.KeyPrefix)
	require.Equal(t, "https://cdn.example.com", cfg.Storage.PublicBaseURL)
	require.False(t, cfg.Storage.UseSSL)
	require.True(t, cfg.Kafka.Enabled())
	require.True(t, cfg.Redis.Enabled())
	require.Equal(t, time.Hour, cfg.Redis.TTL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantMsg string
	}{
		{"missing remover url", map[string]string{"REMBG_URL": " "}, "REMBG_URL"},
		{"missing bucket", map[string]string{"AWS_S3_BUCKET": " "}, "AWS_S3_BUCKET"},
		{"bad duration", map[string]string{"UPLOAD_TIMEOUT": "soon"}, "UPLOAD_TIMEOUT"},
		{"bad bool", map[string]string{"S3_USE_SSL": "maybe"}, "S3_USE_SSL"},
		{"bad int", map[string]string{"REMBG_MAX_BYTES": "lots"}, "REMBG_MAX_BYTES"},
		{"zero attempts", map[string]string{"REMBG_RETRY_ATTEMPTS": "0"}, "REMBG_RETRY_ATTEMPTS"},
		{"shrinking backoff", map[string]string{"REMBG_RETRY_BACKOFF": "0.5"}, "REMBG_RETRY_BACKOFF"},
		{"zero ttl with redis", map[string]string{"REDIS_ADDR": "redis:6379", "IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(envSource(t, tt.env))
			require.Error(t, err)
			require.Contains(t, strings.ToLower(err.Error()), strings.ToLower(tt.wantMsg))
		})
	}
}

func TestLoad_ReportsAllProblems(t *testing.T) {
	_, err := Load(envSource(t, map[string]string{
		"REMBG_URL":            " ",
		"AWS_S3_BUCKET":        " ",
		"REMBG_RETRY_ATTEMPTS": "0",
	}))
	require.Error(t, err)
	for _, key := range []string{"REMBG_URL", "AWS_S3_BUCKET", "REMBG_RETRY_ATTEMPTS"} {
		require.Contains(t, err.Error(), key)
	}
}
