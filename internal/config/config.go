// Package config turns raw env-backed settings into the typed configuration injected into app components
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Source - контракт источника настроек, его реализует *config.Config из wbf
type Source interface {
	SetDefault(key string, value any)
	Unmarshal(rawVal any, opts ...viper.DecoderConfigOption) error
}

type AppConfig struct {
	Port            string
	GinMode         string
	LogLevel        string
	BBoxRequired    bool
	ShutdownTimeout time.Duration
	Remover         RemoverConfig
	Storage         StorageConfig
	Kafka           KafkaConfig
	Redis           RedisConfig
}

type RemoverConfig struct {
	URL           string
	APIKey        string
	Timeout       time.Duration
	MaxBytes      int64
	RetryAttempts int
	RetryDelay    time.Duration
	RetryBackoff  float64
}

type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	UseSSL          bool
	KeyPrefix       string
	PublicRead      bool
	PublicBaseURL   string
	UploadTimeout   time.Duration
	ConnectAttempts int
	ConnectDelay    time.Duration
}

type KafkaConfig struct {
	Broker string
	Topic  string
}

// Enabled - события публикуются только если указан брокер
func (k KafkaConfig) Enabled() bool { return k.Broker != "" }

type RedisConfig struct {
	Addr     string
	Password string
	TTL      time.Duration
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// defaults - значения для ключей, не заданных в окружении; пустая строка = обязательный или выключенный
var defaults = map[string]any{
	"APP_PORT":              "3000",
	"GIN_MODE":              "release",
	"LOG_LEVEL":             "info",
	"BBOX_REQUIRED":         false,
	"SHUTDOWN_TIMEOUT":      10 * time.Second,
	"REMBG_URL":             "",
	"REMBG_API_KEY":         "",
	"REMBG_TIMEOUT":         30 * time.Second,
	"REMBG_MAX_BYTES":       int64(32 << 20),
	"REMBG_RETRY_ATTEMPTS":  1,
	"REMBG_RETRY_DELAY":     time.Second,
	"REMBG_RETRY_BACKOFF":   2.0,
	"S3_ENDPOINT":           "s3.amazonaws.com",
	"AWS_ACCESS_KEY_ID":     "",
	"AWS_SECRET_ACCESS_KEY": "",
	"AWS_REGION":            "us-east-1",
	"AWS_S3_BUCKET":         "",
	"S3_USE_SSL":            true,
	"S3_KEY_PREFIX":         "processed-images",
	"S3_PUBLIC_READ":        true,
	"S3_PUBLIC_BASE_URL":    "",
	"UPLOAD_TIMEOUT":        30 * time.Second,
	"S3_CONNECT_ATTEMPTS":   5,
	"S3_CONNECT_DELAY":      5 * time.Second,
	"KAFKA_BROKER":          "",
	"KAFKA_TOPIC":           "processed-images",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"IDEMPOTENCY_TTL":       24 * time.Hour,
}

// envConfig - плоская раскладка ключей окружения
type envConfig struct {
	Port            string        `mapstructure:"APP_PORT"`
	GinMode         string        `mapstructure:"GIN_MODE"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	BBoxRequired    bool          `mapstructure:"BBOX_REQUIRED"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	RemoverURL     string        `mapstructure:"REMBG_URL"`
	RemoverAPIKey  string        `mapstructure:"REMBG_API_KEY"`
	RemoverTimeout time.Duration `mapstructure:"REMBG_TIMEOUT"`
	RemoverMax     int64         `mapstructure:"REMBG_MAX_BYTES"`
	RetryAttempts  int           `mapstructure:"REMBG_RETRY_ATTEMPTS"`
	RetryDelay     time.Duration `mapstructure:"REMBG_RETRY_DELAY"`
	RetryBackoff   float64       `mapstructure:"REMBG_RETRY_BACKOFF"`

	S3Endpoint        string        `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID     string        `mapstructure:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string        `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string        `mapstructure:"AWS_REGION"`
	S3Bucket          string        `mapstructure:"AWS_S3_BUCKET"`
	S3UseSSL          bool          `mapstructure:"S3_USE_SSL"`
	S3KeyPrefix       string        `mapstructure:"S3_KEY_PREFIX"`
	S3PublicRead      bool          `mapstructure:"S3_PUBLIC_READ"`
	S3PublicBaseURL   string        `mapstructure:"S3_PUBLIC_BASE_URL"`
	UploadTimeout     time.Duration `mapstructure:"UPLOAD_TIMEOUT"`
	S3ConnectAttempts int           `mapstructure:"S3_CONNECT_ATTEMPTS"`
	S3ConnectDelay    time.Duration `mapstructure:"S3_CONNECT_DELAY"`

	KafkaBroker string `mapstructure:"KAFKA_BROKER"`
	KafkaTopic  string `mapstructure:"KAFKA_TOPIC"`

	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	IdempotencyTTL time.Duration `mapstructure:"IDEMPOTENCY_TTL"`
}

// Load registers defaults on src, decodes it and checks required keys and value ranges.
// All problems are reported at once.
func Load(src Source) (*AppConfig, error) {
	for k, v := range defaults {
		src.SetDefault(k, v)
	}

	var env envConfig
	if err := src.Unmarshal(&env); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &AppConfig{
		Port:            strings.TrimSpace(env.Port),
		GinMode:         strings.TrimSpace(env.GinMode),
		LogLevel:        strings.TrimSpace(env.LogLevel),
		BBoxRequired:    env.BBoxRequired,
		ShutdownTimeout: env.ShutdownTimeout,
		Remover: RemoverConfig{
			URL:           strings.TrimSpace(env.RemoverURL),
			APIKey:        strings.TrimSpace(env.RemoverAPIKey),
			Timeout:       env.RemoverTimeout,
			MaxBytes:      env.RemoverMax,
			RetryAttempts: env.RetryAttempts,
			RetryDelay:    env.RetryDelay,
			RetryBackoff:  env.RetryBackoff,
		},
		Storage: StorageConfig{
			Endpoint:        strings.TrimSpace(env.S3Endpoint),
			AccessKeyID:     strings.TrimSpace(env.S3AccessKeyID),
			SecretAccessKey: strings.TrimSpace(env.S3SecretAccessKey),
			Region:          strings.TrimSpace(env.S3Region),
			Bucket:          strings.TrimSpace(env.S3Bucket),
			UseSSL:          env.S3UseSSL,
			KeyPrefix:       strings.Trim(strings.TrimSpace(env.S3KeyPrefix), "/"),
			PublicRead:      env.S3PublicRead,
			PublicBaseURL:   strings.TrimRight(strings.TrimSpace(env.S3PublicBaseURL), "/"),
			UploadTimeout:   env.UploadTimeout,
			ConnectAttempts: env.S3ConnectAttempts,
			ConnectDelay:    env.S3ConnectDelay,
		},
		Kafka: KafkaConfig{
			Broker: strings.TrimSpace(env.KafkaBroker),
			Topic:  strings.TrimSpace(env.KafkaTopic),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(env.RedisAddr),
			Password: env.RedisPassword,
			TTL:      env.IdempotencyTTL,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	var errs []error
	fail := func(key, reason string) {
		errs = append(errs, fmt.Errorf("config %s: %s", key, reason))
	}

	if c.Remover.URL == "" {
		fail("REMBG_URL", "is required")
	}
	if c.Storage.Bucket == "" {
		fail("AWS_S3_BUCKET", "is required")
	}
	if c.Remover.RetryAttempts < 1 {
		fail("REMBG_RETRY_ATTEMPTS", "must be at least 1")
	}
	if c.Remover.MaxBytes <= 0 {
		fail("REMBG_MAX_BYTES", "must be positive")
	}
	if c.Remover.RetryBackoff < 1 {
		fail("REMBG_RETRY_BACKOFF", "must be at least 1")
	}
	if c.Storage.ConnectAttempts < 1 {
		fail("S3_CONNECT_ATTEMPTS", "must be at least 1")
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		fail("KAFKA_TOPIC", "is required when KAFKA_BROKER is set")
	}
	if c.Redis.Enabled() && c.Redis.TTL <= 0 {
		fail("IDEMPOTENCY_TTL", "must be positive when REDIS_ADDR is set")
	}

	return errors.Join(errs...)
}
