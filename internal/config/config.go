package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port                  string
	Mode                  string
	AllowedOrigin         string
	StorageDriver         string
	DatabaseURL           string
	SQLitePath            string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	IdempotencyTTLSeconds int
	KafkaBrokers          []string
	KafkaTopic            string
	Currency              string
	BusinessName          string
	SnowflakeNode         int64
}

// Load reads, lowest precedence first: built-in defaults, the file named by
// CONFIG_FILE, a .env file, and the process environment.
func Load() (Config, error) {
	if err := loadDotEnv(envOr("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("MODE", "release")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("SQLITE_PATH", "esnaf_defter.db")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IDEMPOTENCY_TTL_SECONDS", 86400)
	v.SetDefault("KAFKA_TOPIC", "esnaf-defter-events")
	v.SetDefault("CURRENCY", "TL")
	v.SetDefault("SNOWFLAKE_NODE", 1)

	if file := strings.TrimSpace(os.Getenv("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}
	v.AutomaticEnv()

	cfg := Config{
		Port:                  v.GetString("PORT"),
		Mode:                  strings.ToLower(strings.TrimSpace(v.GetString("MODE"))),
		AllowedOrigin:         v.GetString("ALLOWED_ORIGIN"),
		StorageDriver:         strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		DatabaseURL:           strings.TrimSpace(v.GetString("DATABASE_URL")),
		SQLitePath:            strings.TrimSpace(v.GetString("SQLITE_PATH")),
		RedisAddr:             strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		IdempotencyTTLSeconds: v.GetInt("IDEMPOTENCY_TTL_SECONDS"),
		KafkaBrokers:          splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:            strings.TrimSpace(v.GetString("KAFKA_TOPIC")),
		Currency:              strings.TrimSpace(v.GetString("CURRENCY")),
		BusinessName:          strings.TrimSpace(v.GetString("BUSINESS_NAME")),
		SnowflakeNode:         v.GetInt64("SNOWFLAKE_NODE"),
	}
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = DriverSQLite
		if cfg.DatabaseURL != "" {
			cfg.StorageDriver = DriverPostgres
		}
	}
	if cfg.IdempotencyTTLSeconds < 1 {
		cfg.IdempotencyTTLSeconds = 86400
	}

	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLSeconds) * time.Second
}

// loadDotEnv never overrides variables that are already set.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envOr(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
