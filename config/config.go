// Package config loads application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = "config/.env"

// NewConfig loads configuration from environment using viper with typed defaults and validation.
func NewConfig() (*Config, error) {
	v := viper.New()
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, v := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, v)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "debug")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("http.request_timeout", 3*time.Second)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.db_name", "taskhub_db")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.migrations_dir", "db/migrations")
	v.SetDefault("postgres.migrate_timeout", 10*time.Second)
	v.SetDefault("postgres.query_timeout", 2*time.Second)
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)

	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 168*time.Hour)
	v.SetDefault("jwt.issuer", "taskhub")
	v.SetDefault("jwt.audience", "taskhub-clients")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.capacity", 20)
	v.SetDefault("ratelimit.refill_interval", 500*time.Millisecond)
	v.SetDefault("ratelimit.idle_ttl", 3*time.Minute)

	v.SetDefault("worker.count", 4)
	v.SetDefault("worker.poll_interval", 2*time.Second)
	v.SetDefault("worker.max_attempts", 3)
	v.SetDefault("worker.stale_after", 5*time.Minute)
	v.SetDefault("worker.janitor_interval", time.Minute)

	v.SetDefault("storage.region", "auto")

	v.SetDefault("cors.allow_origins", "*")
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"logging.level",
		"server.host",
		"server.port",
		"server.shutdown_timeout",
		"http.request_timeout",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.db_name",
		"postgres.ssl_mode",
		"postgres.migrations_dir",
		"postgres.migrate_timeout",
		"postgres.query_timeout",
		"postgres.max_conns",
		"postgres.min_conns",
		"jwt.secret",
		"jwt.access_ttl",
		"jwt.refresh_ttl",
		"jwt.issuer",
		"jwt.audience",
		"ratelimit.enabled",
		"ratelimit.capacity",
		"ratelimit.refill_interval",
		"ratelimit.idle_ttl",
		"worker.count",
		"worker.poll_interval",
		"worker.max_attempts",
		"worker.stale_after",
		"worker.janitor_interval",
		"storage.endpoint",
		"storage.region",
		"storage.access_key",
		"storage.secret_key",
		"storage.bucket",
		"storage.public_base_url",
		"cors.allow_origins",
		"bootstrap.admin_email",
		"bootstrap.admin_password",
	}

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
