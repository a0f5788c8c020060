// Package config loads service configuration from environment variables or a
// local .env file via viper. Every knob has a default so the service starts
// with no configuration at all, backed by the in-memory stores.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config stores all runtime configuration for the service.
type Config struct {
	Port            string  `mapstructure:"PORT"`
	DatabaseURL     string  `mapstructure:"DATABASE_URL"`
	AMQPURL         string  `mapstructure:"AMQP_URL"`
	EventExchange   string  `mapstructure:"EVENT_EXCHANGE"`
	RateLimitPerSec float64 `mapstructure:"RATE_LIMIT_PER_SEC"`
	RateLimitBurst  int     `mapstructure:"RATE_LIMIT_BURST"`
	MaxBodyBytes    int64   `mapstructure:"MAX_BODY_BYTES"`
	MigrationsDir   string  `mapstructure:"MIGRATIONS_DIR"`
	TokenTTLMinutes int     `mapstructure:"TOKEN_TTL_MINUTES"`
}

// Load reads configuration from the environment, falling back to a .env file
// in the working directory when present.
func Load() (Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("EVENT_EXCHANGE", "ledger.events")
	v.SetDefault("RATE_LIMIT_PER_SEC", 50.0)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("MAX_BODY_BYTES", int64(1<<20))
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("TOKEN_TTL_MINUTES", 15)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
