package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime configuration. Postgres and Redis are optional:
// without a conn string the in-memory store serves (single process only),
// without a Redis address live push is disabled.
type Config struct {
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	PostgresConn  string `mapstructure:"POSTGRES_CONN"`
	MigrationURL  string `mapstructure:"MIGRATION_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`

	ExpiringSweepInterval time.Duration `mapstructure:"EXPIRING_SWEEP_INTERVAL"`
	ExpiredSweepInterval  time.Duration `mapstructure:"EXPIRED_SWEEP_INTERVAL"`
	ExpiringWindow        time.Duration `mapstructure:"EXPIRING_WINDOW"`
}

// Load reads app.env from the given path, with environment variables taking
// precedence. A missing file is fine; defaults cover everything optional.
func Load(path string) (cfg Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_ADDRESS", ":8080")
	viper.SetDefault("POSTGRES_CONN", "")
	viper.SetDefault("MIGRATION_URL", "file://migrations")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("EXPIRING_SWEEP_INTERVAL", time.Hour)
	viper.SetDefault("EXPIRED_SWEEP_INTERVAL", 15*time.Minute)
	viper.SetDefault("EXPIRING_WINDOW", 24*time.Hour)

	if err = viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}
	err = viper.Unmarshal(&cfg)
	return
}
