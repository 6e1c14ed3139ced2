package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port   string `mapstructure:"port"`
	Mode   string `mapstructure:"mode"` // "debug" or "release"
	Domain string `mapstructure:"domain"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
	BcryptCost    int    `mapstructure:"bcrypt_cost"`
}

type RateLimitConfig struct {
	Requests      int `mapstructure:"requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

type MetricsConfig struct {
	FlushIntervalSeconds int `mapstructure:"flush_interval_seconds"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/taskdeck")

	viper.SetDefault("server.port", "3000")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.domain", "")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "taskdeck")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "taskdeck")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("auth.token_ttl_hours", 168)
	viper.SetDefault("auth.bcrypt_cost", 12)
	viper.SetDefault("ratelimit.requests", 20)
	viper.SetDefault("ratelimit.window_seconds", 60)
	viper.SetDefault("metrics.flush_interval_seconds", 60)

	// Environment overrides: TASKDECK_DATABASE_PASSWORD, TASKDECK_AUTH_JWT_SECRET, ...
	viper.SetEnvPrefix("taskdeck")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A config file is optional; env vars and defaults must be enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is not set")
	}

	return &cfg, nil
}
