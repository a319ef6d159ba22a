package config

import (
	"github.com/compozy/compozy-postgres/pkg/secret"
)

// Config is the plugin-level configuration: which block store backend to
// use and how to reach it. Credentials for target databases are not
// configured here; those live in stored blocks.
type Config struct {
	Store StoreConfig `koanf:"store"`
	Redis RedisConfig `koanf:"redis"`
	Log   LogConfig   `koanf:"log"`
}

// StoreConfig selects the block store backend.
type StoreConfig struct {
	Backend string `koanf:"backend" env:"STORE_BACKEND" validate:"oneof=memory redis"`
}

// RedisConfig contains connection settings for the redis-backed store.
type RedisConfig struct {
	Addr      string        `koanf:"addr"       env:"REDIS_ADDR"`
	Password  secret.String `koanf:"password"   env:"REDIS_PASSWORD"   sensitive:"true"`
	DB        int           `koanf:"db"         env:"REDIS_DB"         validate:"min=0"`
	KeyPrefix string        `koanf:"key_prefix" env:"REDIS_KEY_PREFIX"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level string `koanf:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error disabled"`
	JSON  bool   `koanf:"json"  env:"LOG_JSON"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{Backend: "memory"},
		Redis: RedisConfig{Addr: "localhost:6379", KeyPrefix: "blocks"},
		Log:   LogConfig{Level: "info"},
	}
}
