package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the file leaves a setting empty.
const (
	DefaultPort            = "8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultCacheTTL        = 10 * time.Minute
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Quiz     QuizConfig     `yaml:"quiz"`
}

// ServerConfig controls the HTTP listener. The write timeout does not apply
// to leaderboard push connections; the WebSocket upgrade hijacks the
// underlying conn out of net/http's deadline handling.
type ServerConfig struct {
	Port            string `yaml:"port"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// RedisConfig selects the Redis instance backing sessions, the quiz cache,
// and the leaderboard mirror. An empty Addr runs everything in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

// PostgresConfig selects the quiz definition store. An empty URL falls back
// to the in-memory store.
type PostgresConfig struct {
	URL string `yaml:"url"`
}

type QuizConfig struct {
	// TTL bounds how long a cached quiz definition is served without
	// re-reading the backing store.
	TTL string `yaml:"ttl"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses raw as a Go duration, returning the fallback when raw is
// empty or malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
