package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so yaml values like "24h" parse naturally.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Server     ServerConfig   `yaml:"server"`
	Log        LogConfig      `yaml:"log"`
	Database   DatabaseConfig `yaml:"database"`
	JWT        JWTConfig      `yaml:"jwt"`
	TokenStore StoreConfig    `yaml:"token_store"`
	Cleanup    CleanupConfig  `yaml:"cleanup"`
	CORS       CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// JWTConfig carries the signing settings consumed by the token codec.
// The secret may also come from the AUTH_JWT_SECRET environment variable.
type JWTConfig struct {
	Secret              string `yaml:"secret"`
	Issuer              string `yaml:"issuer"`
	Audience            string `yaml:"audience"`
	AccessTokenMinutes  int    `yaml:"access_token_minutes"`
	RefreshTokenMinutes int    `yaml:"refresh_token_minutes"`
}

func (c JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

func (c JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenMinutes) * time.Minute
}

type StoreConfig struct {
	Driver string            `yaml:"driver"`
	Redis  RedisStoreConfig  `yaml:"redis,omitempty"`
	SQLite SQLiteStoreConfig `yaml:"sqlite,omitempty"`
	Memory MemoryStoreConfig `yaml:"memory,omitempty"`
}

type RedisStoreConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type SQLiteStoreConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

type MemoryStoreConfig struct {
	GCInterval Duration `yaml:"gc_interval"`
}

type CleanupConfig struct {
	Interval Duration `yaml:"interval"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}
