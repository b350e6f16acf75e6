package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/CompilationErrror/library-auth/internal/platform/errors"
)

const (
	defaultConfigPath = "config.yaml"
	secretEnvVar      = "AUTH_JWT_SECRET"
)

// Loader reads the yaml configuration file and applies env overrides.
type Loader struct {
	path      string
	useDotEnv bool
}

func NewLoader() *Loader {
	return &Loader{
		path:      defaultConfigPath,
		useDotEnv: true,
	}
}

// WithPath overrides the configuration file location.
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Load builds the configuration from defaults, the yaml file and the
// environment. A missing config file is tolerated; a missing JWT secret
// is not.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		_ = godotenv.Load()
	}

	cfg := Default()

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.KindConfig, "config.load",
				fmt.Sprintf("failed to parse %s", l.path), err)
		}
	case os.IsNotExist(err):
		// defaults plus environment only
	default:
		return nil, errors.Wrap(errors.KindConfig, "config.load",
			fmt.Sprintf("failed to read %s", l.path), err)
	}

	if secret := os.Getenv(secretEnvVar); secret != "" {
		cfg.JWT.Secret = secret
	}

	if err := l.validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New(errors.KindConfig, "config.validate",
			fmt.Sprintf("invalid server port: %d", cfg.Server.Port))
	}
	if cfg.JWT.Secret == "" {
		return errors.New(errors.KindConfig, "config.validate",
			"jwt signing secret is required (jwt.secret or "+secretEnvVar+")")
	}
	if cfg.JWT.Issuer == "" || cfg.JWT.Audience == "" {
		return errors.New(errors.KindConfig, "config.validate",
			"jwt issuer and audience are required")
	}
	if cfg.JWT.AccessTokenMinutes <= 0 || cfg.JWT.RefreshTokenMinutes <= 0 {
		return errors.New(errors.KindConfig, "config.validate",
			"jwt token lifetimes must be positive")
	}
	switch cfg.TokenStore.Driver {
	case "memory", "sqlite", "redis":
	default:
		return errors.New(errors.KindConfig, "config.validate",
			fmt.Sprintf("unsupported token store driver: %s", cfg.TokenStore.Driver))
	}
	return nil
}
