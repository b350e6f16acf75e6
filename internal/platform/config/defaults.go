package config

import "time"

// Default returns the baseline configuration. The JWT secret deliberately
// has no default; startup fails without one.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "logs",
			File:  "library-auth.log",
		},
		Database: DatabaseConfig{
			Path: "library-auth.db",
		},
		JWT: JWTConfig{
			Issuer:              "library-api",
			Audience:            "library-clients",
			AccessTokenMinutes:  15,
			RefreshTokenMinutes: 7 * 24 * 60,
		},
		TokenStore: StoreConfig{
			Driver: "memory",
			Redis: RedisStoreConfig{
				Addr:   "localhost:6379",
				Prefix: "refresh:",
			},
			Memory: MemoryStoreConfig{
				GCInterval: Duration(5 * time.Minute),
			},
		},
		Cleanup: CleanupConfig{
			Interval: Duration(24 * time.Hour),
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"https://localhost:7097"},
		},
	}
}
