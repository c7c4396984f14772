package config

// Config is the server daemon's configuration, merged from a YAML file,
// environment variables and flags (flags win).
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig holds listen address and storage settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	DBPath  string `yaml:"db_path"`
}

// SecurityConfig holds the sync-endpoint rate limit.
type SecurityConfig struct {
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RetentionConfig configures the purge of stale per-client sync state.
type RetentionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	// Period is how long a client may stay idle before its sync record
	// is dropped, in time.ParseDuration syntax (e.g. "720h").
	Period string `yaml:"period"`
}
