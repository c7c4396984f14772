package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither file, env nor flags specify a value.
const (
	DefaultAddress = "127.0.0.1"
	DefaultPort    = 8080
	DefaultDBPath  = "./data"
)

// Load reads the YAML config at path (missing file is not an error: env
// and defaults still apply) and overlays TRIPSYNC_* environment variables.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRIPSYNC_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("TRIPSYNC_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("TRIPSYNC_DB_PATH"); v != "" {
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("TRIPSYNC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRIPSYNC_RETENTION_CRON"); v != "" {
		cfg.Retention.Cron = v
	}
	if v := os.Getenv("TRIPSYNC_RETENTION_PERIOD"); v != "" {
		cfg.Retention.Period = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultAddress
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.DBPath == "" {
		cfg.Server.DBPath = DefaultDBPath
	}
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}
