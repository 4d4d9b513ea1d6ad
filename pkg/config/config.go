package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults applied when the corresponding environment variable is unset
const (
	DefaultPort          = 9090
	DefaultProjectsRoot  = "/var/versiongate/projects"
	DefaultDockerNetwork = "versiongate-net"
	DefaultNginxConfig   = "/etc/nginx/conf.d/upstream.conf"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultWatchInterval = 60
)

// Config carries all engine settings, read from the environment once at
// boot and treated as immutable afterwards
type Config struct {
	Port            int    // API listen port (PORT)
	DatabasePath    string // bbolt database file (DATABASE_URL)
	ProjectsRoot    string // per-project git workspaces (PROJECTS_ROOT_PATH)
	DockerNetwork   string // network every app container joins (DOCKER_NETWORK)
	NginxConfigPath string // live upstream file (NGINX_CONFIG_PATH)
	LogLevel        string // LOG_LEVEL
	LogFormat       string // "json" or "console" (LOG_FORMAT)
	WatchInterval   int    // watcher tick seconds (WATCH_INTERVAL_SECONDS)
}

// Load reads configuration from the environment and validates it
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:    strings.TrimPrefix(os.Getenv("DATABASE_URL"), "file:"),
		ProjectsRoot:    getEnv("PROJECTS_ROOT_PATH", DefaultProjectsRoot),
		DockerNetwork:   getEnv("DOCKER_NETWORK", DefaultDockerNetwork),
		NginxConfigPath: getEnv("NGINX_CONFIG_PATH", DefaultNginxConfig),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:       getEnv("LOG_FORMAT", DefaultLogFormat),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", DefaultPort); err != nil {
		return nil, err
	}
	if cfg.WatchInterval, err = getEnvInt("WATCH_INTERVAL_SECONDS", DefaultWatchInterval); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would only fail later and obscurely
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if c.WatchInterval < 1 {
		return fmt.Errorf("WATCH_INTERVAL_SECONDS must be positive, got %d", c.WatchInterval)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
