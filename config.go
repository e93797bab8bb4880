package appcore

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout is the request timeout used when none is configured.
const DefaultTimeout = 35 * time.Second

// Environment variables read by LoadFileConfig. They take precedence over
// values from the configuration file.
const (
	EnvBaseURL       = "APPCORE_BASE_URL"
	EnvTimeoutMillis = "APPCORE_TIMEOUT_MILLIS"
	EnvCacheDir      = "APPCORE_CACHE_DIR"
)

// Config holds the settings of an Api. A Config is never modified once an
// Api holds it; SetBaseURL installs a new one.
type Config struct {
	// URL is the base origin every request path is resolved against.
	URL string
	// Timeout bounds each request, including reading the body.
	Timeout time.Duration
}

// DefaultConfig returns a Config with the base URL taken from the
// environment and the default timeout.
func DefaultConfig() Config {
	return Config{
		URL:     os.Getenv(EnvBaseURL),
		Timeout: DefaultTimeout,
	}
}

// withURL returns a copy of c pointing at a different base URL.
func (c Config) withURL(u string) Config {
	c.URL = u
	return c
}

// FileConfig is the on-disk configuration format.
//
//	api:
//	  url: https://api.example.com
//	  timeoutMillis: 35000
//	cache:
//	  dir: /var/cache/appcore
type FileConfig struct {
	API struct {
		URL           string `yaml:"url"`
		TimeoutMillis int    `yaml:"timeoutMillis"`
	} `yaml:"api"`
	Cache struct {
		Dir string `yaml:"dir"`
	} `yaml:"cache"`
}

// LoadFileConfig reads the YAML file at path, if path is not empty, and
// applies environment overrides on top of it.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return FileConfig{}, &ErrConfigLoad{Path: path, Err: err}
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return FileConfig{}, &ErrConfigLoad{Path: path, Err: err}
		}
	}

	fc.API.URL = getEnv(EnvBaseURL, fc.API.URL)
	fc.API.TimeoutMillis = getEnvInt(EnvTimeoutMillis, fc.API.TimeoutMillis)
	fc.Cache.Dir = getEnv(EnvCacheDir, fc.Cache.Dir)

	return fc, nil
}

// APIConfig converts the file settings into a Config, filling in the
// default timeout.
func (fc FileConfig) APIConfig() Config {
	cfg := Config{URL: fc.API.URL, Timeout: DefaultTimeout}
	if fc.API.TimeoutMillis > 0 {
		cfg.Timeout = time.Duration(fc.API.TimeoutMillis) * time.Millisecond
	}
	return cfg
}

// CacheDir returns the configured image cache directory, or
// os.UserCacheDir()/appcore/images when none is set.
func (fc FileConfig) CacheDir() (string, error) {
	if fc.Cache.Dir != "" {
		return fc.Cache.Dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache directory: %w", err)
	}
	return filepath.Join(dir, "appcore", "images"), nil
}

// validateBaseURL checks that raw is an absolute http(s) URL.
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ErrInvalidBaseURL{URL: raw, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ErrInvalidBaseURL{URL: raw}
	}
	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
