package appconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// Config holds all configuration details
type Config struct {
	Host        string            `yaml:"host"`
	BasePath    string            `yaml:"basePath"`
	API         APIConfig         `yaml:"api"`
	Session     SessionConfig     `yaml:"session"`
	Search      SearchConfig      `yaml:"search"`
	Preferences PreferencesConfig `yaml:"preferences"`
	Cache       CacheConfig       `yaml:"cache"`
	Pulsar      PulsarConfig      `yaml:"pulsar"`
}

// APIConfig defines how to reach the Lemo REST API
type APIConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig defines the auth token cookie
type SessionConfig struct {
	CookieName string        `yaml:"cookieName"`
	Secure     bool          `yaml:"secure"`
	MaxAge     time.Duration `yaml:"maxAge"`
}

// SearchConfig defines how search input is debounced
type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// PreferencesConfig defines where user preference lists are kept
type PreferencesConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig defines the profile cache. An empty RedisAddr keeps it in memory.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
	TTL           time.Duration `yaml:"ttl"`
}

// PulsarConfig defines the audit event topic. An empty URL disables publishing.
type PulsarConfig struct {
	URL   string `yaml:"url"`
	Topic string `yaml:"topic"`
}

const (
	DefaultAPITimeout     = 15 * time.Second
	DefaultCookieName     = "token"
	DefaultSessionMaxAge  = 24 * time.Hour
	DefaultSearchDebounce = 500 * time.Millisecond
	DefaultPreferencePath = "data/preferences.db"
	DefaultCacheTTL       = time.Minute
)

// LoadConfig loads and parses the configuration from a given file path.
// Variables from an optional .env file next to the working directory are
// made available to the template alongside the process environment.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config file path is required")
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Parse the template file
	tmpl, err := template.New(filepath.Base(path)).Option("missingkey=zero").ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file template: %w", err)
	}

	// Execute the template with environment variables
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, loadEnvVars()); err != nil {
		return nil, fmt.Errorf("error executing config file template: %w", err)
	}

	return Parse(buf.Bytes())
}

// Parse unmarshals rendered YAML and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	config.applyDefaults()

	if config.API.URL == "" {
		return nil, errors.New("api.url is required")
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	c.API.URL = strings.TrimRight(c.API.URL, "/")
	if c.API.Timeout <= 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultCookieName
	}
	if c.Session.MaxAge <= 0 {
		c.Session.MaxAge = DefaultSessionMaxAge
	}
	if c.Search.Debounce <= 0 {
		c.Search.Debounce = DefaultSearchDebounce
	}
	if c.Preferences.Path == "" {
		c.Preferences.Path = DefaultPreferencePath
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Pulsar.URL != "" && c.Pulsar.Topic == "" {
		c.Pulsar.Topic = "dashboard-audit"
	}
}

// loadEnvVars loads environment variables into a map
func loadEnvVars() map[string]string {
	envVars := make(map[string]string)
	for _, env := range os.Environ() {
		kv := strings.SplitN(env, "=", 2)
		if len(kv) == 2 {
			envVars[kv[0]] = kv[1]
		}
	}
	return envVars
}
