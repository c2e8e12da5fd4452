// Package config loads pagesmith settings from a TOML file and the
// environment.
//
// Settings resolve in increasing precedence: [Default], the config file
// (normally $XDG_CONFIG_HOME/pagesmith/config.toml), then PAGESMITH_*
// environment variables. Command-line flags are applied by the caller on
// top of the result. Environment references like ${OPENAI_API_KEY} inside
// the file are expanded before decoding.
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	svc := cfg.Service(logger)
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pagesmith/pkg/errors"
)

// Backend and provider names.
const (
	CopyService = "service"
	CopyOpenAI  = "openai"

	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"

	StoreMemory = "memory"
	StoreFile   = "file"
	StoreMongo  = "mongo"
)

// Config is the complete settings tree.
type Config struct {
	Service ServiceConfig `toml:"service"`
	Copy    CopyConfig    `toml:"copy"`
	Cache   CacheConfig   `toml:"cache"`
	Store   StoreConfig   `toml:"store"`
	Server  ServerConfig  `toml:"server"`
}

// ServiceConfig locates the planning service.
type ServiceConfig struct {
	URL      string   `toml:"url"`
	Timeout  Duration `toml:"timeout"`
	Attempts int      `toml:"attempts"`
}

// CopyConfig selects where generated copy comes from.
type CopyConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`
	BaseURL   string `toml:"base_url"`
}

// CacheConfig selects the response and artifact cache.
type CacheConfig struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig addresses a Redis server.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// StoreConfig selects where sessions persist.
type StoreConfig struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"`
	TTL     Duration    `toml:"ttl"`
	Mongo   MongoConfig `toml:"mongo"`
}

// MongoConfig addresses a MongoDB collection.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a string ("30s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Service: ServiceConfig{
			URL:      "http://127.0.0.1:8000",
			Timeout:  Duration{30 * time.Second},
			Attempts: 3,
		},
		Copy: CopyConfig{
			Provider:  CopyService,
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Cache: CacheConfig{Backend: CacheFile},
		Store: StoreConfig{
			Backend: StoreMemory,
			TTL:     Duration{24 * time.Hour},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/pagesmith/config.toml, falling back
// to ~/.config/pagesmith/config.toml.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pagesmith", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "pagesmith", "config.toml"), nil
}

// Load reads the config at path, or at DefaultPath when path is empty. A
// missing default file is not an error; a missing explicit file is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := Decode(data, &cfg); err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode expands environment references in data and decodes it over cfg.
// Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(os.ExpandEnv(string(data)), cfg)
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return nil
}

// Encode writes cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// ApplyEnv overrides settings from PAGESMITH_* variables looked up via
// lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("PAGESMITH_SERVICE_URL", &c.Service.URL)
	str("PAGESMITH_COPY_PROVIDER", &c.Copy.Provider)
	str("PAGESMITH_COPY_MODEL", &c.Copy.Model)
	str("PAGESMITH_COPY_BASE_URL", &c.Copy.BaseURL)
	str("PAGESMITH_CACHE_BACKEND", &c.Cache.Backend)
	str("PAGESMITH_CACHE_DIR", &c.Cache.Dir)
	str("PAGESMITH_REDIS_ADDR", &c.Cache.Redis.Addr)
	str("PAGESMITH_REDIS_PASSWORD", &c.Cache.Redis.Password)
	str("PAGESMITH_STORE_BACKEND", &c.Store.Backend)
	str("PAGESMITH_STORE_DIR", &c.Store.Dir)
	str("PAGESMITH_MONGO_URI", &c.Store.Mongo.URI)
	str("PAGESMITH_SERVER_ADDR", &c.Server.Addr)

	if v, ok := lookup("PAGESMITH_SERVICE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "PAGESMITH_SERVICE_TIMEOUT")
		}
		c.Service.Timeout = Duration{d}
	}
	if v, ok := lookup("PAGESMITH_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "PAGESMITH_REDIS_DB")
		}
		c.Cache.Redis.DB = n
	}
	return nil
}

// Validate checks enumerated values and required fields.
func (c *Config) Validate() error {
	if err := errors.ValidateURL(c.Service.URL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "service.url")
	}
	if c.Service.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "service.timeout must be non-negative")
	}
	if c.Service.Attempts < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "service.attempts must be non-negative")
	}
	switch c.Copy.Provider {
	case CopyService, CopyOpenAI:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "copy.provider %q (must be one of: service, openai)", c.Copy.Provider)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis.addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case StoreMemory, StoreFile:
	case StoreMongo:
		if c.Store.Mongo.URI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.mongo.uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "store.backend %q (must be one of: memory, file, mongo)", c.Store.Backend)
	}
	return nil
}
