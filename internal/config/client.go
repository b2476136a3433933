package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/yukikurage/taskboard/internal/constants"
)

// Storage backends for the durable client session.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// ClientConfig holds settings for the taskboard CLI and board.
type ClientConfig struct {
	APIURL      string        `toml:"api_url"`
	Storage     string        `toml:"storage"`
	StoragePath string        `toml:"storage_path"`
	RedisAddr   string        `toml:"redis_addr"`
	RedisPrefix string        `toml:"redis_prefix"`
	NoticeTTL   time.Duration `toml:"-"`
	HTTPTimeout time.Duration `toml:"-"`
	LogLevel    string        `toml:"log_level"`

	// string forms so the TOML file can say notice_ttl = "10s"
	NoticeTTLRaw   string `toml:"notice_ttl"`
	HTTPTimeoutRaw string `toml:"http_timeout"`
}

// DefaultClient returns the built-in client defaults.
func DefaultClient() *ClientConfig {
	return &ClientConfig{
		APIURL:      "http://localhost:5000/api",
		Storage:     StorageFile,
		StoragePath: filepath.Join(configDir(), "session.json"),
		RedisAddr:   "localhost:6379",
		RedisPrefix: "taskboard:",
		NoticeTTL:   constants.DefaultNoticeTTL,
		LogLevel:    "warn",
	}
}

// LoadClient layers defaults, the TOML config file and environment variables.
// path overrides the config file location; an empty path falls back to
// TASKBOARD_CONFIG and then the user config directory. A missing file is not
// an error.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := DefaultClient()

	if path == "" {
		path = getEnv("TASKBOARD_CONFIG", filepath.Join(configDir(), "config.toml"))
	}
	if err := loadClientFile(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config file %s: %w", path, err)
	}

	loadClientEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadClientFile(cfg *ClientConfig, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return err
	}
	if cfg.NoticeTTLRaw != "" {
		d, err := time.ParseDuration(cfg.NoticeTTLRaw)
		if err != nil {
			return fmt.Errorf("notice_ttl: %w", err)
		}
		cfg.NoticeTTL = d
	}
	if cfg.HTTPTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.HTTPTimeoutRaw)
		if err != nil {
			return fmt.Errorf("http_timeout: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	return nil
}

func loadClientEnv(cfg *ClientConfig) {
	cfg.APIURL = getEnv("TASKBOARD_API_URL", cfg.APIURL)
	cfg.Storage = getEnv("TASKBOARD_STORAGE", cfg.Storage)
	cfg.StoragePath = getEnv("TASKBOARD_STORAGE_PATH", cfg.StoragePath)
	cfg.RedisAddr = getEnv("TASKBOARD_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPrefix = getEnv("TASKBOARD_REDIS_PREFIX", cfg.RedisPrefix)
	cfg.NoticeTTL = getEnvDuration("TASKBOARD_NOTICE_TTL", cfg.NoticeTTL)
	cfg.HTTPTimeout = getEnvDuration("TASKBOARD_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

// Validate checks the values that have a closed set of options.
func (c *ClientConfig) Validate() error {
	switch c.Storage {
	case StorageFile, StorageSQLite, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	if c.APIURL == "" {
		return errors.New("api url is required")
	}
	if c.NoticeTTL <= 0 {
		c.NoticeTTL = constants.DefaultNoticeTTL
	}
	return nil
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "taskboard")
	}
	return ".taskboard"
}
