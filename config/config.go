package config

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/scipunch/tvfeed/cache"
)

const (
	baseCfgPath = "tvfeed/config.toml"

	// DefaultMasterFeedURL is the feed bundled next to the binary.
	DefaultMasterFeedURL = "./assets/feed_master.json"
)

type Config struct {
	MasterFeedURL string      `toml:"master_feed_url" yaml:"master_feed_url"`
	Persist       bool        `toml:"persist" yaml:"persist"` // write-through cache with read-on-failure fallback
	Cache         CacheConfig `toml:"cache" yaml:"cache"`
	HTTP          HTTPConfig  `toml:"http" yaml:"http"`
	Retry         RetryConfig `toml:"retry" yaml:"retry"`
	ListenAddr    string      `toml:"listen_addr" yaml:"listen_addr"`
}

type CacheConfig struct {
	Backend cache.Backend `toml:"backend" yaml:"backend"` // sqlite, bolt or memory
	Path    string        `toml:"path" yaml:"path"`       // empty = XDG cache dir
}

type HTTPConfig struct {
	Timeout   time.Duration `toml:"timeout" yaml:"timeout"`
	UserAgent string        `toml:"user_agent" yaml:"user_agent"`
}

type RetryConfig struct {
	MaxRetries     int           `toml:"max_retries" yaml:"max_retries"`
	InitialBackoff time.Duration `toml:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     time.Duration `toml:"max_backoff" yaml:"max_backoff"`
	Timeout        time.Duration `toml:"timeout" yaml:"timeout"`
}

// CacheOptions converts the cache section for cache.Open
func (c Config) CacheOptions() cache.Options {
	return cache.Options{Backend: c.Cache.Backend, Path: c.Cache.Path}
}

func Read(path string) (Config, error) {
	conf := Default()
	dat, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	if isYAML(path) {
		err = yaml.Unmarshal(dat, &conf)
	} else {
		_, err = toml.Decode(string(dat), &conf)
	}
	if err != nil {
		return conf, fmt.Errorf("failed to decode config at %s with %w", path, err)
	}
	return conf, nil
}

func Write(cfgPath string, cfg Config) error {
	var (
		blob []byte
		err  error
	)
	if isYAML(cfgPath) {
		blob, err = yaml.Marshal(cfg)
	} else {
		blob, err = toml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config with %w", err)
	}
	basePath := path.Dir(cfgPath)
	err = os.MkdirAll(basePath, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create base config directory at '%s' with %w", basePath, err)
	}
	err = os.WriteFile(cfgPath, blob, 0644)
	if err != nil {
		return fmt.Errorf("failed to write into config file at '%s' with %w", cfgPath, err)
	}
	slog.Info("config written", "at", cfgPath)
	return nil
}

func Default() Config {
	return Config{
		MasterFeedURL: DefaultMasterFeedURL,
		Persist:       true,
		Cache: CacheConfig{
			Backend: cache.BackendSQLite,
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "tvfeed/1.0",
		},
		Retry: RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			Timeout:        time.Minute,
		},
		ListenAddr: "127.0.0.1:8080",
	}
}

func DefaultPath() string {
	var xdgHome = os.Getenv("XDG_CONFIG_HOME")
	if xdgHome != "" {
		return path.Join(xdgHome, baseCfgPath)
	}

	var home = os.Getenv("HOME")
	if home != "" {
		return path.Join(home, ".config", baseCfgPath)
	}

	return path.Base(baseCfgPath)
}

func isYAML(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
