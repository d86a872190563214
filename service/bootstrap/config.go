package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/safing/rdapboot/base/storage"
)

// DefaultRefreshInterval is the default interval of the refresh module.
const DefaultRefreshInterval = 12 * time.Hour

// Config configures a Resolver.
type Config struct {
	Cache      CacheConfig       `mapstructure:"cache" yaml:"cache"`
	HTTP       HTTPConfig        `mapstructure:"http" yaml:"http"`
	Registries map[string]string `mapstructure:"registries" yaml:"registries"`
	Refresh    RefreshConfig     `mapstructure:"refresh" yaml:"refresh"`
}

// CacheConfig configures the registry cache.
type CacheConfig struct {
	// Type is the name of the storage backend: fstree, bbolt, badger, redis,
	// hashmap or sinkhole.
	Type string `mapstructure:"type" yaml:"type"`
	// Location is a directory for file based backends and a URL for redis.
	Location string        `mapstructure:"location" yaml:"location"`
	MaxAge   time.Duration `mapstructure:"max_age" yaml:"max_age"`
}

// HTTPConfig configures the transport.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// RefreshConfig configures the refresh module.
type RefreshConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			Type:     "fstree",
			Location: DefaultCacheDir(),
			MaxAge:   DefaultMaxAge,
		},
		HTTP: HTTPConfig{
			Timeout:   DefaultTimeout,
			UserAgent: UserAgent,
		},
		Registries: map[string]string{},
		Refresh: RefreshConfig{
			Interval: DefaultRefreshInterval,
		},
	}
}

// DefaultCacheDir returns the default cache directory in the user cache
// directory.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "rdapboot")
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Cache.Type == "" {
		return errors.New("cache type is not set")
	}
	if !storage.IsRegistered(c.Cache.Type) {
		return fmt.Errorf("unknown cache type %q, available: %v", c.Cache.Type, storage.Types())
	}
	if c.Cache.MaxAge <= 0 {
		return fmt.Errorf("cache max age must be positive, is %s", c.Cache.MaxAge)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http timeout must be positive, is %s", c.HTTP.Timeout)
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, is %s", c.Refresh.Interval)
	}
	_, err := c.RegistryURLs()
	return err
}

// RegistryURLs returns the configured registry location overrides.
func (c Config) RegistryURLs() (map[Kind]string, error) {
	urls := make(map[Kind]string, len(c.Registries))
	for name, location := range c.Registries {
		if location == "" {
			continue
		}
		kind, err := ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("registries: %w", err)
		}
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("registries: invalid location of %s registry: %w", kind, err)
		}
		if u.Scheme != "https" && u.Scheme != "http" {
			return nil, fmt.Errorf("registries: unsupported scheme of %s registry location %q", kind, location)
		}
		urls[kind] = location
	}
	return urls, nil
}
