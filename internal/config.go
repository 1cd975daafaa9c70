package internal

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend kinds accepted in CacheConfig.Backend.
const (
	BackendLRU      = "lru"
	BackendLocal    = "local"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Duration is a time.Duration that unmarshals from YAML as either a Go
// duration string ("30s", "5m") or a bare number of seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("bad duration value on line %d", node.Line))
	}
	if node.Value == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.ParseFloat(node.Value, 64); err == nil {
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("bad duration %q: %w", node.Value, err))
	}
	*d = Duration(parsed)
	return nil
}

// CacheConfig declares one named cache and the backend it runs on.
// Fields that do not apply to the chosen backend are ignored.
type CacheConfig struct {
	// Name identifies the cache; it is also the namespace that isolates its
	// keys from every other cache.
	Name string `yaml:"name"`

	// Backend selects the storage kind: lru (default), local, redis, or
	// postgres.
	Backend string `yaml:"backend"`

	// Capacity bounds the lru backend by entry count. Zero uses the backend
	// default; negative disables the bound.
	Capacity int `yaml:"capacity"`

	// Path is the cache file for the local backend. When empty, the
	// registry derives <dir>/<name>.db from its configured local directory.
	Path string `yaml:"path"`

	// RedisURL dials a dedicated Redis client for this cache. Leave empty
	// to share the registry-wide client.
	RedisURL string `yaml:"redis_url"`

	// PostgresURL dials a dedicated pool for this cache. Leave empty to
	// share the registry-wide pool.
	PostgresURL string `yaml:"postgres_url"`

	// Table overrides the Postgres table name.
	Table string `yaml:"table"`

	// DefaultTTL applies to entries stored without an explicit TTL.
	// Zero means such entries never expire.
	DefaultTTL Duration `yaml:"default_ttl"`

	// CleanupInterval tunes the backend's expired-entry sweep.
	CleanupInterval Duration `yaml:"cleanup_interval"`

	// OperationTimeout bounds each redis or postgres operation.
	OperationTimeout Duration `yaml:"operation_timeout"`
}

// kind returns the backend kind with the default applied.
func (c CacheConfig) kind() string {
	if c.Backend == "" {
		return BackendLRU
	}
	return c.Backend
}

// Validate checks the fields that can be judged without registry context.
// Connection requirements (a Redis client for redis caches, and so on) are
// checked when the registry builds the instance.
func (c CacheConfig) Validate() error {
	switch c.kind() {
	case BackendLRU, BackendLocal, BackendRedis, BackendPostgres:
	default:
		return errors.Join(ErrInvalidConfig,
			fmt.Errorf("cache %q: unknown backend %q", c.Name, c.Backend))
	}

	if c.DefaultTTL < 0 {
		return errors.Join(ErrInvalidConfig,
			fmt.Errorf("cache %q: negative default_ttl", c.Name))
	}

	return nil
}

// Config is the registry's declarative configuration: the named caches, an
// optional template for names that were never declared, and the shared
// connections backends draw on.
type Config struct {
	// Default is the backend template used when an unknown cache name is
	// requested. Its Name field is ignored. When nil, unknown names get an
	// in-memory LRU cache.
	Default *CacheConfig `yaml:"default"`

	// Caches lists the declared cache instances.
	Caches []CacheConfig `yaml:"caches"`

	// RedisURL dials the shared Redis client used by redis caches that do
	// not declare their own redis_url. The registry owns and closes it.
	RedisURL string `yaml:"redis_url"`

	// PostgresURL dials the shared pool used by postgres caches that do not
	// declare their own postgres_url. The registry owns and closes it.
	PostgresURL string `yaml:"postgres_url"`

	// LocalDir is where local caches without an explicit path keep their
	// files, one <name>.db per cache.
	LocalDir string `yaml:"local_dir"`
}

// Validate checks every declared cache and rejects duplicate names.
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Caches))
	for _, cc := range c.Caches {
		if cc.Name == "" {
			return errors.Join(ErrInvalidConfig, errors.New("cache name is required"))
		}
		if _, dup := seen[cc.Name]; dup {
			return errors.Join(ErrDuplicateCache, fmt.Errorf("cache %q declared twice", cc.Name))
		}
		seen[cc.Name] = struct{}{}

		if err := cc.Validate(); err != nil {
			return err
		}
	}

	if c.Default != nil {
		if err := c.Default.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ParseConfig reads a YAML document. Unknown fields are rejected so typos
// fail at startup instead of silently configuring nothing.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return ParseConfig(data)
}
