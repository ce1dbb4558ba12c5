package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	yaml "github.com/goccy/go-yaml"
)

var (
	errConfigPathEmpty          = errors.New("config path is empty")
	errSourceNameCannotBeEmpty  = errors.New("source name cannot be empty")
	errDuplicateSourceName      = errors.New("duplicate source name")
	errSourceURLCannotBeEmpty   = errors.New("source url cannot be empty")
	errSourceInvalidFormat      = errors.New("source format must be text or json")
	errSourceInvalidType        = errors.New("source type must be http or shell")
	errCacheLimitsNonNegative   = errors.New("cache limits must be non-negative")
	errRateLimitsNonNegative    = errors.New("rate limits must be non-negative")
	errResolverLimitsPositive   = errors.New("resolver limits must be positive")
	errProbePortOutOfRange      = errors.New("probe port out of range")
	errHTTPListenMustBeHostPort = errors.New("http listen must be host:port or :port")
)

const (
	defaultCacheTTL       = 30 * 24 * time.Hour
	defaultCacheEntries   = 16384
	defaultSourceTimeout  = 5 * time.Second
	defaultFanoutWidth    = 3
	defaultOverallTimeout = 15 * time.Second
	defaultBatchWorkers   = 10
	defaultRateCapacity   = 5
	defaultRateRefill     = 1.0
	defaultRateCooldown   = 30 * time.Second
	defaultHTTPListen     = ":8379"
	maxPort               = 65535
)

// Source type discriminators.
const (
	SourceTypeHTTP  = "http"
	SourceTypeShell = "shell"
)

// RateConfig is the token bucket policy for one source.
type RateConfig struct {
	Capacity int           `yaml:"capacity,omitempty"`
	Refill   float64       `yaml:"refill_per_sec,omitempty"`
	Cooldown time.Duration `yaml:"cooldown,omitempty"`
}

// SourceConfig describes one remote vendor lookup service.
type SourceConfig struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	Type    string        `yaml:"type,omitempty"`   // http (default) or shell
	Tool    string        `yaml:"tool,omitempty"`   // shell sources only; default curl
	Format  string        `yaml:"format,omitempty"` // text (default) or json
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Rate    RateConfig    `yaml:"rate,omitempty"`
}

// CacheConfig configures the durable OUI cache.
type CacheConfig struct {
	Path       string        `yaml:"path,omitempty"`
	TTL        time.Duration `yaml:"ttl,omitempty"`
	MaxEntries int           `yaml:"max_entries,omitempty"`
}

// ResolverConfig tunes the resolution pipeline.
type ResolverConfig struct {
	FanoutWidth      int           `yaml:"fanout_width,omitempty"`
	OverallTimeout   time.Duration `yaml:"overall_timeout,omitempty"`
	BatchConcurrency int           `yaml:"batch_concurrency,omitempty"`
	// InvalidResponses overrides the placeholder strings treated as a miss.
	InvalidResponses []string `yaml:"invalid_responses,omitempty"`
}

// ProbeConfig configures observation probing.
type ProbeConfig struct {
	Ports       []int         `yaml:"ports,omitempty"`
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty"`
	DNSServer   string        `yaml:"dns_server,omitempty"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Listen  string `yaml:"listen,omitempty"`
}

// LogConfig configures logging defaults; CLI flags win over the file.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Config is the root configuration.
type Config struct {
	Log             LogConfig      `yaml:"log,omitempty"`
	HTTP            HTTPConfig     `yaml:"http,omitempty"`
	Cache           CacheConfig    `yaml:"cache,omitempty"`
	Resolver        ResolverConfig `yaml:"resolver,omitempty"`
	Probe           ProbeConfig    `yaml:"probe,omitempty"`
	StaticTableFile string         `yaml:"static_table_file,omitempty"`
	Sources         []SourceConfig `yaml:"sources,omitempty"`

	Path string `yaml:"-"`
}

// Default returns the configuration used when no file is given: the two
// public vendor APIs plus the curl fallback, ephemeral cache.
func Default() *Config {
	cfg := &Config{
		Sources: []SourceConfig{
			{Name: "macvendors", URL: "https://api.macvendors.com/%s", Format: "text"},
			{Name: "maclookup", URL: "https://api.maclookup.app/v2/macs/%s", Format: "json"},
			{Name: "macvendors-curl", URL: "https://api.macvendors.com/%s", Format: "text", Type: SourceTypeShell},
		},
	}
	cfg.applyDefaults()

	return cfg
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errConfigPathEmpty
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Path = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = defaultCacheTTL
	}

	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = defaultCacheEntries
	}

	if c.Resolver.FanoutWidth <= 0 {
		c.Resolver.FanoutWidth = defaultFanoutWidth
	}

	if c.Resolver.OverallTimeout <= 0 {
		c.Resolver.OverallTimeout = defaultOverallTimeout
	}

	if c.Resolver.BatchConcurrency <= 0 {
		c.Resolver.BatchConcurrency = defaultBatchWorkers
	}

	if c.HTTP.Listen == "" {
		c.HTTP.Listen = defaultHTTPListen
	}

	for i := range c.Sources {
		s := &c.Sources[i]

		if s.Type == "" {
			s.Type = SourceTypeHTTP
		}

		if s.Format == "" {
			s.Format = "text"
		}

		if s.Timeout <= 0 {
			s.Timeout = defaultSourceTimeout
		}

		if s.Rate.Capacity <= 0 {
			s.Rate.Capacity = defaultRateCapacity
		}

		if s.Rate.Refill <= 0 {
			s.Rate.Refill = defaultRateRefill
		}

		if s.Rate.Cooldown <= 0 {
			s.Rate.Cooldown = defaultRateCooldown
		}
	}
}

// Validate checks the configuration for contradictions.
//
//nolint:cyclop
func (c *Config) Validate() error {
	if c.Cache.TTL < 0 || c.Cache.MaxEntries < 0 {
		return errCacheLimitsNonNegative
	}

	if c.Resolver.FanoutWidth <= 0 || c.Resolver.OverallTimeout <= 0 || c.Resolver.BatchConcurrency <= 0 {
		return errResolverLimitsPositive
	}

	if c.HTTP.Enabled && !strings.Contains(c.HTTP.Listen, ":") {
		return fmt.Errorf("%w: %q", errHTTPListenMustBeHostPort, c.HTTP.Listen)
	}

	for _, port := range c.Probe.Ports {
		if port <= 0 || port > maxPort {
			return fmt.Errorf("%w: %d", errProbePortOutOfRange, port)
		}
	}

	seen := make(map[string]struct{}, len(c.Sources))

	for _, s := range c.Sources {
		if strings.TrimSpace(s.Name) == "" {
			return errSourceNameCannotBeEmpty
		}

		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: %q", errDuplicateSourceName, s.Name)
		}

		seen[s.Name] = struct{}{}

		if strings.TrimSpace(s.URL) == "" {
			return fmt.Errorf("%w: %q", errSourceURLCannotBeEmpty, s.Name)
		}

		if s.Format != "text" && s.Format != "json" {
			return fmt.Errorf("%w: %q has %q", errSourceInvalidFormat, s.Name, s.Format)
		}

		if s.Type != SourceTypeHTTP && s.Type != SourceTypeShell {
			return fmt.Errorf("%w: %q has %q", errSourceInvalidType, s.Name, s.Type)
		}

		if s.Rate.Capacity < 0 || s.Rate.Refill < 0 {
			return fmt.Errorf("%w: %q", errRateLimitsNonNegative, s.Name)
		}
	}

	return nil
}
