// Package config provides configuration management for the bibliomatch service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Enrichment providers.
const (
	EnrichmentNone      = "none"
	EnrichmentOpenAI    = "openai"
	EnrichmentAnthropic = "anthropic"
)

// Enrichment cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Result limits, mirrored from the reconciliation pipeline.
const (
	MinMaxResults = 1
	MaxMaxResults = 20
	MaxMaxEnrich  = 8
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "BIBLIOMATCH"

// Config holds all configuration for the bibliomatch service.
type Config struct {
	// Server contains HTTP/gRPC server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// LocalMatcher contains the curated spreadsheet matcher settings.
	LocalMatcher LocalMatcherConfig `mapstructure:"local_matcher"`
	// Reconcile contains the pipeline limits.
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	// Providers contains the external catalog settings.
	Providers ProvidersConfig `mapstructure:"providers"`
	// Enrichment contains the language-model oracle settings.
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the REST API port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// GRPCPort is the gRPC health port (default: 9090).
	GRPCPort int `mapstructure:"grpc_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response. A reconciliation
	// may wait on several providers and the oracle, so keep it generous.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RequestTimeout bounds one reconciliation.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// LocalMatcherConfig holds the curated spreadsheet settings.
type LocalMatcherConfig struct {
	// DataPath is the xlsx workbook. Empty disables local search.
	DataPath string `mapstructure:"data_path"`
	// TopK is the default number of local matches returned.
	TopK int `mapstructure:"top_k"`
	// AuthorPenalty lowers strong-title rows whose author contradicts the query.
	AuthorPenalty PenaltyConfig `mapstructure:"author_penalty"`
	// YearPenalty lowers rows whose year misses the queried year entirely.
	YearPenalty PenaltyConfig `mapstructure:"year_penalty"`
}

// PenaltyConfig toggles one local matcher penalty.
type PenaltyConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Factor  float64 `mapstructure:"factor"`
}

// ReconcileConfig holds the pipeline limits.
type ReconcileConfig struct {
	// MaxResults is the number of citations returned, clamped to 1..20.
	MaxResults int `mapstructure:"max_results"`
	// MaxEnrich is the number of records sent to the oracle, clamped to 0..8.
	MaxEnrich int `mapstructure:"max_enrich"`
	// FanoutConcurrency bounds concurrent provider lookups (0 = whole plan).
	FanoutConcurrency int `mapstructure:"fanout_concurrency"`
	// SecondaryConcurrency bounds concurrent secondary lookups.
	SecondaryConcurrency int `mapstructure:"secondary_concurrency"`
}

// ProvidersConfig holds configuration for all catalog providers.
type ProvidersConfig struct {
	// GoogleBooks contains Google Books API settings.
	GoogleBooks ProviderConfig `mapstructure:"google_books"`
	// OpenLibrary contains Open Library API settings.
	OpenLibrary ProviderConfig `mapstructure:"open_library"`
	// Crossref contains Crossref API settings.
	Crossref ProviderConfig `mapstructure:"crossref"`
}

// ProviderConfig holds configuration for a single catalog provider.
type ProviderConfig struct {
	// Enabled controls whether this provider is queried.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is optional (loaded from environment, e.g. BIBLIOMATCH_PROVIDERS_GOOGLE_BOOKS_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxRetries is the number of retries on 429/5xx.
	MaxRetries int `mapstructure:"max_retries"`
	// MaxResults is the per-request cap of the API.
	MaxResults int `mapstructure:"max_results"`
	// Mailto identifies the caller to APIs with a polite pool (Crossref).
	Mailto string `mapstructure:"mailto"`
}

// EnrichmentConfig holds the oracle settings.
type EnrichmentConfig struct {
	// Provider is none, openai or anthropic.
	Provider string `mapstructure:"provider"`
	// Timeout bounds one oracle request.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the number of retries on transient oracle errors.
	MaxRetries int `mapstructure:"max_retries"`
	// MaxOutputTokens caps the oracle answer.
	MaxOutputTokens int `mapstructure:"max_output_tokens"`
	// WebSearch lets the oracle consult the web before answering.
	WebSearch bool `mapstructure:"web_search"`
	// OpenAI contains OpenAI-specific settings.
	OpenAI OracleConfig `mapstructure:"openai"`
	// Anthropic contains Anthropic-specific settings.
	Anthropic OracleConfig `mapstructure:"anthropic"`
	// Cache contains the answer cache settings.
	Cache CacheConfig `mapstructure:"cache"`
}

// OracleConfig holds the settings of one oracle vendor.
type OracleConfig struct {
	// APIKey is loaded from the environment only.
	APIKey string `mapstructure:"-"`
	// Model is the model name.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// CacheConfig holds the enrichment answer cache settings.
type CacheConfig struct {
	// Backend is none, memory or redis.
	Backend string `mapstructure:"backend"`
	// Size is the number of entries of the memory cache.
	Size int `mapstructure:"size"`
	// TTL is the lifetime of a cached answer.
	TTL time.Duration `mapstructure:"ttl"`
	// Redis contains the redis backend settings.
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the redis connection settings.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"-"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// GRPCAddress returns the gRPC server address.
func (c *ServerConfig) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// EnrichmentEnabled reports whether an oracle is selected and allowed to run.
func (c *Config) EnrichmentEnabled() bool {
	p := strings.ToLower(c.Enrichment.Provider)
	return p != "" && p != EnrichmentNone && c.Reconcile.MaxEnrich > 0
}

// Load loads configuration from environment variables and the default config
// file locations.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load but reads path instead of searching for
// config.yaml. An empty path searches the default locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/bibliomatch-service")
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets use mapstructure:"-" and never come from a config file.
	loadSecrets(&cfg)
	cfg.clamp()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindLegacyEnv maps the environment names of earlier deployments onto their
// keys. The prefixed name wins when both are set.
func bindLegacyEnv(v *viper.Viper) error {
	legacy := map[string][]string{
		"reconcile.max_results":   {"BIBLIOMATCH_RECONCILE_MAX_RESULTS", "MAX_BIBLIO_RESULTS", "MAX_BILBLIO_RESULTS"},
		"reconcile.max_enrich":    {"BIBLIOMATCH_RECONCILE_MAX_ENRICH", "MAX_LLM_ENRICH"},
		"local_matcher.data_path": {"BIBLIOMATCH_LOCAL_MATCHER_DATA_PATH", "BIBLIO_DATA_PATH"},
	}
	for key, names := range legacy {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}
	return nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Enrichment.OpenAI.APIKey = firstEnv("BIBLIOMATCH_ENRICHMENT_OPENAI_API_KEY", "OPENAI_API_KEY")
	cfg.Enrichment.Anthropic.APIKey = firstEnv("BIBLIOMATCH_ENRICHMENT_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	cfg.Enrichment.Cache.Redis.Password = os.Getenv("BIBLIOMATCH_ENRICHMENT_CACHE_REDIS_PASSWORD")

	cfg.Providers.GoogleBooks.APIKey = os.Getenv("BIBLIOMATCH_PROVIDERS_GOOGLE_BOOKS_API_KEY")
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return ""
}

// clamp forces the pipeline limits into range, the way the service itself does.
func (c *Config) clamp() {
	c.Reconcile.MaxResults = min(max(c.Reconcile.MaxResults, MinMaxResults), MaxMaxResults)
	c.Reconcile.MaxEnrich = min(max(c.Reconcile.MaxEnrich, 0), MaxMaxEnrich)
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "3m")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.request_timeout", "2m")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "bibliomatch")

	// Local matcher defaults
	v.SetDefault("local_matcher.data_path", "")
	v.SetDefault("local_matcher.top_k", 10)
	v.SetDefault("local_matcher.author_penalty.enabled", true)
	v.SetDefault("local_matcher.author_penalty.factor", 0.25)
	v.SetDefault("local_matcher.year_penalty.enabled", true)
	v.SetDefault("local_matcher.year_penalty.factor", 0.15)

	// Reconcile defaults
	v.SetDefault("reconcile.max_results", 5)
	v.SetDefault("reconcile.max_enrich", 3)
	v.SetDefault("reconcile.fanout_concurrency", 0)
	v.SetDefault("reconcile.secondary_concurrency", 4)

	// Provider defaults - Google Books
	v.SetDefault("providers.google_books.enabled", true)
	v.SetDefault("providers.google_books.base_url", "https://www.googleapis.com/books/v1")
	v.SetDefault("providers.google_books.timeout", "15s")
	v.SetDefault("providers.google_books.rate_limit", 5.0)
	v.SetDefault("providers.google_books.max_retries", 2)
	v.SetDefault("providers.google_books.max_results", 40)

	// Provider defaults - Open Library
	v.SetDefault("providers.open_library.enabled", true)
	v.SetDefault("providers.open_library.base_url", "https://openlibrary.org")
	v.SetDefault("providers.open_library.timeout", "15s")
	v.SetDefault("providers.open_library.rate_limit", 3.0)
	v.SetDefault("providers.open_library.max_retries", 2)
	v.SetDefault("providers.open_library.max_results", 40)

	// Provider defaults - Crossref
	v.SetDefault("providers.crossref.enabled", true)
	v.SetDefault("providers.crossref.base_url", "https://api.crossref.org")
	v.SetDefault("providers.crossref.timeout", "15s")
	v.SetDefault("providers.crossref.rate_limit", 5.0)
	v.SetDefault("providers.crossref.max_retries", 2)
	v.SetDefault("providers.crossref.max_results", 40)
	v.SetDefault("providers.crossref.mailto", "")

	// Enrichment defaults. API keys come from the environment (see loadSecrets).
	v.SetDefault("enrichment.provider", EnrichmentNone)
	v.SetDefault("enrichment.timeout", "45s")
	v.SetDefault("enrichment.max_retries", 2)
	v.SetDefault("enrichment.max_output_tokens", 1400)
	v.SetDefault("enrichment.web_search", true)
	v.SetDefault("enrichment.openai.model", "gpt-4.1-mini")
	v.SetDefault("enrichment.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("enrichment.anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("enrichment.anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("enrichment.cache.backend", CacheMemory)
	v.SetDefault("enrichment.cache.size", 512)
	v.SetDefault("enrichment.cache.ttl", "24h")
	v.SetDefault("enrichment.cache.redis.addr", "localhost:6379")
	v.SetDefault("enrichment.cache.redis.db", 0)
	v.SetDefault("enrichment.cache.redis.key_prefix", "bibliomatch:enrich:")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.GRPCPort <= 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.Server.GRPCPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate pipeline limits
	if c.Reconcile.MaxResults < MinMaxResults || c.Reconcile.MaxResults > MaxMaxResults {
		return fmt.Errorf("reconcile max_results must be between %d and %d", MinMaxResults, MaxMaxResults)
	}
	if c.Reconcile.MaxEnrich < 0 || c.Reconcile.MaxEnrich > MaxMaxEnrich {
		return fmt.Errorf("reconcile max_enrich must be between 0 and %d", MaxMaxEnrich)
	}
	if c.Reconcile.FanoutConcurrency < 0 {
		return fmt.Errorf("reconcile fanout_concurrency must not be negative")
	}
	if c.LocalMatcher.TopK <= 0 {
		return fmt.Errorf("local_matcher top_k must be positive")
	}

	// Validate that the selected oracle has its API key set.
	switch strings.ToLower(c.Enrichment.Provider) {
	case "", EnrichmentNone:
	case EnrichmentOpenAI:
		if c.Enrichment.OpenAI.APIKey == "" {
			return fmt.Errorf("enrichment provider %q requires BIBLIOMATCH_ENRICHMENT_OPENAI_API_KEY or OPENAI_API_KEY to be set", c.Enrichment.Provider)
		}
	case EnrichmentAnthropic:
		if c.Enrichment.Anthropic.APIKey == "" {
			return fmt.Errorf("enrichment provider %q requires BIBLIOMATCH_ENRICHMENT_ANTHROPIC_API_KEY to be set", c.Enrichment.Provider)
		}
	default:
		return fmt.Errorf("unsupported enrichment provider: %q", c.Enrichment.Provider)
	}

	switch strings.ToLower(c.Enrichment.Cache.Backend) {
	case "", CacheNone, CacheMemory:
	case CacheRedis:
		if c.Enrichment.Cache.Redis.Addr == "" {
			return fmt.Errorf("enrichment cache backend %q requires an address", c.Enrichment.Cache.Backend)
		}
	default:
		return fmt.Errorf("unsupported enrichment cache backend: %q", c.Enrichment.Cache.Backend)
	}

	return nil
}
