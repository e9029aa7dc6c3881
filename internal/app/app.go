// Package app assembles the reconciliation components from configuration. Both
// the server and the CLI build their object graph through it.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/helixir/bibliomatch-service/internal/config"
	"github.com/helixir/bibliomatch-service/internal/enrichment"
	"github.com/helixir/bibliomatch-service/internal/localmatch"
	"github.com/helixir/bibliomatch-service/internal/observability"
	"github.com/helixir/bibliomatch-service/internal/providers"
	"github.com/helixir/bibliomatch-service/internal/providers/crossref"
	"github.com/helixir/bibliomatch-service/internal/providers/googlebooks"
	"github.com/helixir/bibliomatch-service/internal/providers/openlibrary"
	"github.com/helixir/bibliomatch-service/internal/reconcile"
	"github.com/helixir/bibliomatch-service/internal/scoring"
)

// App holds the wired components.
type App struct {
	Registry   *providers.Registry
	Reconciler *reconcile.Service
	// Local is nil when no dataset path is configured.
	Local        *localmatch.Matcher
	LocalOptions localmatch.Options

	redis *redis.Client
}

// Build wires providers, the oracle and its cache, the reconciliation service
// and the local matcher. metrics may be nil.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) (*App, error) {
	a := &App{
		Registry:     providers.NewRegistry(),
		LocalOptions: LocalOptions(cfg.LocalMatcher),
	}
	RegisterProviders(a.Registry, cfg.Providers, logger)

	opts := []reconcile.Option{
		reconcile.WithLogger(logger),
		reconcile.WithMetrics(metrics),
	}
	if cfg.EnrichmentEnabled() {
		oracle, err := a.buildOracle(ctx, cfg.Enrichment, logger, metrics)
		if err != nil {
			a.Close()
			return nil, err
		}
		if oracle != nil {
			opts = append(opts, reconcile.WithOracle(oracle))
		}
	}

	a.Reconciler = reconcile.NewService(a.Registry, reconcile.Config{
		MaxResults:           cfg.Reconcile.MaxResults,
		MaxEnrich:            cfg.Reconcile.MaxEnrich,
		FanoutConcurrency:    cfg.Reconcile.FanoutConcurrency,
		SecondaryConcurrency: cfg.Reconcile.SecondaryConcurrency,
	}, opts...)

	if path := strings.TrimSpace(cfg.LocalMatcher.DataPath); path != "" {
		ds, err := localmatch.LoadWorkbook(path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load local dataset: %w", err)
		}
		a.Local = localmatch.NewMatcher(ds)
		logger.Info().Str("path", path).Int("rows", a.Local.Len()).Msg("local dataset loaded")
	}

	return a, nil
}

// Close releases the cache connection, if any.
func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
}

// RegisterProviders registers every enabled catalog provider.
func RegisterProviders(registry *providers.Registry, cfg config.ProvidersConfig, logger zerolog.Logger) {
	// Google Books.
	if cfg.GoogleBooks.Enabled {
		gbCfg := cfg.GoogleBooks
		registry.Register(googlebooks.New(googlebooks.Config{
			BaseURL:    gbCfg.BaseURL,
			APIKey:     gbCfg.APIKey,
			Timeout:    gbCfg.Timeout,
			RateLimit:  gbCfg.RateLimit,
			MaxRetries: gbCfg.MaxRetries,
			MaxResults: gbCfg.MaxResults,
			Enabled:    true,
		}))
		logger.Info().Msg("registered provider: Google Books")
	}

	// Open Library.
	if cfg.OpenLibrary.Enabled {
		olCfg := cfg.OpenLibrary
		registry.Register(openlibrary.New(openlibrary.Config{
			BaseURL:    olCfg.BaseURL,
			Timeout:    olCfg.Timeout,
			RateLimit:  olCfg.RateLimit,
			MaxRetries: olCfg.MaxRetries,
			MaxResults: olCfg.MaxResults,
			Enabled:    true,
		}))
		logger.Info().Msg("registered provider: Open Library")
	}

	// Crossref.
	if cfg.Crossref.Enabled {
		crCfg := cfg.Crossref
		registry.Register(crossref.New(crossref.Config{
			BaseURL:    crCfg.BaseURL,
			Mailto:     crCfg.Mailto,
			Timeout:    crCfg.Timeout,
			RateLimit:  crCfg.RateLimit,
			MaxRetries: crCfg.MaxRetries,
			MaxResults: crCfg.MaxResults,
			Enabled:    true,
		}))
		logger.Info().Msg("registered provider: Crossref")
	}
}

// LocalOptions maps the matcher configuration to search defaults.
func LocalOptions(cfg config.LocalMatcherConfig) localmatch.Options {
	opts := localmatch.DefaultOptions()
	if cfg.TopK > 0 {
		opts.TopK = cfg.TopK
	}
	opts.Penalties = scoring.PenaltyOptions{
		Author: scoring.PenaltyToggle{Enabled: cfg.AuthorPenalty.Enabled, Factor: cfg.AuthorPenalty.Factor},
		Year:   scoring.PenaltyToggle{Enabled: cfg.YearPenalty.Enabled, Factor: cfg.YearPenalty.Factor},
	}
	return opts
}

func (a *App) buildOracle(
	ctx context.Context,
	cfg config.EnrichmentConfig,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) (enrichment.Oracle, error) {
	oracle, err := enrichment.NewOracle(enrichment.FactoryConfig{
		Provider:   strings.ToLower(cfg.Provider),
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		OpenAI: enrichment.OpenAIConfig{
			APIKey:    cfg.OpenAI.APIKey,
			Model:     cfg.OpenAI.Model,
			BaseURL:   cfg.OpenAI.BaseURL,
			MaxTokens: cfg.MaxOutputTokens,
			WebSearch: cfg.WebSearch,
		},
		Anthropic: enrichment.AnthropicConfig{
			APIKey:    cfg.Anthropic.APIKey,
			Model:     cfg.Anthropic.Model,
			BaseURL:   cfg.Anthropic.BaseURL,
			MaxTokens: cfg.MaxOutputTokens,
			WebSearch: cfg.WebSearch,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create enrichment oracle: %w", err)
	}
	if oracle == nil {
		return nil, nil
	}
	logger.Info().Str("oracle", oracle.Name()).Msg("enrichment oracle configured")

	cache, err := a.buildCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		return oracle, nil
	}

	cached := enrichment.NewCachingOracle(oracle, cache, logger)
	if metrics != nil {
		cached.OnLookup(metrics.RecordEnrichmentCache)
	}
	logger.Info().Str("backend", cfg.Cache.Backend).Msg("enrichment cache configured")
	return cached, nil
}

func (a *App) buildCache(ctx context.Context, cfg config.CacheConfig) (enrichment.Cache, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		return enrichment.NewMemoryCache(cfg.Size, cfg.TTL), nil
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.redis = client
		return enrichment.NewRedisCache(client, cfg.Redis.KeyPrefix, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported enrichment cache backend: %q", cfg.Backend)
	}
}
