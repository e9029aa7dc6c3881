package enrichment

import (
	"fmt"
	"time"
)

// FactoryConfig holds the parameters needed to create an Oracle. It is defined
// here so the package does not import config.
type FactoryConfig struct {
	// Provider is "openai", "anthropic", or "none"/"" to disable enrichment.
	Provider   string
	Timeout    time.Duration
	MaxRetries int
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
}

// NewOracle builds the configured oracle. A disabled provider yields a nil
// Oracle and no error.
func NewOracle(cfg FactoryConfig) (Oracle, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai oracle requires an API key")
		}
		return NewOpenAIOracle(cfg.OpenAI, cfg.Timeout, cfg.MaxRetries), nil
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("anthropic oracle requires an API key")
		}
		return NewAnthropicOracle(cfg.Anthropic, cfg.Timeout, cfg.MaxRetries), nil
	default:
		return nil, fmt.Errorf("unsupported enrichment provider: %q", cfg.Provider)
	}
}
