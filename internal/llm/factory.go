package llm

import (
	"fmt"
	"time"

	"github.com/medlit/pubmed-search-service/internal/domain"
)

// FactoryConfig selects and configures a completion provider.
type FactoryConfig struct {
	// Provider is the provider name, "openai" or "anthropic".
	Provider string
	// Timeout is the HTTP timeout per request.
	Timeout time.Duration
	// MaxRetries is the retry count for transient errors.
	MaxRetries int
	// OpenAI holds OpenAI-specific settings.
	OpenAI OpenAIConfig
	// Anthropic holds Anthropic-specific settings.
	Anthropic AnthropicConfig
}

// NewCompleter creates a Completer for the configured provider. It fails
// when the provider is unknown or the provider's API key is missing.
func NewCompleter(cfg FactoryConfig) (Completer, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, domain.NewMissingCredentialError("PUBMEDSEARCH_LLM_OPENAI_API_KEY")
		}
		return NewOpenAIProvider(cfg.OpenAI, cfg.Timeout, cfg.MaxRetries), nil
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, domain.NewMissingCredentialError("PUBMEDSEARCH_LLM_ANTHROPIC_API_KEY")
		}
		return NewAnthropicProvider(cfg.Anthropic, cfg.Timeout, cfg.MaxRetries), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q (expected openai or anthropic)", cfg.Provider)
	}
}
