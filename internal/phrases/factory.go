package phrases

import (
	"fmt"
	"time"

	"github.com/TobiSchelling/dissnovelty/internal/config"
	"github.com/TobiSchelling/dissnovelty/internal/llm"
)

// New builds the configured extractor wrapped in a cache. An LLM backend
// that cannot be reached yields ErrExtractorUnavailable; there is no
// fallback to another backend, so a run never changes its model silently.
func New(cfg config.Extractor, model string, store Store) (*CachedExtractor, error) {
	var inner Extractor
	switch cfg.Backend {
	case "", "heuristic":
		inner = NewHeuristicExtractor(cfg.Stem)
	case "ollama", "openai":
		provider := llm.CreateProvider(cfg.Backend, model, cfg.OllamaURL, cfg.OpenAIModel, cfg.APIKeyEnv, false)
		if provider == nil {
			return nil, fmt.Errorf("%w: backend %s", ErrExtractorUnavailable, cfg.Backend)
		}
		inner = NewLLMExtractor(provider, providerName(provider), cfg.RequestsPerSecond)
	default:
		return nil, fmt.Errorf("unknown extractor backend %q", cfg.Backend)
	}

	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour
	return NewCachedExtractor(inner, store, ttl), nil
}

func providerName(p llm.Provider) string {
	switch v := p.(type) {
	case *llm.OllamaProvider:
		return "ollama/" + v.Model
	case *llm.OpenAIProvider:
		return "openai/" + v.Model
	default:
		return fmt.Sprintf("%T", p)
	}
}
