package phrases

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/TobiSchelling/dissnovelty/internal/llm"
)

const chunkPrompt = `You are a German linguist preparing dissertation titles (1890-1912) for corpus analysis.

List every noun chunk of the title below, in order of appearance. For each chunk:
- lemmatise every word (nominative singular for nouns, base form for adjectives),
- drop a leading article or determiner,
- keep bracket and quote characters as separate tokens,
- separate tokens with single spaces.

Title: %s

Respond with ONLY this JSON:
{"noun_chunks": ["chunk 1", "chunk 2"]}`

// LLMExtractor asks a language model to chunk and lemmatise titles.
type LLMExtractor struct {
	provider  llm.Provider
	name      string
	limiter   *rate.Limiter
	maxTokens int
}

// NewLLMExtractor wraps provider. requestsPerSecond <= 0 disables throttling.
func NewLLMExtractor(provider llm.Provider, name string, requestsPerSecond float64) *LLMExtractor {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &LLMExtractor{
		provider:  provider,
		name:      name,
		limiter:   limiter,
		maxTokens: 512,
	}
}

// Name implements Extractor.
func (e *LLMExtractor) Name() string { return e.name }

// Version fingerprints the chunking prompt.
func (e *LLMExtractor) Version() string { return rulesVersion(chunkPrompt) }

// Extract implements Extractor. A response that is not the expected JSON
// object is an error: guessing would silently change novelty verdicts.
func (e *LLMExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := e.provider.Generate(ctx, fmt.Sprintf(chunkPrompt, text), e.maxTokens)
	if err != nil {
		return nil, err
	}

	parsed := llm.ParseJSONResponse(resp)
	if parsed == nil {
		return nil, fmt.Errorf("unparseable chunker response for %q", text)
	}
	if _, ok := parsed["noun_chunks"]; !ok {
		return nil, fmt.Errorf("chunker response for %q lacks noun_chunks", text)
	}

	chunks := llm.StringList(parsed, "noun_chunks")
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		words := strings.Fields(c)
		kept := words[:0]
		for _, w := range words {
			if w != "--" {
				kept = append(kept, w)
			}
		}
		out = append(out, strings.Join(kept, " "))
	}
	return out, nil
}
