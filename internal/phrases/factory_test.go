package phrases

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/dissnovelty/internal/config"
)

func TestNewHeuristic(t *testing.T) {
	ex, err := New(config.Extractor{Backend: "heuristic", Stem: true}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "heuristic+stem", ex.Name())
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(config.Extractor{Backend: "spacy"}, "", nil)
	assert.Error(t, err)
}

func TestNewUnavailableOpenAI(t *testing.T) {
	t.Setenv("DISSNOVELTY_TEST_EMPTY_KEY", "")
	_, err := New(config.Extractor{Backend: "openai", APIKeyEnv: "DISSNOVELTY_TEST_EMPTY_KEY"}, "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractorUnavailable))
}

func TestNewUnreachableOllamaDoesNotFallBack(t *testing.T) {
	t.Setenv("DISSNOVELTY_TEST_KEY", "sk-test")
	cfg := config.Extractor{
		Backend:   "ollama",
		OllamaURL: "http://127.0.0.1:1",
		APIKeyEnv: "DISSNOVELTY_TEST_KEY",
	}
	ex, err := New(cfg, "llama3.1:8b", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractorUnavailable))
	assert.Nil(t, ex)
}
