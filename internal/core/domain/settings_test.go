package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelString(t *testing.T) {
	tests := []struct {
		in       string
		provider AIProvider
		model    string
	}{
		{"ollama:llama3.2", AIProviderOllama, "llama3.2"},
		{"Ollama:llama3.2", AIProviderOllama, "llama3.2"},
		{"claude-3-5-sonnet-latest", "", "claude-3-5-sonnet-latest"},
		{"ollama:my:custom:model", AIProviderOllama, "my:custom:model"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			provider, model := ParseModelString(tt.in)
			assert.Equal(t, tt.provider, provider)
			assert.Equal(t, tt.model, model)
		})
	}
}

func TestSettings_ProviderDefaults(t *testing.T) {
	s := DefaultSettings()

	p, m := s.LLMProvider()
	assert.Equal(t, AIProviderAnthropic, p)
	assert.Equal(t, DefaultLLMModel, m)

	p, m = s.EmbeddingProvider()
	assert.Equal(t, AIProviderOpenAI, p)
	assert.Equal(t, DefaultEmbeddingModel, m)

	s.EmbeddingModel = "ollama:nomic-embed-text"
	p, m = s.EmbeddingProvider()
	assert.Equal(t, AIProviderOllama, p)
	assert.Equal(t, "nomic-embed-text", m)
}

func TestSettings_APIKey(t *testing.T) {
	s := Settings{AnthropicAPIKey: "a", OpenAIAPIKey: "o"}
	assert.Equal(t, "a", s.APIKey(AIProviderAnthropic))
	assert.Equal(t, "o", s.APIKey(AIProviderOpenAI))
	assert.Empty(t, s.APIKey(AIProviderOllama))
}

func TestSettings_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, DefaultSettings().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Settings)
		want   error
	}{
		{"zero chunk size", func(s *Settings) { s.ChunkSize = 0 }, ErrInvalidConfig},
		{"negative overlap", func(s *Settings) { s.ChunkOverlap = -1 }, ErrInvalidConfig},
		{"overlap equals size", func(s *Settings) { s.ChunkOverlap = s.ChunkSize }, ErrInvalidConfig},
		{"zero top k", func(s *Settings) { s.TopK = 0 }, ErrInvalidConfig},
		{"unknown backend", func(s *Settings) { s.Index.Backend = "chroma" }, ErrUnknownProvider},
		{"unknown llm provider", func(s *Settings) { s.LLMModel = "mistral:large" }, ErrUnknownProvider},
		{"unknown embedding provider", func(s *Settings) { s.EmbeddingModel = "cohere:embed" }, ErrUnknownProvider},
		{"no retry attempts", func(s *Settings) { s.Retry.MaxAttempts = 0 }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), tt.want)
		})
	}
}

func TestAIProvider(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.False(t, AIProvider("nope").IsValid())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.Equal(t, "ollama", AIProviderOllama.String())
}
