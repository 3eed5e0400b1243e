package domain

import (
	"fmt"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultLLMModel          = "claude-3-5-sonnet-latest"
	DefaultEmbeddingModel    = "text-embedding-3-small"
	DefaultChunkSize         = 1000
	DefaultChunkOverlap      = 200
	DefaultTopK              = 3
	DefaultEmbeddingBatch    = 2000
	DefaultMaxTokens         = 4096
	DefaultDataDir           = ".rag-cli"
	DefaultCollection        = "rag_cli_docs"
	DefaultOllamaHost        = "http://localhost:11434"
	DefaultQdrantURL         = "http://localhost:6333"
	DefaultRetryMaxAttempts  = 3
	DefaultRetryMinWait      = time.Second
	DefaultRetryMaxWait      = 30 * time.Second
	DefaultProviderRateLimit = 0.0
)

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// ParseModelString splits "provider:model" on the first colon.
// The provider is lower-cased. A bare model name yields an empty provider.
func ParseModelString(s string) (AIProvider, string) {
	provider, model, found := strings.Cut(s, ":")
	if !found {
		return "", s
	}
	return AIProvider(strings.ToLower(provider)), model
}

// ResolveModel parses a model string, falling back to def when no
// provider prefix is present.
func ResolveModel(s string, def AIProvider) (AIProvider, string) {
	provider, model := ParseModelString(s)
	if provider == "" {
		provider = def
	}
	return provider, model
}

// IndexBackend identifies a vector index storage engine.
type IndexBackend string

// Available index backends.
const (
	BackendSQLite   IndexBackend = "sqlite"
	BackendMemory   IndexBackend = "memory"
	BackendPgvector IndexBackend = "pgvector"
	BackendQdrant   IndexBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case BackendSQLite, BackendMemory, BackendPgvector, BackendQdrant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b IndexBackend) String() string {
	return string(b)
}

// RetrySettings controls the provider retry policy.
type RetrySettings struct {
	MaxAttempts int
	MinWait     time.Duration
	MaxWait     time.Duration

	// RateLimit is the maximum provider requests per second, 0 disables it.
	RateLimit float64
}

// IndexSettings selects and configures the vector index.
type IndexSettings struct {
	Backend    IndexBackend
	DataDir    string
	Collection string

	// DSN is the PostgreSQL connection string for pgvector.
	DSN string

	// URL and APIKey address a Qdrant server.
	URL    string
	APIKey string
}

// Settings is the fully resolved runtime configuration.
type Settings struct {
	// LLMModel is a "provider:model" string; bare names use Anthropic.
	LLMModel string

	// EmbeddingModel is a "provider:model" string; bare names use OpenAI.
	EmbeddingModel string

	AnthropicAPIKey string
	OpenAIAPIKey    string
	OllamaHost      string

	ChunkSize      int
	ChunkOverlap   int
	TopK           int
	EmbeddingBatch int
	MaxTokens      int

	Index IndexSettings
	Retry RetrySettings
}

// DefaultSettings returns settings populated with defaults.
func DefaultSettings() Settings {
	return Settings{
		LLMModel:       DefaultLLMModel,
		EmbeddingModel: DefaultEmbeddingModel,
		OllamaHost:     DefaultOllamaHost,
		ChunkSize:      DefaultChunkSize,
		ChunkOverlap:   DefaultChunkOverlap,
		TopK:           DefaultTopK,
		EmbeddingBatch: DefaultEmbeddingBatch,
		MaxTokens:      DefaultMaxTokens,
		Index: IndexSettings{
			Backend:    BackendSQLite,
			DataDir:    DefaultDataDir,
			Collection: DefaultCollection,
			URL:        DefaultQdrantURL,
		},
		Retry: RetrySettings{
			MaxAttempts: DefaultRetryMaxAttempts,
			MinWait:     DefaultRetryMinWait,
			MaxWait:     DefaultRetryMaxWait,
			RateLimit:   DefaultProviderRateLimit,
		},
	}
}

// LLMProvider returns the provider and model used for generation.
func (s Settings) LLMProvider() (AIProvider, string) {
	return ResolveModel(s.LLMModel, AIProviderAnthropic)
}

// EmbeddingProvider returns the provider and model used for embeddings.
func (s Settings) EmbeddingProvider() (AIProvider, string) {
	return ResolveModel(s.EmbeddingModel, AIProviderOpenAI)
}

// APIKey returns the configured key for a provider.
func (s Settings) APIKey(p AIProvider) string {
	switch p {
	case AIProviderAnthropic:
		return s.AnthropicAPIKey
	case AIProviderOpenAI:
		return s.OpenAIAPIKey
	default:
		return ""
	}
}

// Validate checks value ranges. Credentials are checked when a provider
// is constructed so that commands not needing it still run.
func (s Settings) Validate() error {
	if s.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, s.ChunkSize)
	}
	if s.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap must be non-negative, got %d", ErrInvalidConfig, s.ChunkOverlap)
	}
	if s.ChunkOverlap >= s.ChunkSize {
		return fmt.Errorf("%w: chunk overlap (%d) must be less than chunk size (%d)",
			ErrInvalidConfig, s.ChunkOverlap, s.ChunkSize)
	}
	if s.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfig, s.TopK)
	}
	if !s.Index.Backend.IsValid() {
		return fmt.Errorf("%w: index backend %q", ErrUnknownProvider, s.Index.Backend)
	}
	if p, _ := s.LLMProvider(); !p.IsValid() {
		return fmt.Errorf("%w: llm provider %q", ErrUnknownProvider, p)
	}
	if p, _ := s.EmbeddingProvider(); !p.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", ErrUnknownProvider, p)
	}
	if s.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry attempts must be at least 1", ErrInvalidConfig)
	}
	return nil
}
