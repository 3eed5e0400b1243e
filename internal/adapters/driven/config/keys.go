package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// Kind is the value type of a configuration key.
type Kind int

// Value kinds.
const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindDuration
)

// Key describes one configuration key: its dotted name, the environment
// variables that set it (first set wins) and how it maps onto
// domain.Settings.
type Key struct {
	Name   string
	Env    []string
	Kind   Kind
	Secret bool
	Help   string

	get func(s *domain.Settings) string
	set func(s *domain.Settings, v string) error
}

// Config keys.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyLLMModel        = "llm.model"
	KeyLLMMaxTokens    = "llm.max_tokens"
	KeyEmbeddingModel  = "embedding.model"
	KeyEmbeddingBatch  = "embedding.batch_size"
	KeyAnthropicAPIKey = "anthropic.api_key"
	KeyOpenAIAPIKey    = "openai.api_key"
	KeyOllamaHost      = "ollama.host"
	KeyChunkSize       = "chunk.size"
	KeyChunkOverlap    = "chunk.overlap"
	KeyTopK            = "retrieval.top_k"
	KeyIndexBackend    = "index.backend"
	KeyIndexDataDir    = "index.data_dir"
	KeyIndexCollection = "index.collection"
	KeyIndexDSN        = "index.dsn"
	KeyIndexURL        = "index.url"
	KeyIndexAPIKey     = "index.api_key"
	KeyRetryAttempts   = "retry.max_attempts"
	KeyRetryMinWait    = "retry.min_wait"
	KeyRetryMaxWait    = "retry.max_wait"
	KeyRetryRateLimit  = "retry.rate_limit"
)

var keys = []Key{
	stringKey(KeyLLMModel, "provider:model used for answers",
		func(s *domain.Settings) *string { return &s.LLMModel }, "RAG_CLI_MODEL", "RAG_CLI_LLM_MODEL"),
	intKey(KeyLLMMaxTokens, "maximum answer tokens",
		func(s *domain.Settings) *int { return &s.MaxTokens }, "RAG_CLI_MAX_TOKENS"),
	stringKey(KeyEmbeddingModel, "provider:model used for embeddings",
		func(s *domain.Settings) *string { return &s.EmbeddingModel }, "RAG_CLI_EMBEDDING_MODEL"),
	intKey(KeyEmbeddingBatch, "texts per embedding request",
		func(s *domain.Settings) *int { return &s.EmbeddingBatch }, "RAG_CLI_EMBEDDING_BATCH_SIZE"),
	secretKey(KeyAnthropicAPIKey, "Anthropic API key",
		func(s *domain.Settings) *string { return &s.AnthropicAPIKey }, "ANTHROPIC_API_KEY", "RAG_CLI_ANTHROPIC_API_KEY"),
	secretKey(KeyOpenAIAPIKey, "OpenAI API key",
		func(s *domain.Settings) *string { return &s.OpenAIAPIKey }, "OPENAI_API_KEY", "RAG_CLI_OPENAI_API_KEY"),
	stringKey(KeyOllamaHost, "Ollama server URL",
		func(s *domain.Settings) *string { return &s.OllamaHost }, "RAG_CLI_OLLAMA_HOST", "OLLAMA_HOST"),
	intKey(KeyChunkSize, "maximum characters per chunk",
		func(s *domain.Settings) *int { return &s.ChunkSize }, "RAG_CLI_CHUNK_SIZE"),
	intKey(KeyChunkOverlap, "characters shared by consecutive chunks",
		func(s *domain.Settings) *int { return &s.ChunkOverlap }, "RAG_CLI_CHUNK_OVERLAP"),
	intKey(KeyTopK, "results returned per query",
		func(s *domain.Settings) *int { return &s.TopK }, "RAG_CLI_TOP_K"),
	{
		Name: KeyIndexBackend,
		Env:  []string{"RAG_CLI_BACKEND"},
		Kind: KindString,
		Help: "sqlite, memory, pgvector or qdrant",
		get:  func(s *domain.Settings) string { return s.Index.Backend.String() },
		set: func(s *domain.Settings, v string) error {
			b := domain.IndexBackend(strings.ToLower(strings.TrimSpace(v)))
			if !b.IsValid() {
				return fmt.Errorf("%w: index backend %q", domain.ErrUnknownProvider, v)
			}
			s.Index.Backend = b
			return nil
		},
	},
	stringKey(KeyIndexDataDir, "directory for the local index",
		func(s *domain.Settings) *string { return &s.Index.DataDir }, "RAG_CLI_DATA_DIR"),
	stringKey(KeyIndexCollection, "collection name",
		func(s *domain.Settings) *string { return &s.Index.Collection }, "RAG_CLI_COLLECTION"),
	secretKey(KeyIndexDSN, "PostgreSQL DSN for pgvector",
		func(s *domain.Settings) *string { return &s.Index.DSN }, "RAG_CLI_PGVECTOR_DSN", "DATABASE_URL"),
	stringKey(KeyIndexURL, "Qdrant server URL",
		func(s *domain.Settings) *string { return &s.Index.URL }, "RAG_CLI_QDRANT_URL", "QDRANT_URL"),
	secretKey(KeyIndexAPIKey, "Qdrant API key",
		func(s *domain.Settings) *string { return &s.Index.APIKey }, "RAG_CLI_QDRANT_API_KEY", "QDRANT_API_KEY"),
	intKey(KeyRetryAttempts, "attempts per provider call",
		func(s *domain.Settings) *int { return &s.Retry.MaxAttempts }, "RAG_CLI_RETRY_MAX_ATTEMPTS"),
	durationKey(KeyRetryMinWait, "first retry wait",
		func(s *domain.Settings) *time.Duration { return &s.Retry.MinWait }, "RAG_CLI_RETRY_MIN_WAIT"),
	durationKey(KeyRetryMaxWait, "longest retry wait",
		func(s *domain.Settings) *time.Duration { return &s.Retry.MaxWait }, "RAG_CLI_RETRY_MAX_WAIT"),
	{
		Name: KeyRetryRateLimit,
		Env:  []string{"RAG_CLI_RATE_LIMIT"},
		Kind: KindFloat,
		Help: "provider requests per second, 0 for unlimited",
		get: func(s *domain.Settings) string {
			return strconv.FormatFloat(s.Retry.RateLimit, 'g', -1, 64)
		},
		set: func(s *domain.Settings, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || f < 0 {
				return fmt.Errorf("%w: %s must be a non-negative number, got %q", domain.ErrInvalidConfig, KeyRetryRateLimit, v)
			}
			s.Retry.RateLimit = f
			return nil
		},
	},
}

// Keys returns every known configuration key in declaration order.
func Keys() []Key {
	out := make([]Key, len(keys))
	copy(out, keys)
	return out
}

// Lookup finds a key by its dotted name.
func Lookup(name string) (Key, bool) {
	for _, k := range keys {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

func stringKey(name, help string, field func(*domain.Settings) *string, env ...string) Key {
	return Key{
		Name: name,
		Env:  env,
		Kind: KindString,
		Help: help,
		get:  func(s *domain.Settings) string { return *field(s) },
		set: func(s *domain.Settings, v string) error {
			*field(s) = strings.TrimSpace(v)
			return nil
		},
	}
}

func secretKey(name, help string, field func(*domain.Settings) *string, env ...string) Key {
	k := stringKey(name, help, field, env...)
	k.Secret = true
	return k
}

func intKey(name, help string, field func(*domain.Settings) *int, env ...string) Key {
	return Key{
		Name: name,
		Env:  env,
		Kind: KindInt,
		Help: help,
		get:  func(s *domain.Settings) string { return strconv.Itoa(*field(s)) },
		set: func(s *domain.Settings, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrInvalidConfig, name, v)
			}
			*field(s) = n
			return nil
		},
	}
}

func durationKey(name, help string, field func(*domain.Settings) *time.Duration, env ...string) Key {
	return Key{
		Name: name,
		Env:  env,
		Kind: KindDuration,
		Help: help,
		get:  func(s *domain.Settings) string { return field(s).String() },
		set: func(s *domain.Settings, v string) error {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil || d < 0 {
				return fmt.Errorf("%w: %s must be a duration like 2s, got %q", domain.ErrInvalidConfig, name, v)
			}
			*field(s) = d
			return nil
		},
	}
}

// ParseValue validates raw for key and returns the value to persist:
// int for integer keys, float64 for numeric keys and string otherwise.
func ParseValue(name, raw string) (any, error) {
	k, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown key %q", domain.ErrInvalidConfig, name)
	}

	scratch := domain.DefaultSettings()
	if err := k.set(&scratch, raw); err != nil {
		return nil, err
	}

	switch k.Kind {
	case KindInt:
		n, _ := strconv.Atoi(strings.TrimSpace(raw))
		return n, nil
	case KindFloat:
		f, _ := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		return f, nil
	default:
		return k.get(&scratch), nil
	}
}

// MaskSecret hides all but the ends of a credential.
func MaskSecret(v string) string {
	if v == "" {
		return "(not set)"
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "..." + v[len(v)-4:]
}

// formatStored renders a TOML value as the raw string a Key parses.
func formatStored(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
