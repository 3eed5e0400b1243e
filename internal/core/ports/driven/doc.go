// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - EmbeddingProvider: turns texts into vectors (OpenAI, Ollama)
//   - LLMService: generates answers (Anthropic, OpenAI, Ollama)
//   - VectorIndex: content-addressed vector storage (SQLite, memory, pgvector, Qdrant)
//   - IndexRunStore: history of indexing passes
//   - Chunker: splits document text into segments
//   - Connector: reads raw documents from a directory tree
//   - Normaliser / NormaliserRegistry: extracts text from raw documents
//   - ConfigStore: persisted key/value configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
