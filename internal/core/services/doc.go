// Package services implements the core use cases of rag-cli.
//
// Services depend only on the domain and on port interfaces. Concrete
// adapters are injected by the composition root (cmd/rag).
//
//   - Embedder: batches texts into provider-sized calls
//   - IndexingPipeline: chunk, dedup, embed and store documents
//   - Retriever: embed a query and search the vector index
//   - AskService: retrieve context and generate a grounded answer
//   - DocumentLoader: read and normalise documents from a directory
//   - Watcher: re-index files as they change
package services
