// Package sqlite provides the default persistent vector index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A single database file holds:
//
//   - records: chunk text, JSON metadata and float32 embeddings per collection
//   - index_runs: history of indexing passes
//
// Nearest-neighbour queries are brute force: a registered scalar SQL function
// computes cosine distance for every record and SQLite orders and limits the
// result.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at .rag-cli/index.db in the working directory.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
