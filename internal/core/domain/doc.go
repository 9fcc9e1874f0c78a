// Package domain defines the core business entities for Askbase.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Source: One ingested unit of text (an upload or a scraped page)
//   - Chunk: A bounded span of source text, the unit of embedding and retrieval
//   - IndexEntry: The persisted unit inside a vector index partition
//   - RetrievalResult: The ranked passages returned for one question
//   - Answer: A grounded answer with its supporting citations
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
