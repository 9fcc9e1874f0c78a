// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - VectorIndex: Tenant-partitioned vector storage and similarity search
//   - EmbeddingService: Maps text to fixed-dimension vectors
//   - LLMService: Generates grounded answers from assembled prompts
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SourceStore: Source registry persistence. Without it, source
//     listing and withdrawal are unavailable but ingest/query still work.
//   - AuditStore: Audit event persistence. Pipeline correctness never
//     depends on it.
//   - PromptStore: User-editable prompt templates. Without it, embedded
//     defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
