// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentParser: Extracts paragraphs and table columns from PDF bytes
//   - Chunker: Groups paragraphs into overlapping text chunks
//   - IndexStore: Builds, persists and loads chunk and document vector indexes
//   - EmbeddingService: Maps strings to fixed-length vectors
//   - DocumentStore, CompanyStore, QueryStore, EvaluationStore: Record persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - GenerativeService: Text generation. Without it, report years come
//     only from PDF metadata and the document record.
//   - PromptStore: User-editable prompt templates.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
