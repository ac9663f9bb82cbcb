// Package services holds the ingestion and retrieval core: the
// IngestionPipeline that turns PDF bytes into persisted chunk and document
// indexes, the RetrievalProcessor that answers a query from them, report
// year inference, and the services the CLI and MCP server drive
// (documents, catalog, evaluations, settings, the ingestion queue).
//
// Services depend only on ports; adapters are injected at startup.
package services
