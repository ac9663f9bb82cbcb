// Package driving defines the operations the CLI, TUI and MCP server call
// on the core: registering and ingesting reports, evaluating queries,
// managing the company and query catalog, and settings.
//
// Implementations live in internal/core/services.
package driving
