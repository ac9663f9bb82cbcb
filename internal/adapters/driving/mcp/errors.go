// Package mcp provides an MCP (Model Context Protocol) server adapter for reportrag.
// It lets AI assistants run evaluations and register reports.
package mcp

import "errors"

// ErrMissingEvaluationService is returned when the evaluation service is not provided.
var ErrMissingEvaluationService = errors.New("mcp: evaluation service is required")
