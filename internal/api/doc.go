// Package api defines wire-format types and the catalog service shared by the
// HTTP server and the CLI.
//
// # Key Types
//
// Service: search, browse, chat, and uploader administration on top of the
// catalog, query interpreter, and assistant sessions. Every surface goes
// through it so notifications and metrics are recorded the same way.
//
// Release: transport representation of a stored catalog row.
//
// SearchResult, ChatResult, UploadResponse: response payloads.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Timestamps
// use RFC3339 with milliseconds; rows without a parseable added date omit it.
package api
