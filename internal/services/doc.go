// Package services defines shared utilities consumed by the catalog, ingest,
// and API layers and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, acting users, and operation
//     names for logging and tracing.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified consistently (HTTPStatus maps them to API responses).
//
// The llm subpackage holds the OpenRouter client shared by the parser, query
// interpreter, and chat assistant.
package services
