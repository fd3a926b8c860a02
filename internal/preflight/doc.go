// Package preflight provides readiness checks for the filesystem paths,
// catalog storage, and external services animedb depends on.
//
// These checks run in two contexts:
//   - "animedb serve" calls RunAll at startup and refuses to start when the
//     data directory or catalog is unusable.
//   - "animedb doctor" prints every result, including the optional LLM and
//     notification checks.
//
// Each service check is gated by its config toggle; disabled features are
// reported but never fail.
package preflight
