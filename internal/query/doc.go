// Package query turns free-text lookups into catalog filters.
//
// Interpreter asks the LLM for a JSON filter first, listing a bounded number
// of known titles as hints. When the model is disabled, slow, or returns
// something unusable, a pattern interpreter extracts season, episode,
// quality, and audio terms itself and resolves whatever text remains against
// the known titles. Either way the resulting filter values are normalized to
// the catalog's vocabulary so they match stored rows.
package query
