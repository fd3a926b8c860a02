// Package llm provides an OpenRouter chat client shared by every AI-assisted
// feature.
//
// This package is used by:
//   - Bulk upload parsing: extract structured episode lists from pasted text
//   - Search: interpret natural-language queries into catalog filters
//   - Assistant: free-text anime recommendations and chat
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive a JSON response.
// Client.Chat: send a multi-turn conversation, receive free text.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode model output, tolerating code fences and chatter.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty replies and network
// timeouts with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). A Retry-After header replaces the computed delay. Final errors
// carry services markers: ErrTimeout, ErrTransient for 408/429/5xx, and
// ErrExternalTool otherwise.
// Context cancellation aborts retries immediately. WithRateLimit adds a
// client-side request budget shared by all callers of one Client.
//
// # Fallback
//
// Callers must treat every error as "model unavailable" and fall back to
// their deterministic path; nothing in the catalog depends on the model.
package llm
