// Package parser turns free-form, human-typed release listings into
// release.Candidate values.
//
// # Pipeline
//
// Segments splits a pasted block into logical entries: a line that starts with
// an ordinal marker ("12.") opens a new entry and any other non-blank line is
// appended to the current one, so links on their own line stay attached.
//
// ParseEntry extracts the six fields from one entry. Each field is located by
// an ordered list of matchers tried in priority order; the first match wins
// and its text is removed from the working string before the next field is
// attempted, so a resolution is never mistaken for part of the title.
//
// BulkParser first asks an LLM for a structured list. When the model is
// unavailable, times out, returns malformed JSON, or returns nothing usable,
// the whole block is reparsed with Segments plus ParseEntry. The two paths
// never mix within a call; Outcome.Provenance records which one produced the
// records.
//
// # Failure Policy
//
// A malformed entry (no link, no season/episode, title too short) is dropped
// and reported through Outcome.Rejected; it never aborts the remaining entries.
package parser
