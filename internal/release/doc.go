// Package release defines the catalog's unit of storage and the fixed
// vocabularies every parser and storage backing must preserve verbatim.
//
// # Key Types
//
// Candidate: a parsed listing (title, season, episode, quality, audio, url)
// that has not yet been assigned a series identifier.
//
// Record: a stored row. It adds SeriesID, AddedAt, and Status to a Candidate.
//
// # Normalization
//
// NormalizeQuality, NormalizeAudio, and NormalizeSeasonEpisode are total:
// any input, including empty or garbage strings, maps to a canonical token.
// Absent quality becomes 720p and absent audio becomes Single.
//
// # Entry Points
//
// Validate: check that a Candidate carries every required field.
// EpisodeNumber: extract the numeric part of an E-token for ordering.
// FormatSeriesID/ParseSeriesID: AN-prefixed series identifier codec.
package release
