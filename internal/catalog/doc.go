// Package catalog owns release identity, deduplication, and lookup on top of
// an append-only sheet.Table.
//
// Store.Add resolves a series ID for the candidate's title (case- and
// whitespace-insensitive; new titles receive the next AN ordinal), rejects the
// candidate as an exact duplicate when a row with the same series, season,
// episode, quality, and URL already exists, and appends it otherwise. Rows
// that share series, season, episode, and quality but carry a different URL
// are alternate mirrors and are all kept.
//
// Every Add runs its read-check-append sequence under the store's write lock,
// and optionally under an exclusive lock file so separate processes sharing
// one catalog cannot race past the duplicate check. Reads take the shared
// side of the in-process lock.
package catalog
