// Package sheet persists catalog rows in an append-only table.
//
// A Table stores rows in insertion order and exposes only two operations:
// read every row, and append one. Three backings are provided: SQLite (the
// default, via modernc.org/sqlite), a CSV file whose header row matches the
// spreadsheet layout the catalog has always used, and an in-memory table for
// tests. Row fields are kept as plain strings so malformed rows written by
// hand survive a round trip; interpretation is left to the catalog package.
package sheet
