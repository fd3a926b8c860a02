// Package daemon runs the long-lived animedb process.
//
// It owns the HTTP surface (a chi router exposing upload, search, browse,
// chat, and uploader administration under /api plus Prometheus metrics at
// /metrics) and a flock-based single-instance lock. Catalog semantics live in
// the api and ingest packages; handlers here only decode requests, attach
// request context, and map errors to status codes.
package daemon
