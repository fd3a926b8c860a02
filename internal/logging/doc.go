// Package logging assembles structured slog loggers and formatting helpers used
// across animedb services.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handlers can
// automatically tag log lines with request IDs, acting users, and operation
// names. When a log directory is configured, every record is also written as
// JSON to a size-rotated file (lumberjack) alongside the console stream. The
// package provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
