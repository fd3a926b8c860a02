// Package notifications delivers catalog activity events via pluggable
// notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Events fall into three groups (uploads, errors, and general
// activity) that can each be switched off in config.
//
// Callers depend only on the Service interface.
package notifications
