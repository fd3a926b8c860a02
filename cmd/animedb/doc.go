// Command animedb manages an anime release catalog from the terminal.
//
// One-shot commands (upload, search, titles, chat, doctor, test-notify) open
// the catalog directly; serve runs the HTTP daemon. Every command reads the
// same TOML configuration, selected with --config or found at the default
// location.
package main
