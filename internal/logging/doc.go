// Package logging builds the slog loggers used across psud and centralizes
// attribute helpers and shared field names. Console output is a compact
// timestamped line format; JSON output is for machine consumption. Components
// receive loggers tagged via NewComponentLogger rather than creating their own.
package logging
