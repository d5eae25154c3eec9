// Package config loads, normalizes, and validates psud's TOML configuration.
//
// A single Config value is constructed at process start and passed into each
// component's constructor; no package reads configuration ambiently. Defaults
// live in defaults.go, environment fallbacks and path expansion in
// normalize.go, and usability checks in validate.go. The embedded
// sample_config.toml documents every key and is written by `psud config init`.
package config
