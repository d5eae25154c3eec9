// Package testsupport provides shared fixtures for tests: temp-dir configs,
// store helpers, a manual clock, and a byte-level instrument emulator.
package testsupport
