// Package scheduler runs the daemon's two cadences on one goroutine: a
// fast command-drain slot and a slower full-state update, with update
// priority and a consecutive-failure threshold that turns a dead link into
// an orderly shutdown.
package scheduler
