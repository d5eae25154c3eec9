// Package lockfile enforces the single-instance rule: one pid file under a
// kernel flock, stale-lock reclamation, and SIGTERM-based termination of
// the recorded holder.
package lockfile
