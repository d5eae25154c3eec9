// Package store persists the daemon's two shared tables in SQLite: the
// single-row state mirror clients read, and the command queue they write.
package store
