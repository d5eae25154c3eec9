// Package controller ties the store to the instrument session: the update
// task mirrors full snapshots into the state row, the command task drains
// one queued command per slot and records its outcome.
package controller
