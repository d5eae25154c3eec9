// Package transact implements the command/response exchange over a serial
// transport: input flush, soft flow-control wait, a single ASCII command
// line out, and a terminator-delimited reply back within a baud-derived
// deadline, with whole-exchange retries on any fault.
package transact
