// Package psu speaks the power supply's SCPI dialect: command strings,
// reply parsing, set-with-readback operations, and atomic full-state
// snapshots over a transact exchange engine.
package psu
