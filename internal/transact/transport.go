package transact

import "time"

// Transport is the serial link contract the engine drives. The production
// implementation lives in internal/serialport; tests supply scripted fakes.
type Transport interface {
	Write(p []byte) (int, error)
	// Read honors the timeout set by SetReadTimeout and returns n == 0 with a
	// nil error when it elapses without data.
	Read(p []byte) (int, error)
	SetReadTimeout(d time.Duration) error
	// ResetInputBuffer discards unread bytes. Residual bytes from a prior
	// exchange would otherwise surface as the next reply.
	ResetInputBuffer() error
	// Ready reports the state of the flow-control input line.
	Ready() (bool, error)
}
