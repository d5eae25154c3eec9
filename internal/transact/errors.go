package transact

import "errors"

var (
	// ErrTimeout indicates the reply did not arrive within the computed budget.
	ErrTimeout = errors.New("reply timeout")
	// ErrMalformedReply indicates bytes arrived but never formed a terminated line.
	ErrMalformedReply = errors.New("malformed reply")
	// ErrExhausted indicates the exchange failed on every permitted attempt.
	ErrExhausted = errors.New("retries exhausted")
)
