package psu

import "errors"

var (
	// ErrParse indicates a reply that does not match the expected shape.
	ErrParse = errors.New("unparseable reply")

	// ErrStaleReply indicates a reply byte-identical to the one returned for
	// a different preceding query, meaning the instrument answered the old
	// question.
	ErrStaleReply = errors.New("stale reply")

	// ErrReadback indicates a set command whose confirming read did not
	// return the value just written.
	ErrReadback = errors.New("readback mismatch")

	// ErrTerminal indicates the instrument has a different output terminal
	// selected than the one configured.
	ErrTerminal = errors.New("unexpected terminal selected")

	// ErrFirmware indicates a version reply that does not look like
	// instrument firmware, usually meaning the wrong device is on the port.
	ErrFirmware = errors.New("unrecognized firmware version")
)
