package transact

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

const lineTerminator = "\r\n"

// Config holds the link parameters and retry policy for an Engine.
type Config struct {
	BaudRate int
	DataBits int
	StopBits int
	// ParityBit is true when the link frames carry a parity bit.
	ParityBit bool
	// MaxAttempts bounds full-exchange retries per request.
	MaxAttempts int
	// FlowControlWait bounds the soft wait on the readiness line before a write.
	FlowControlWait time.Duration
	// ReadFloor is the minimum reply deadline regardless of the computed budget.
	ReadFloor time.Duration
	// ReplyLimit is the worst-case reply length used for the timing budget and
	// the malformed-reply cutoff.
	ReplyLimit int
}

func (c *Config) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.FlowControlWait <= 0 {
		c.FlowControlWait = 100 * time.Millisecond
	}
	if c.ReplyLimit <= 0 {
		c.ReplyLimit = 48
	}
}

// Request describes one exchange.
type Request struct {
	Command      string
	ExpectsReply bool
	// Validate, when set, is a reply-shape check run on each attempt. A
	// validation failure is treated like a transport fault and re-drives the
	// whole exchange; the readiness line alone cannot be trusted to mean the
	// instrument finished its previous operation.
	Validate func(reply string) error
}

// Result carries the reply and the per-exchange measurements the caller may
// want to report. The engine itself never logs.
type Result struct {
	Reply    string
	Attempts int
	Duration time.Duration
}

// Engine performs single command/response exchanges over a serial transport.
// It owns no command semantics: it sends one ASCII line and optionally waits
// for one ASCII line back, applying the flush/flow-control/retry policy.
type Engine struct {
	port      Transport
	cfg       Config
	frameBits int
	now       func() time.Time
	sleep     func(time.Duration)
}

// New creates an engine over an already-open transport.
func New(port Transport, cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{
		port:      port,
		cfg:       cfg,
		frameBits: FrameBits(cfg.DataBits, cfg.StopBits, cfg.ParityBit),
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// MaxAttempts reports the configured retry ceiling.
func (e *Engine) MaxAttempts() int {
	return e.cfg.MaxAttempts
}

// Do runs one request to completion, retrying the full exchange (flush, wait,
// write, read, validate) on transient failure up to the attempt ceiling.
func (e *Engine) Do(req Request) (Result, error) {
	start := e.now()
	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		reply, err := e.exchange(req)
		if err == nil {
			return Result{Reply: reply, Attempts: attempt, Duration: e.now().Sub(start)}, nil
		}
		lastErr = err
	}
	res := Result{Attempts: e.cfg.MaxAttempts, Duration: e.now().Sub(start)}
	return res, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, e.cfg.MaxAttempts, lastErr)
}

func (e *Engine) exchange(req Request) (string, error) {
	// Residual bytes from a previous exchange come back as this exchange's
	// reply if they are not discarded first.
	if err := e.port.ResetInputBuffer(); err != nil {
		return "", fmt.Errorf("flush input: %w", err)
	}

	e.waitReady()

	if _, err := e.port.Write([]byte(req.Command + lineTerminator)); err != nil {
		return "", fmt.Errorf("write %q: %w", req.Command, err)
	}

	if !req.ExpectsReply {
		return "", nil
	}

	reply, err := e.readReply(len(req.Command))
	if err != nil {
		return "", err
	}
	if req.Validate != nil {
		if err := req.Validate(reply); err != nil {
			return "", err
		}
	}
	return reply, nil
}

// waitReady polls the readiness line until it asserts or the bound elapses.
// The line signals adapter readiness only, so the outcome is advisory; the
// reply-shape check after the read is what actually catches a busy instrument.
func (e *Engine) waitReady() {
	deadline := e.now().Add(e.cfg.FlowControlWait)
	for {
		ready, err := e.port.Ready()
		if ready || err != nil {
			return
		}
		if !e.now().Before(deadline) {
			return
		}
		e.sleep(5 * time.Millisecond)
	}
}

func (e *Engine) readReply(commandLen int) (string, error) {
	budget := e.replyBudget(commandLen)
	deadline := e.now().Add(budget)

	var line []byte
	chunk := make([]byte, 1)
	for {
		remaining := deadline.Sub(e.now())
		if remaining <= 0 {
			return "", fmt.Errorf("%w after %v", ErrTimeout, budget)
		}
		if err := e.port.SetReadTimeout(remaining); err != nil {
			return "", fmt.Errorf("set read timeout: %w", err)
		}
		n, err := e.port.Read(chunk)
		if err != nil {
			return "", fmt.Errorf("read reply: %w", err)
		}
		if n == 0 {
			return "", fmt.Errorf("%w after %v", ErrTimeout, budget)
		}
		line = append(line, chunk[:n]...)
		if bytes.HasSuffix(line, []byte(lineTerminator)) {
			return strings.TrimSuffix(string(line), lineTerminator), nil
		}
		if len(line) > e.cfg.ReplyLimit+len(lineTerminator) {
			return "", fmt.Errorf("%w: %d bytes without terminator", ErrMalformedReply, len(line))
		}
	}
}
