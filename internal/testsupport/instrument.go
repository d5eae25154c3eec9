package testsupport

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Instrument emulates the power supply at the byte level, so the exchange
// engine, session and daemon can be tested against realistic wire behavior
// including timeouts, residual bytes and stale replies.
type Instrument struct {
	mu sync.Mutex

	// Device state.
	firmware string
	terminal string
	output   bool
	voltage  float64
	current  float64

	// Wire state.
	inbound  []byte
	outbound []byte

	// Fault injection.
	DSR bool
	// DropReplies swallows the next n replies, so reads time out.
	DropReplies int
	// Commands records every complete command line received.
	Commands []string
}

// NewInstrument creates an emulated supply with the P25V terminal selected.
func NewInstrument() *Instrument {
	return &Instrument{
		firmware: "1995.0",
		terminal: "P25V",
		voltage:  2.5,
		current:  0.1,
		DSR:      true,
	}
}

// Preload places residual bytes on the wire ahead of any reply, the way a
// desynced exchange leaves them. ResetInputBuffer discards them.
func (i *Instrument) Preload(data string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.outbound = append([]byte(data), i.outbound...)
}

// Output reports the emulated relay state.
func (i *Instrument) Output() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.output
}

// Voltage reports the programmed voltage.
func (i *Instrument) Voltage() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.voltage
}

func (i *Instrument) Write(b []byte) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.inbound = append(i.inbound, b...)
	for {
		idx := strings.Index(string(i.inbound), "\r\n")
		if idx < 0 {
			return len(b), nil
		}
		line := string(i.inbound[:idx])
		i.inbound = i.inbound[idx+2:]
		i.handle(line)
	}
}

func (i *Instrument) Read(b []byte) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.outbound) == 0 {
		// Emulates a serial read timeout.
		return 0, nil
	}
	n := copy(b, i.outbound[:1])
	i.outbound = i.outbound[n:]
	return n, nil
}

func (i *Instrument) SetReadTimeout(time.Duration) error { return nil }

func (i *Instrument) ResetInputBuffer() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.outbound = nil
	return nil
}

func (i *Instrument) Ready() (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.DSR, nil
}

func (i *Instrument) reply(text string) {
	if i.DropReplies > 0 {
		i.DropReplies--
		return
	}
	i.outbound = append(i.outbound, []byte(text+"\r\n")...)
}

func (i *Instrument) handle(line string) {
	i.Commands = append(i.Commands, line)

	switch {
	case line == "SYST:VERS?":
		i.reply(i.firmware)
	case line == "" || line == "SYST:REM":
	case line == "INST:SEL?":
		i.reply(i.terminal)
	case strings.HasPrefix(line, "INST:SEL "):
		i.terminal = strings.TrimSpace(strings.TrimPrefix(line, "INST:SEL "))
	case line == "OUTP?":
		if i.output {
			i.reply("1")
		} else {
			i.reply("0")
		}
	case line == "OUTP ON":
		i.output = true
	case line == "OUTP OFF":
		i.output = false
	case line == "SOUR:VOLT?":
		i.reply(sci(i.voltage))
	case strings.HasPrefix(line, "SOUR:VOLT "):
		if v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "SOUR:VOLT ")), 64); err == nil {
			i.voltage = v
		}
	case line == "SOUR:CURR?":
		i.reply(sci(i.current))
	case strings.HasPrefix(line, "SOUR:CURR "):
		if v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "SOUR:CURR ")), 64); err == nil {
			i.current = v
		}
	case strings.HasPrefix(line, "MEAS:VOLT? "):
		if i.output {
			i.reply(sci(i.voltage - 0.0015))
		} else {
			i.reply(sci(0))
		}
	case strings.HasPrefix(line, "MEAS:CURR? "):
		if i.output {
			i.reply(sci(0.005894107))
		} else {
			i.reply(sci(0.000001))
		}
	case strings.HasPrefix(line, "APPL? "):
		i.reply(fmt.Sprintf("%q", sci(i.voltage)+","+sci(i.current)))
	case strings.HasPrefix(line, "APPL "):
		fields := strings.Split(strings.TrimPrefix(line, "APPL "), ",")
		if len(fields) == 3 {
			i.terminal = strings.TrimSpace(fields[0])
			if v, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64); err == nil {
				i.voltage = v
			}
			if a, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64); err == nil {
				i.current = a
			}
		}
	}
}

func sci(v float64) string {
	return fmt.Sprintf("%+.8E", v)
}
