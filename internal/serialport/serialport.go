package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"psud/internal/config"
)

// Port adapts a go.bug.st serial device to the transact.Transport surface.
// Ready maps to the DSR modem line.
type Port struct {
	port serial.Port
	name string
}

// ModeFromConfig translates the serial section of the config into a port
// mode. The config has already been validated, but the mapping still rejects
// values it cannot express.
func ModeFromConfig(cfg config.Serial) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
	}
	switch cfg.Parity {
	case "none":
		mode.Parity = serial.NoParity
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", cfg.Parity)
	}
	switch cfg.StopBits {
	case 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", cfg.StopBits)
	}
	return mode, nil
}

// Open opens the named device with the configured link parameters.
func Open(device string, cfg config.Serial) (*Port, error) {
	mode, err := ModeFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	return &Port{port: port, name: device}, nil
}

// Name returns the device path.
func (p *Port) Name() string {
	return p.name
}

func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Read returns n == 0 with a nil error when the read timeout elapses.
func (p *Port) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *Port) SetReadTimeout(d time.Duration) error {
	return p.port.SetReadTimeout(d)
}

func (p *Port) ResetInputBuffer() error {
	return p.port.ResetInputBuffer()
}

// Ready reports the DSR line. Adapters without modem lines surface an error
// here; the exchange engine stops waiting and writes anyway, since the line
// is advisory.
func (p *Port) Ready() (bool, error) {
	bits, err := p.port.GetModemStatusBits()
	if err != nil {
		return false, fmt.Errorf("modem status: %w", err)
	}
	return bits.DSR, nil
}

func (p *Port) Close() error {
	return p.port.Close()
}

// List enumerates the serial devices present on the host.
func List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
