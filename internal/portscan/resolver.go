package portscan

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"psud/internal/logging"
)

// ErrNoPort indicates no candidate device answered like the instrument.
var ErrNoPort = errors.New("no instrument port found")

// Resolver produces the serial device path the daemon should open.
type Resolver interface {
	Resolve() (string, error)
}

// Fixed resolves to a configured device path without probing.
type Fixed string

func (f Fixed) Resolve() (string, error) {
	device := strings.TrimSpace(string(f))
	if device == "" {
		return "", fmt.Errorf("%w: empty device path", ErrNoPort)
	}
	return device, nil
}

// Prober opens a candidate device and reports whether the instrument is
// behind it, typically by issuing a firmware version query.
type Prober func(device string) (bool, error)

// Lister enumerates candidate serial devices on the host.
type Lister func() ([]string, error)

// Auto walks the host's serial ports and probes each until one answers with
// a plausible firmware version.
type Auto struct {
	list   Lister
	probe  Prober
	logger *slog.Logger
}

// NewAuto creates a probing resolver.
func NewAuto(list Lister, probe Prober, logger *slog.Logger) *Auto {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Auto{list: list, probe: probe, logger: logger}
}

func (a *Auto) Resolve() (string, error) {
	ports, err := a.list()
	if err != nil {
		return "", fmt.Errorf("enumerate ports: %w", err)
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("%w: no serial ports on host", ErrNoPort)
	}

	for _, device := range ports {
		ok, err := a.probe(device)
		if err != nil {
			a.logger.Debug("probe failed",
				logging.String(logging.FieldDevice, device),
				logging.Error(err))
			continue
		}
		if ok {
			a.logger.Info("instrument found",
				logging.String(logging.FieldDevice, device))
			return device, nil
		}
		a.logger.Debug("no instrument on port",
			logging.String(logging.FieldDevice, device))
	}
	return "", fmt.Errorf("%w: probed %d ports", ErrNoPort, len(ports))
}
