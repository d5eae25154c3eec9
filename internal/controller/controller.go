package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"psud/internal/logging"
	"psud/internal/psu"
	"psud/internal/store"
)

// Device is the instrument surface the controller drives. Satisfied by
// *psu.Session.
type Device interface {
	Snapshot() (psu.DeviceState, error)
	SetVoltage(volts float64) (float64, error)
	SetCurrentLimit(amps float64) (float64, error)
	SetPower(on bool) (bool, error)
}

// Controller implements the two scheduler tasks: mirroring device state
// into the store and draining queued commands one per slot.
type Controller struct {
	device Device
	store  *store.Store
	logger *slog.Logger
}

// New creates a controller.
func New(device Device, st *store.Store, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{device: device, store: st, logger: logger}
}

// UpdateTick snapshots the instrument and mirrors the result. A device
// failure propagates so the scheduler can count it toward link loss; a
// store failure only degrades the tick, since the link itself is fine.
func (c *Controller) UpdateTick(ctx context.Context) error {
	state, err := c.device.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := c.store.WriteState(ctx, state); err != nil {
		c.logger.Error("state mirror write failed", logging.Error(err))
		return nil
	}
	return nil
}

// CommandTick executes at most one queued command. The command is closed
// exactly once with an outcome string whether it succeeded or not; a
// command that the instrument rejected must not be retried on the next
// slot.
func (c *Controller) CommandTick(ctx context.Context) error {
	cmd, err := c.store.NextCommand(ctx)
	if err != nil {
		return err
	}
	if cmd == nil {
		return nil
	}

	result := c.execute(cmd)
	c.logger.Info("command handled",
		logging.Int64("id", cmd.ID),
		logging.String("kind", cmd.Kind),
		logging.String("value", cmd.Value),
		logging.String("result", result))

	if err := c.store.CloseCommand(ctx, cmd.ID, result); err != nil {
		return err
	}
	return nil
}

func (c *Controller) execute(cmd *store.Command) string {
	switch cmd.Kind {
	case store.KindSetVoltage:
		volts, err := strconv.ParseFloat(strings.TrimSpace(cmd.Value), 64)
		if err != nil {
			return fmt.Sprintf("bad value %q", cmd.Value)
		}
		got, err := c.device.SetVoltage(volts)
		if err != nil {
			return err.Error()
		}
		return fmt.Sprintf("OK %.3f", got)

	case store.KindSetCurrentLimit:
		amps, err := strconv.ParseFloat(strings.TrimSpace(cmd.Value), 64)
		if err != nil {
			return fmt.Sprintf("bad value %q", cmd.Value)
		}
		got, err := c.device.SetCurrentLimit(amps)
		if err != nil {
			return err.Error()
		}
		return fmt.Sprintf("OK %.3f", got)

	case store.KindSetPower:
		on, err := parseOnOff(cmd.Value)
		if err != nil {
			return fmt.Sprintf("bad value %q", cmd.Value)
		}
		got, err := c.device.SetPower(on)
		if err != nil {
			return err.Error()
		}
		if got {
			return "OK ON"
		}
		return "OK OFF"
	}
	return fmt.Sprintf("unknown command kind %q", cmd.Kind)
}

func parseOnOff(value string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "ON", "1":
		return true, nil
	case "OFF", "0":
		return false, nil
	}
	return false, fmt.Errorf("not an on/off value: %q", value)
}
