package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"psud/internal/config"
	"psud/internal/controller"
	"psud/internal/lockfile"
	"psud/internal/logging"
	"psud/internal/portscan"
	"psud/internal/psu"
	"psud/internal/scheduler"
	"psud/internal/serialport"
	"psud/internal/store"
	"psud/internal/transact"
)

// Port is the serial device surface the daemon drives.
type Port interface {
	transact.Transport
	Close() error
}

// Daemon owns the full lifecycle: single-instance lock, store, serial
// session, and the scheduler that ties them together. Everything is
// acquired in Run and torn down in reverse on the way out.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	openPort  func(device string, cfg config.Serial) (Port, error)
	listPorts func() ([]string, error)
	clock     scheduler.Clock
}

// Option adjusts daemon construction.
type Option func(*Daemon)

// WithPortOpener substitutes how serial devices are opened.
func WithPortOpener(open func(device string, cfg config.Serial) (Port, error)) Option {
	return func(d *Daemon) { d.openPort = open }
}

// WithPortLister substitutes host port enumeration.
func WithPortLister(list func() ([]string, error)) Option {
	return func(d *Daemon) { d.listPorts = list }
}

// WithClock substitutes the scheduler's time source.
func WithClock(c scheduler.Clock) Option {
	return func(d *Daemon) { d.clock = c }
}

// New creates a daemon. Nothing is opened until Run.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Daemon {
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:    cfg,
		logger: logger,
		openPort: func(device string, serialCfg config.Serial) (Port, error) {
			return serialport.Open(device, serialCfg)
		},
		listPorts: serialport.List,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run brings the daemon up and drives it until ctx is cancelled or the
// instrument link is declared lost. It returns nil on a clean shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	lock, err := lockfile.Acquire(d.cfg.Daemon.LockFile)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			d.logger.Error("lock release failed", logging.Error(err))
		}
	}()

	st, err := store.Open(d.cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			d.logger.Error("store close failed", logging.Error(err))
		}
	}()
	// The state row must not outlive the daemon: a reader finding it can
	// assume the snapshot is live.
	defer func() {
		if err := st.ClearState(context.Background()); err != nil {
			d.logger.Error("state clear failed", logging.Error(err))
		}
	}()

	device, err := d.resolveDevice()
	if err != nil {
		return fmt.Errorf("resolve serial device: %w", err)
	}

	port, err := d.openPort(device, d.cfg.Serial)
	if err != nil {
		return fmt.Errorf("open serial device: %w", err)
	}
	defer func() {
		if err := port.Close(); err != nil {
			d.logger.Error("port close failed", logging.Error(err))
		}
	}()

	eng := transact.New(port, d.engineConfig())
	sess := psu.NewSession(eng, psu.DefaultCommandSet(), d.cfg.PSU.Terminal,
		logging.NewComponentLogger(d.logger, "session"))

	version, err := sess.Initialize(d.cfg.PSU.DefaultVoltage, d.cfg.PSU.DefaultCurrentLimit)
	if err != nil {
		return fmt.Errorf("initialize instrument: %w", err)
	}
	d.logger.Info("instrument ready",
		logging.String(logging.FieldDevice, device),
		logging.String("firmware", version),
		logging.String("terminal", d.cfg.PSU.Terminal))

	hotplug := portscan.NewHotplugMonitor(device, d.logger, nil)
	if err := hotplug.Start(ctx); err != nil {
		d.logger.Warn("hotplug monitor unavailable", logging.Error(err))
	}
	defer hotplug.Stop()

	ctrl := controller.New(sess, st, logging.NewComponentLogger(d.logger, "controller"))

	var schedOpts []scheduler.Option
	if d.clock != nil {
		schedOpts = append(schedOpts, scheduler.WithClock(d.clock))
	}
	updateInterval := d.calibratedUpdateInterval()
	sched := scheduler.New(scheduler.Config{
		CommandInterval:  d.cfg.CommandInterval(),
		UpdateInterval:   updateInterval,
		TriggerWindow:    d.cfg.TriggerWindow(),
		FailureThreshold: d.cfg.Daemon.FailureThreshold,
	}, ctrl.UpdateTick, ctrl.CommandTick,
		logging.NewComponentLogger(d.logger, "scheduler"), schedOpts...)

	d.logger.Info("daemon running",
		logging.Duration("command_interval", d.cfg.CommandInterval()),
		logging.Duration("update_interval", updateInterval))

	runErr := sched.Run(ctx)
	if errors.Is(runErr, scheduler.ErrLinkLost) {
		d.logger.Error("shutting down", logging.Error(runErr))
	} else {
		d.logger.Info("shutting down")
	}
	return runErr
}

func (d *Daemon) resolveDevice() (string, error) {
	if strings.EqualFold(strings.TrimSpace(d.cfg.Serial.Device), "auto") {
		resolver := portscan.NewAuto(d.listPorts, d.probePort,
			logging.NewComponentLogger(d.logger, "portscan"))
		return resolver.Resolve()
	}
	return portscan.Fixed(d.cfg.Serial.Device).Resolve()
}

// probePort asks a candidate device for its firmware version with a single
// attempt. Any failure just means the instrument is not there.
func (d *Daemon) probePort(device string) (bool, error) {
	port, err := d.openPort(device, d.cfg.Serial)
	if err != nil {
		return false, err
	}
	defer port.Close()

	cfg := d.engineConfig()
	cfg.MaxAttempts = 1
	eng := transact.New(port, cfg)

	res, err := eng.Do(transact.Request{
		Command:      psu.DefaultCommandSet().Version,
		ExpectsReply: true,
	})
	if err != nil {
		return false, nil
	}
	return psu.ValidFirmware(res.Reply), nil
}

// One query and its engineering-notation reply, terminators included,
// average 27 characters on the wire.
const exchangeChars = 27

// snapshotExchanges is the number of queries one update cycle issues.
const snapshotExchanges = 6

// calibratedUpdateInterval derives the update cadence the link can actually
// sustain: the full-snapshot transfer time stretched by the command slots
// that fire inside it. The configured interval acts as a floor, so the
// default cadence survives unless the link is too slow to honor it.
func (d *Daemon) calibratedUpdateInterval() time.Duration {
	frame := transact.FrameBits(d.cfg.Serial.DataBits, d.cfg.Serial.StopBits, d.cfg.Serial.Parity != "none")
	slotCost := transact.TransferTime(d.cfg.Serial.BaudRate, frame, exchangeChars)
	snapshotCost := transact.TransferTime(d.cfg.Serial.BaudRate, frame, snapshotExchanges*exchangeChars)
	calibrated := scheduler.CalibrateUpdateInterval(snapshotCost, slotCost, d.cfg.CommandInterval())
	if calibrated <= d.cfg.UpdateInterval() {
		return d.cfg.UpdateInterval()
	}
	d.logger.Warn("configured update interval too short for this link",
		logging.Duration("configured", d.cfg.UpdateInterval()),
		logging.Duration("effective", calibrated),
		logging.Duration("snapshot_cost", snapshotCost))
	return calibrated
}

func (d *Daemon) engineConfig() transact.Config {
	return transact.Config{
		BaudRate:        d.cfg.Serial.BaudRate,
		DataBits:        d.cfg.Serial.DataBits,
		StopBits:        d.cfg.Serial.StopBits,
		ParityBit:       d.cfg.Serial.Parity != "none",
		MaxAttempts:     d.cfg.PSU.MaxAttempts,
		FlowControlWait: d.cfg.FlowControlTimeout(),
		ReadFloor:       d.cfg.ReadTimeout(),
	}
}
