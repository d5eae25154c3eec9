package psu

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"psud/internal/logging"
	"psud/internal/transact"
)

// Set commands are confirmed by reading the value back. The instrument
// quantizes, so the comparison carries a small tolerance.
const readbackTolerance = 5e-3

// Exchanger runs one command/response exchange. Satisfied by
// *transact.Engine.
type Exchanger interface {
	Do(req transact.Request) (transact.Result, error)
}

// Session speaks the instrument's command dialect over an exchange engine.
// It is not safe for concurrent use; the scheduler serializes access.
type Session struct {
	exch     Exchanger
	cmds     CommandSet
	terminal string
	logger   *slog.Logger

	// Last completed query and its reply, kept to detect the instrument
	// answering a previous question after a desync.
	lastQuery string
	lastReply string
}

// NewSession creates a session bound to one output terminal.
func NewSession(exch Exchanger, cmds CommandSet, terminal string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		exch:     exch,
		cmds:     cmds,
		terminal: terminal,
		logger:   logger,
	}
}

// Initialize verifies the link end to end and programs the configured
// defaults: wake the link, probe the firmware, switch to remote mode, power
// the output on with confirm, select the terminal with confirm, and apply the
// default voltage and current limit with readback. It returns the firmware
// version string.
func (s *Session) Initialize(defaultVoltage, defaultCurrent float64) (string, error) {
	// A bare terminator settles the instrument's parser after a
	// half-written command from a previous run.
	if err := s.send(""); err != nil {
		return "", fmt.Errorf("wake link: %w", err)
	}
	version, err := s.Version()
	if err != nil {
		return "", fmt.Errorf("probe firmware: %w", err)
	}
	if !ValidFirmware(version) {
		return "", fmt.Errorf("%w: %q", ErrFirmware, version)
	}
	if err := s.send(s.cmds.Remote); err != nil {
		return "", fmt.Errorf("set remote mode: %w", err)
	}
	if _, err := s.SetPower(true); err != nil {
		return "", fmt.Errorf("enable output: %w", err)
	}
	if err := s.send(s.cmds.selectTerminal(s.terminal)); err != nil {
		return "", fmt.Errorf("select terminal: %w", err)
	}
	selected, err := s.ReadTerminal()
	if err != nil {
		return "", fmt.Errorf("confirm terminal: %w", err)
	}
	if selected != s.terminal {
		return "", fmt.Errorf("%w: asked for %s, got %s", ErrTerminal, s.terminal, selected)
	}
	if err := s.send(s.cmds.apply(s.terminal, defaultVoltage, defaultCurrent)); err != nil {
		return "", fmt.Errorf("apply defaults: %w", err)
	}
	volts, amps, err := s.ReadSettings()
	if err != nil {
		return "", fmt.Errorf("confirm defaults: %w", err)
	}
	if !near(volts, defaultVoltage) || !near(amps, defaultCurrent) {
		return "", fmt.Errorf("%w: applied %.3fV/%.3fA, read %.3fV/%.3fA",
			ErrReadback, defaultVoltage, defaultCurrent, volts, amps)
	}
	return version, nil
}

// Version queries the instrument firmware version.
func (s *Session) Version() (string, error) {
	return s.query(s.cmds.Version, nil)
}

// ReadPower queries the output relay state.
func (s *Session) ReadPower() (bool, error) {
	reply, err := s.query(s.cmds.OutputQuery, validateOutput)
	if err != nil {
		return false, err
	}
	return parseOutput(reply)
}

// SetPower switches the output relay and confirms by readback.
func (s *Session) SetPower(on bool) (bool, error) {
	cmd := s.cmds.OutputOff
	if on {
		cmd = s.cmds.OutputOn
	}
	if err := s.send(cmd); err != nil {
		return false, err
	}
	got, err := s.ReadPower()
	if err != nil {
		return false, err
	}
	if got != on {
		return got, fmt.Errorf("%w: output set %v, read %v", ErrReadback, on, got)
	}
	return got, nil
}

// ReadVoltageSetting queries the programmed output voltage.
func (s *Session) ReadVoltageSetting() (float64, error) {
	reply, err := s.query(s.cmds.VoltageQuery, validateDecimal)
	if err != nil {
		return 0, err
	}
	return parseDecimal(reply)
}

// SetVoltage programs the output voltage and confirms by readback.
func (s *Session) SetVoltage(volts float64) (float64, error) {
	if err := s.send(s.cmds.voltageSet(volts)); err != nil {
		return 0, err
	}
	got, err := s.ReadVoltageSetting()
	if err != nil {
		return 0, err
	}
	if !near(got, volts) {
		return got, fmt.Errorf("%w: voltage set %.3f, read %.3f", ErrReadback, volts, got)
	}
	return got, nil
}

// ReadCurrentLimit queries the programmed current limit.
func (s *Session) ReadCurrentLimit() (float64, error) {
	reply, err := s.query(s.cmds.CurrentQuery, validateDecimal)
	if err != nil {
		return 0, err
	}
	return parseDecimal(reply)
}

// SetCurrentLimit programs the current limit and confirms by readback.
func (s *Session) SetCurrentLimit(amps float64) (float64, error) {
	if err := s.send(s.cmds.currentSet(amps)); err != nil {
		return 0, err
	}
	got, err := s.ReadCurrentLimit()
	if err != nil {
		return 0, err
	}
	if !near(got, amps) {
		return got, fmt.Errorf("%w: current limit set %.3f, read %.3f", ErrReadback, amps, got)
	}
	return got, nil
}

// ReadSettings queries the programmed voltage and current limit as a pair.
func (s *Session) ReadSettings() (volts, amps float64, err error) {
	reply, err := s.query(fmt.Sprintf(s.cmds.ApplyQuery, s.terminal), validatePair)
	if err != nil {
		return 0, 0, err
	}
	return parsePair(reply)
}

// ReadMeasuredVoltage queries the measured terminal voltage.
func (s *Session) ReadMeasuredVoltage() (float64, error) {
	reply, err := s.query(s.cmds.measureVoltage(s.terminal), validateDecimal)
	if err != nil {
		return 0, err
	}
	return parseDecimal(reply)
}

// ReadMeasuredCurrent queries the measured output current.
func (s *Session) ReadMeasuredCurrent() (float64, error) {
	reply, err := s.query(s.cmds.measureCurrent(s.terminal), validateDecimal)
	if err != nil {
		return 0, err
	}
	return parseDecimal(reply)
}

// ReadTerminal queries the selected output terminal.
func (s *Session) ReadTerminal() (string, error) {
	reply, err := s.query(s.cmds.TerminalQuery, func(reply string) error {
		if strings.TrimSpace(reply) == "" {
			return fmt.Errorf("%w: empty terminal name", ErrParse)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// Snapshot reads the full device state in a fixed order. Any failed read
// fails the snapshot as a whole; no partial state is returned.
func (s *Session) Snapshot() (DeviceState, error) {
	var state DeviceState
	var err error

	if state.Output, err = s.ReadPower(); err != nil {
		return DeviceState{}, fmt.Errorf("read output state: %w", err)
	}
	if state.VoltageSetting, err = s.ReadVoltageSetting(); err != nil {
		return DeviceState{}, fmt.Errorf("read voltage setting: %w", err)
	}
	if state.CurrentLimit, err = s.ReadCurrentLimit(); err != nil {
		return DeviceState{}, fmt.Errorf("read current limit: %w", err)
	}
	if state.MeasuredVoltage, err = s.ReadMeasuredVoltage(); err != nil {
		return DeviceState{}, fmt.Errorf("read measured voltage: %w", err)
	}
	if state.MeasuredCurrent, err = s.ReadMeasuredCurrent(); err != nil {
		return DeviceState{}, fmt.Errorf("read measured current: %w", err)
	}
	if state.Terminal, err = s.ReadTerminal(); err != nil {
		return DeviceState{}, fmt.Errorf("read terminal: %w", err)
	}
	if state.Terminal != s.terminal {
		return DeviceState{}, fmt.Errorf("%w: expected %s, instrument has %s",
			ErrTerminal, s.terminal, state.Terminal)
	}
	state.TakenAt = time.Now()
	return state, nil
}

func (s *Session) query(cmd string, shape func(string) error) (string, error) {
	prevQuery, prevReply := s.lastQuery, s.lastReply
	res, err := s.exch.Do(transact.Request{
		Command:      cmd,
		ExpectsReply: true,
		Validate: func(reply string) error {
			if prevReply != "" && cmd != prevQuery && reply == prevReply {
				return fmt.Errorf("%w: %q repeats the answer to %q", ErrStaleReply, reply, prevQuery)
			}
			if shape != nil {
				return shape(reply)
			}
			return nil
		},
	})
	s.observe(cmd, res, err)
	if err != nil {
		return "", err
	}
	s.lastQuery = cmd
	s.lastReply = res.Reply
	return res.Reply, nil
}

func (s *Session) send(cmd string) error {
	res, err := s.exch.Do(transact.Request{Command: cmd})
	s.observe(cmd, res, err)
	return err
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= readbackTolerance
}

func (s *Session) observe(cmd string, res transact.Result, err error) {
	if err != nil {
		s.logger.Error("exchange failed",
			logging.String(logging.FieldCommand, cmd),
			logging.Int(logging.FieldAttempts, res.Attempts),
			logging.Error(err))
		return
	}
	if res.Attempts > 1 {
		s.logger.Warn("exchange recovered after retry",
			logging.String(logging.FieldCommand, cmd),
			logging.Int(logging.FieldAttempts, res.Attempts),
			logging.Duration(logging.FieldDuration, res.Duration))
		return
	}
	s.logger.Debug("exchange",
		logging.String(logging.FieldCommand, cmd),
		logging.Duration(logging.FieldDuration, res.Duration))
}
