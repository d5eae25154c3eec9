package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"psud/internal/config"
	"psud/internal/psu"
)

// Store persists the state mirror and the command queue in SQLite. The
// database is the daemon's only interface to its clients: they enqueue
// commands and read the mirrored state, never the serial port.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the daemon database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Daemon.DatabaseFile)
}

// OpenPath connects to a database file directly.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// WriteState upserts the single state row with a fresh snapshot.
func (s *Store) WriteState(ctx context.Context, state psu.DeviceState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO psu_state (
            id, output, voltage_setting, current_limit,
            measured_voltage, measured_current, terminal, updated_at
        ) VALUES (0, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            output = excluded.output,
            voltage_setting = excluded.voltage_setting,
            current_limit = excluded.current_limit,
            measured_voltage = excluded.measured_voltage,
            measured_current = excluded.measured_current,
            terminal = excluded.terminal,
            updated_at = excluded.updated_at`,
		boolToInt(state.Output),
		state.VoltageSetting,
		state.CurrentLimit,
		state.MeasuredVoltage,
		state.MeasuredCurrent,
		state.Terminal,
		state.TakenAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// State reads the mirrored device state. Returns ErrNoState when the row is
// absent, which callers treat as "daemon not running or not yet through its
// first update".
func (s *Store) State(ctx context.Context) (psu.DeviceState, error) {
	var (
		state  psu.DeviceState
		output int
		stamp  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT output, voltage_setting, current_limit,
                measured_voltage, measured_current, terminal, updated_at
         FROM psu_state WHERE id = 0`,
	).Scan(&output, &state.VoltageSetting, &state.CurrentLimit,
		&state.MeasuredVoltage, &state.MeasuredCurrent, &state.Terminal, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return psu.DeviceState{}, ErrNoState
	}
	if err != nil {
		return psu.DeviceState{}, fmt.Errorf("read state: %w", err)
	}
	state.Output = output != 0
	if state.TakenAt, err = time.Parse(time.RFC3339Nano, stamp); err != nil {
		return psu.DeviceState{}, fmt.Errorf("parse state timestamp %q: %w", stamp, err)
	}
	return state, nil
}

// ClearState removes the state row so readers cannot mistake a stopped
// daemon's last snapshot for live data.
func (s *Store) ClearState(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM psu_state"); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// Enqueue adds a command to the queue and returns its id.
func (s *Store) Enqueue(ctx context.Context, kind, value string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO commands (interface, kind, value, created_at)
         VALUES (?, ?, ?, ?)`,
		InterfacePSU, kind, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("enqueue command: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// NextCommand returns the oldest unhandled command for the PSU interface, or
// nil when the queue is drained.
func (s *Store) NextCommand(ctx context.Context) (*Command, error) {
	var (
		cmd   Command
		stamp string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, interface, kind, value, created_at
         FROM commands
         WHERE interface = ? AND handled_at IS NULL
         ORDER BY id LIMIT 1`,
		InterfacePSU,
	).Scan(&cmd.ID, &cmd.Interface, &cmd.Kind, &cmd.Value, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next command: %w", err)
	}
	if cmd.CreatedAt, err = time.Parse(time.RFC3339Nano, stamp); err != nil {
		return nil, fmt.Errorf("parse command timestamp %q: %w", stamp, err)
	}
	return &cmd, nil
}

// CloseCommand marks a command handled, recording the outcome text. A
// command is closed exactly once whether it succeeded or failed.
func (s *Store) CloseCommand(ctx context.Context, id int64, result string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE commands SET result = ?, handled_at = ?
         WHERE id = ? AND handled_at IS NULL`,
		result, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("close command %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close command %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// PendingCount reports how many commands await a command slot.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM commands WHERE interface = ? AND handled_at IS NULL",
		InterfacePSU,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
