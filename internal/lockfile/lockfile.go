package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

var (
	// ErrAlreadyRunning indicates another live process holds the lock.
	ErrAlreadyRunning = errors.New("daemon already running")

	// ErrNotRunning indicates no lock file exists.
	ErrNotRunning = errors.New("daemon not running")

	// ErrStillAlive indicates the process ignored SIGTERM for the full
	// termination grace period.
	ErrStillAlive = errors.New("process still alive after SIGTERM")

	// ErrCorruptLock indicates a lock file whose contents are not a pid.
	ErrCorruptLock = errors.New("corrupt lock file")
)

const (
	terminatePollInterval = 50 * time.Millisecond
	terminatePollAttempts = 50
)

// Handle is a held single-instance lock. Release exactly once at shutdown.
type Handle struct {
	path string
	lock *flock.Flock
}

// Acquire takes the single-instance lock, reclaiming it when the recorded
// pid is dead. The kernel flock guards against races between two starters;
// the pid in the file is what operators and the stop verb read.
func Acquire(path string) (*Handle, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		pid, _ := Read(path)
		return nil, fmt.Errorf("%w: pid %d holds %s", ErrAlreadyRunning, pid, path)
	}

	// The flock is ours, but the file may carry a live pid written by a
	// process that holds no flock (crashed-and-restarted kernel, NFS, or a
	// foreign writer). Honor it.
	if pid, readErr := Read(path); readErr == nil && pid != os.Getpid() && Alive(pid) {
		_ = lock.Unlock()
		return nil, fmt.Errorf("%w: pid %d holds %s", ErrAlreadyRunning, pid, path)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("write pid to %s: %w", path, err)
	}
	return &Handle{path: path, lock: lock}, nil
}

// Path returns the lock file path.
func (h *Handle) Path() string {
	return h.path
}

// Release removes the lock file and drops the flock.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	rmErr := os.Remove(h.path)
	if rmErr != nil && errors.Is(rmErr, fs.ErrNotExist) {
		rmErr = nil
	}
	if err := h.lock.Unlock(); err != nil && rmErr == nil {
		rmErr = err
	}
	if rmErr != nil {
		return fmt.Errorf("release lock %s: %w", h.path, rmErr)
	}
	return nil
}

// Read returns the pid recorded in the lock file.
func Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, ErrNotRunning
	}
	if err != nil {
		return 0, fmt.Errorf("read lock %s: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(text)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: %q in %s", ErrCorruptLock, text, path)
	}
	return pid, nil
}

// Alive reports whether a process with the given pid exists. EPERM counts
// as alive: the process is there, we just may not signal it.
func Alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Outcome describes what Terminate found.
type Outcome int

const (
	// OutcomeTerminated means the process exited after SIGTERM.
	OutcomeTerminated Outcome = iota
	// OutcomeStale means the recorded pid was already dead and the lock
	// file was cleaned up.
	OutcomeStale
)

// Terminate stops the daemon holding the lock: SIGTERM, then a bounded poll
// for exit. A dead recorded pid is treated as a stale lock and removed.
func Terminate(path string) (Outcome, int, error) {
	pid, err := Read(path)
	if err != nil {
		return 0, 0, err
	}
	if !Alive(pid) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, pid, fmt.Errorf("remove stale lock %s: %w", path, err)
		}
		return OutcomeStale, pid, nil
	}

	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return 0, pid, fmt.Errorf("signal pid %d: %w", pid, err)
	}
	for i := 0; i < terminatePollAttempts; i++ {
		time.Sleep(terminatePollInterval)
		if !Alive(pid) {
			// A cooperating daemon removes the file itself on the way
			// out; sweep up after one that died before it could.
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return OutcomeTerminated, pid, fmt.Errorf("remove lock %s: %w", path, err)
			}
			return OutcomeTerminated, pid, nil
		}
	}
	return 0, pid, fmt.Errorf("%w: pid %d", ErrStillAlive, pid)
}
