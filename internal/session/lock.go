package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"time"

	"astroctl/internal/service"
)

// streamLock is the content of the lock file held while a solve stream is
// open. It lets other processes sharing the config directory see the stream.
type streamLock struct {
	PID    int       `json:"pid"`
	TaskID string    `json:"task_id"`
	Since  time.Time `json:"since"`
}

// alive reports whether the owning process still exists.
func (l streamLock) alive() bool {
	if l.PID <= 0 {
		return false
	}
	if l.PID == os.Getpid() {
		return true
	}
	p, err := os.FindProcess(l.PID)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func readLock(path string) (streamLock, error) {
	var l streamLock
	data, err := os.ReadFile(path)
	if err != nil {
		return l, err
	}
	if err := json.Unmarshal(data, &l); err != nil {
		return streamLock{}, fmt.Errorf("invalid lock file: %w", err)
	}
	return l, nil
}

// acquireLock creates the lock file for taskID. A lock left by a process
// that no longer runs is replaced once.
func acquireLock(path, taskID string, now time.Time) error {
	data, err := json.Marshal(streamLock{PID: os.Getpid(), TaskID: taskID, Since: now})
	if err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			_, werr := f.Write(data)
			if cerr := f.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				os.Remove(path)
				return fmt.Errorf("write lock file: %w", werr)
			}
			return nil
		}
		if !errors.Is(err, fs.ErrExist) || attempt > 0 {
			return fmt.Errorf("create lock file: %w", err)
		}

		held, rerr := readLock(path)
		if rerr == nil && held.alive() {
			return fmt.Errorf("%w (task %s, pid %d)", service.ErrStreamActive, held.TaskID, held.PID)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale lock file: %w", err)
		}
	}
}

// releaseLock removes the lock file if this process owns it.
func releaseLock(path string) error {
	held, err := readLock(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err == nil && held.PID != os.Getpid() {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// lockHeld reports whether a live process holds the stream for taskID.
func lockHeld(path, taskID string) bool {
	held, err := readLock(path)
	if err != nil {
		return false
	}
	return held.TaskID == taskID && held.alive()
}
