package utils

import (
	"os"
	"syscall"
)

// IsProcessAlive returns true if a process with the given PID currently
// exists. Uses kill(pid, 0): no signal is sent, only existence is checked.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

// SignalProcess delivers sig to pid. A process that disappeared between
// lookup and delivery is not an error.
func SignalProcess(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil // already gone
	}
	if err := proc.Signal(sig); err != nil {
		if !IsProcessAlive(pid) {
			return nil
		}
		return err
	}
	return nil
}
