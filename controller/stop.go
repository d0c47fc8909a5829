package controller

import (
	"bytes"
	"context"
	"errors"
	"syscall"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/vmbridge/types"
	"github.com/projecteru2/vmbridge/utils"
)

// StopVM stops a guest. Idempotent: a guest already Stopped returns true
// without any mutating command. Graceful mode requests shutdown and polls
// every second up to timeout, then escalates to a forced kill; the returned
// boolean always reflects a status observed after the final settle delay.
// The endpoint must match the backend the status query detected.
func (c *Controller) StopVM(ctx context.Context, name, endpoint string, force bool, timeout time.Duration) bool {
	logger := log.WithFunc("controller.StopVM")

	current := c.GetStatus(ctx, name, endpoint)
	if current.Status == types.StatusStopped {
		logger.Infof(ctx, "VM %s is already stopped", name)
		return true
	}
	logger.Infof(ctx, "stopping VM %s (status %s, backend %s, force %t)",
		name, current.Status, current.Backend, force)

	target := types.ResolveEndpoint(endpoint)
	switch {
	case target.Backend == types.BackendLibvirt && current.Backend == types.BackendLibvirt:
		return c.stopLibvirt(ctx, name, target.URI, force, timeout)
	case target.Backend == types.BackendQEMU && current.Backend == types.BackendQEMU:
		return c.stopQEMU(ctx, name, endpoint, force, timeout)
	}

	logger.Warnf(ctx, "VM %s not found or endpoint %q does not match detected backend %q",
		name, endpoint, current.Backend)
	return false
}

// stopLibvirt drives virsh destroy (force) or shutdown (graceful). After a
// graceful timeout the destroy is best-effort: its result is discarded and
// the final settle-and-reread carries the outcome.
func (c *Controller) stopLibvirt(ctx context.Context, name, uri string, force bool, timeout time.Duration) bool {
	logger := log.WithFunc("controller.stopLibvirt")

	verb := "shutdown"
	if force {
		verb = "destroy"
	}
	res, err := c.runner.Run(ctx, virshArgs(uri, verb, name)...)
	if err != nil {
		logger.Warnf(ctx, "%s %s on %s: %v", verb, name, uri, err)
		return false
	}
	if res.ExitCode != 0 {
		logger.Warnf(ctx, "%s %s on %s exited %d: %s",
			verb, name, uri, res.ExitCode, bytes.TrimSpace(res.Stderr))
		return false
	}

	if !force {
		err := utils.PollUntil(ctx, timeout, c.delays.poll, func() (bool, error) {
			return c.GetStatus(ctx, name, uri).Status == types.StatusStopped, nil
		})
		if err == nil {
			return true
		}
		if errors.Is(err, utils.ErrTimeout) && c.GetStatus(ctx, name, uri).Status == types.StatusRunning {
			logger.Warnf(ctx, "timeout waiting for graceful shutdown, destroying VM %s", name)
			if _, derr := c.runner.Run(ctx, virshArgs(uri, "destroy", name)...); derr != nil {
				logger.Warnf(ctx, "destroy %s on %s: %v", name, uri, derr)
			}
		}
	}

	settle(ctx, c.delays.libvirtStop)
	return c.GetStatus(ctx, name, uri).Status == types.StatusStopped
}

// stopQEMU signals the guest's hypervisor process directly: SIGKILL when
// forced, otherwise SIGTERM with a poll loop that escalates to SIGKILL on
// timeout.
func (c *Controller) stopQEMU(ctx context.Context, name, endpoint string, force bool, timeout time.Duration) bool {
	logger := log.WithFunc("controller.stopQEMU")

	pid, ok, err := c.findPID(ctx, name)
	if err != nil {
		logger.Warnf(ctx, "resolve pid for %s: %v", name, err)
		return false
	}
	if !ok {
		// No matching process: nothing left to stop.
		return true
	}

	if force {
		if err := utils.SignalProcess(pid, syscall.SIGKILL); err != nil {
			logger.Warnf(ctx, "kill pid %d for %s: %v", pid, name, err)
			return false
		}
	} else {
		if err := utils.SignalProcess(pid, syscall.SIGTERM); err != nil {
			logger.Warnf(ctx, "terminate pid %d for %s: %v", pid, name, err)
			return false
		}
		perr := utils.PollUntil(ctx, timeout, c.delays.poll, func() (bool, error) {
			return c.GetStatus(ctx, name, endpoint).Status == types.StatusStopped, nil
		})
		if perr == nil {
			return true
		}
		if errors.Is(perr, utils.ErrTimeout) && c.GetStatus(ctx, name, endpoint).Status == types.StatusRunning {
			logger.Warnf(ctx, "timeout waiting for graceful shutdown, killing VM %s (pid %d)", name, pid)
			if kerr := utils.SignalProcess(pid, syscall.SIGKILL); kerr != nil {
				logger.Warnf(ctx, "kill pid %d for %s: %v", pid, name, kerr)
			}
		}
	}

	settle(ctx, c.delays.qemuStop)
	return c.GetStatus(ctx, name, endpoint).Status == types.StatusStopped
}
