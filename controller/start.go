package controller

import (
	"bytes"
	"context"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/vmbridge/types"
)

// StartVM starts a guest. Idempotent: a guest already Running returns true
// without any mutating command. The result reflects a status observed after
// the settle delay, never the pre-command state.
func (c *Controller) StartVM(ctx context.Context, name, endpoint string, vmConfig map[string]any) bool {
	logger := log.WithFunc("controller.StartVM")

	if c.GetStatus(ctx, name, endpoint).Status == types.StatusRunning {
		logger.Infof(ctx, "VM %s is already running", name)
		return true
	}

	target := types.ResolveEndpoint(endpoint)
	switch {
	case target.Backend == types.BackendLibvirt && c.virshOK:
		res, err := c.runner.Run(ctx, virshArgs(target.URI, "start", name)...)
		if err != nil {
			logger.Warnf(ctx, "start %s on %s: %v", name, target.URI, err)
			return false
		}
		if res.ExitCode != 0 {
			logger.Warnf(ctx, "start %s on %s exited %d: %s",
				name, target.URI, res.ExitCode, bytes.TrimSpace(res.Stderr))
			return false
		}
		settle(ctx, c.delays.start)
		return c.GetStatus(ctx, name, endpoint).Status == types.StatusRunning

	case target.Backend == types.BackendQEMU:
		argv := spawnArgs(c.conf.QEMUBinary, name, vmConfig)
		if err := c.runner.StartDetached(ctx, argv...); err != nil {
			logger.Warnf(ctx, "spawn guest %s: %v", name, err)
			return false
		}
		settle(ctx, c.delays.start)
		return c.GetStatus(ctx, name, endpoint).Status == types.StatusRunning
	}

	logger.Warnf(ctx, "endpoint %q cannot start VM %s", endpoint, name)
	return false
}
