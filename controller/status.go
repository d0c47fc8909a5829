package controller

import (
	"context"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/vmbridge/types"
)

// GetStatus reports the state of one guest identified by (name, endpoint).
// Failures never escape: an unconfirmable state is StatusUnknown. The
// returned URI is set if and only if the backend is libvirt.
func (c *Controller) GetStatus(ctx context.Context, name, endpoint string) types.StatusResult {
	result := types.StatusResult{Status: types.StatusUnknown}
	target := types.ResolveEndpoint(endpoint)

	switch {
	case target.Backend == types.BackendQEMU:
		result.Backend = types.BackendQEMU
		res, err := c.runner.Run(ctx, "pgrep", "-f", processPattern(name))
		if err != nil {
			log.WithFunc("controller.GetStatus").Warnf(ctx, "probe qemu process for %s: %v", name, err)
			return result
		}
		if res.ExitCode == 0 {
			result.Status = types.StatusRunning
		} else {
			result.Status = types.StatusStopped
		}

	case target.Backend == types.BackendLibvirt && c.virshOK:
		result.Backend = types.BackendLibvirt
		result.URI = target.URI
		res, err := c.runner.Run(ctx, virshArgs(target.URI, "domstate", name)...)
		if err != nil {
			log.WithFunc("controller.GetStatus").Warnf(ctx, "domstate %s on %s: %v", name, target.URI, err)
			return result
		}
		if res.ExitCode == 0 {
			result.Status = domainStatus(string(res.Stdout))
		}
	}

	// Neither branch applies when the endpoint is not the qemu sentinel and
	// virsh is unavailable: the zero-value result stands.
	return result
}
