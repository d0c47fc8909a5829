package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/projecteru2/vmbridge/types"
)

// virshArgs builds a virsh invocation scoped to one connection.
func virshArgs(uri string, args ...string) []string {
	return append([]string{"virsh", "-c", uri}, args...)
}

// domainStatus maps a virsh domstate report onto the controller's status
// model. Unrecognized states stay Unknown.
func domainStatus(state string) types.VMStatus {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "running":
		return types.StatusRunning
	case "shut off", "inactive", "paused", "suspended":
		return types.StatusStopped
	default:
		return types.StatusUnknown
	}
}

// listNames runs one virsh list sub-command and returns the non-blank lines.
// libvirt offers no reliable combined query, so running and inactive guests
// are listed separately.
func (c *Controller) listNames(ctx context.Context, uri string, inactive bool) ([]string, error) {
	args := []string{"list", "--name"}
	if inactive {
		args = []string{"list", "--inactive", "--name"}
	}
	res, err := c.runner.Run(ctx, virshArgs(uri, args...)...)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("virsh list exited %d: %s", res.ExitCode, bytes.TrimSpace(res.Stderr))
	}
	var names []string
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
