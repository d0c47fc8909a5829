package controller

import (
	"context"

	"github.com/projecteru2/core/log"
	"golang.org/x/sync/errgroup"

	"github.com/projecteru2/vmbridge/types"
)

// endpointSet returns the libvirt connections to query, in fixed order.
// With all set: the well-known system and user scopes plus the probed
// default, deduplicated. Otherwise exactly one: the configured URI, falling
// back to the probed default.
func (c *Controller) endpointSet(all bool) []string {
	if !all {
		if c.conf.LibvirtURI != "" {
			return []string{c.conf.LibvirtURI}
		}
		if c.defaultURI != "" {
			return []string{c.defaultURI}
		}
		return nil
	}

	var uris []string
	seen := make(map[string]struct{})
	for _, uri := range []string{systemURI, sessionURI, c.defaultURI} {
		if uri == "" {
			continue
		}
		if _, dup := seen[uri]; dup {
			continue
		}
		seen[uri] = struct{}{}
		uris = append(uris, uri)
	}
	return uris
}

// ListVMs enumerates guests across both backends. Each call re-invokes the
// external commands; nothing is cached. Libvirt endpoints are queried
// concurrently but assembled in the fixed endpoint order, and the direct
// process scan runs afterwards so it can be filtered against every managed
// name (a libvirt guest is itself a qemu process the scan would match).
func (c *Controller) ListVMs(ctx context.Context, allEndpoints bool) *types.Inventory {
	logger := log.WithFunc("controller.ListVMs")
	inv := &types.Inventory{Libvirt: make(map[string][]types.VMDescriptor)}

	if c.virshOK {
		uris := c.endpointSet(allEndpoints)
		lists := make([][]types.VMDescriptor, len(uris))
		g, gctx := errgroup.WithContext(ctx)
		for i, uri := range uris {
			i, uri := i, uri
			g.Go(func() error {
				lists[i] = c.listEndpoint(gctx, uri)
				return nil
			})
		}
		_ = g.Wait() // listEndpoint degrades instead of failing
		for i, uri := range uris {
			inv.Libvirt[uri] = lists[i]
		}
	}

	managed := inv.ManagedNames()
	lines, err := c.scanProcesses(ctx)
	if err != nil {
		logger.Warnf(ctx, "scan qemu processes: %v", err)
		return inv
	}
	for _, line := range lines {
		name, ok := guestName(line)
		if !ok {
			continue
		}
		if _, owned := managed[name]; owned {
			continue
		}
		// A direct guest only exists while its process does, so every
		// match is Running.
		inv.QEMU = append(inv.QEMU, types.VMDescriptor{Name: name, Status: types.StatusRunning})
	}
	return inv
}

// listEndpoint queries one connection: running guests first, then inactive.
// A failed sub-command logs and degrades to a partial or empty list for this
// endpoint only; other endpoints are unaffected.
func (c *Controller) listEndpoint(ctx context.Context, uri string) []types.VMDescriptor {
	logger := log.WithFunc("controller.listEndpoint")
	var vms []types.VMDescriptor

	running, err := c.listNames(ctx, uri, false)
	if err != nil {
		logger.Warnf(ctx, "list running on %s: %v", uri, err)
	}
	for _, name := range running {
		vms = append(vms, types.VMDescriptor{Name: name, Status: types.StatusRunning})
	}

	inactive, err := c.listNames(ctx, uri, true)
	if err != nil {
		logger.Warnf(ctx, "list inactive on %s: %v", uri, err)
	}
	for _, name := range inactive {
		vms = append(vms, types.VMDescriptor{Name: name, Status: types.StatusStopped})
	}
	return vms
}
