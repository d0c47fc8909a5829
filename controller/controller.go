// Package controller reconciles two disjoint VM backends, directly spawned
// qemu processes and libvirt-managed domains driven through virsh, behind
// one API: enumeration, status, idempotent start, and graceful-then-forced
// stop. Every query and mutation shells out; the controller holds no VM
// state between calls.
package controller

import (
	"context"
	"strings"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/vmbridge/config"
	"github.com/projecteru2/vmbridge/executor"
)

// Well-known libvirt connections tried during full enumeration.
const (
	systemURI  = "qemu:///system"
	sessionURI = "qemu:///session"
)

// delays are the fixed pauses around mutating commands. The settle values
// give a backend time to make its observable state catch up before the
// follow-up status query; poll is the graceful-shutdown check interval.
type delays struct {
	start       time.Duration
	libvirtStop time.Duration
	qemuStop    time.Duration
	poll        time.Duration
}

var defaultDelays = delays{
	start:       2 * time.Second,
	libvirtStop: 200 * time.Millisecond,
	qemuStop:    time.Second,
	poll:        time.Second,
}

// Controller drives VM lifecycles across both backends. All configuration is
// fixed at construction; concurrent calls against the same guest are not
// coordinated; backend commands are idempotent, so interleaving is safe.
type Controller struct {
	conf       *config.Config
	runner     executor.Runner
	virshOK    bool
	defaultURI string
	delays     delays
}

// New probes the environment once (virsh presence, default connection URI)
// and returns an immutable controller.
func New(ctx context.Context, conf *config.Config) *Controller {
	return NewWithRunner(ctx, conf, executor.New(conf.Sandboxed))
}

// NewWithRunner is New with a caller-supplied command runner.
func NewWithRunner(ctx context.Context, conf *config.Config, runner executor.Runner) *Controller {
	c := &Controller{
		conf:   conf,
		runner: runner,
		delays: defaultDelays,
	}
	c.virshOK = c.probeVirsh(ctx)
	if c.virshOK {
		c.defaultURI = c.probeDefaultURI(ctx)
	}
	log.WithFunc("controller.New").Infof(ctx, "virsh available: %t, default URI: %q, sandboxed: %t",
		c.virshOK, c.defaultURI, conf.Sandboxed)
	return c
}

// probeVirsh checks whether the libvirt control tool is installed. Any spawn
// failure or nonzero exit means unavailable, never an error.
func (c *Controller) probeVirsh(ctx context.Context) bool {
	res, err := c.runner.Run(ctx, "which", "virsh")
	if err != nil {
		log.WithFunc("controller.probeVirsh").Warnf(ctx, "virsh lookup: %v", err)
		return false
	}
	return res.ExitCode == 0
}

// probeDefaultURI asks virsh for its compiled-in default connection URI.
// Empty on any failure.
func (c *Controller) probeDefaultURI(ctx context.Context) string {
	res, err := c.runner.Run(ctx, "virsh", "uri")
	if err != nil {
		log.WithFunc("controller.probeDefaultURI").Warnf(ctx, "virsh uri: %v", err)
		return ""
	}
	if res.ExitCode != 0 {
		log.WithFunc("controller.probeDefaultURI").Warnf(ctx, "virsh uri exited %d", res.ExitCode)
		return ""
	}
	return strings.TrimSpace(string(res.Stdout))
}

// VirshAvailable reports whether the libvirt control tool was found at
// construction time.
func (c *Controller) VirshAvailable() bool { return c.virshOK }

// DefaultURI returns the connection URI probed at construction, empty when
// virsh is unavailable or the probe failed.
func (c *Controller) DefaultURI() string { return c.defaultURI }

// settle pauses so a backend's observable state can catch up with a mutating
// command before the follow-up status query.
func settle(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
