package core

import (
	"context"
	"fmt"
	"strings"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/projecteru2/vmbridge/config"
	"github.com/projecteru2/vmbridge/controller"
)

// BaseHandler provides shared config access for all command handlers.
type BaseHandler struct {
	ConfProvider func() *config.Config
}

// Init returns the command context and validated config in one call.
func (h BaseHandler) Init(cmd *cobra.Command) (context.Context, *config.Config, error) {
	conf, err := h.Conf()
	if err != nil {
		return nil, nil, err
	}
	return CommandContext(cmd), conf, nil
}

// Conf validates and returns the config. All handlers call this first.
func (h BaseHandler) Conf() (*config.Config, error) {
	if h.ConfProvider == nil {
		return nil, fmt.Errorf("config provider is nil")
	}
	conf := h.ConfProvider()
	if conf == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return conf, nil
}

// CommandContext returns command context, falling back to Background.
func CommandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// InitController constructs the VM controller, probing the environment once.
func InitController(ctx context.Context, conf *config.Config) *controller.Controller {
	return controller.New(ctx, conf)
}

// VMConfigFromFlags translates start flags into the spawn config map for
// directly launched qemu guests. Human-readable memory sizes become the MiB
// value qemu's -m flag expects.
func VMConfigFromFlags(cmd *cobra.Command) (map[string]any, error) {
	vmConfig := make(map[string]any)

	if mem, _ := cmd.Flags().GetString("memory"); mem != "" {
		size, err := units.RAMInBytes(mem)
		if err != nil {
			return nil, fmt.Errorf("parse memory %q: %w", mem, err)
		}
		vmConfig["m"] = int(size >> 20) //nolint:mnd
	}
	if cpus, _ := cmd.Flags().GetInt("cpus"); cpus > 0 {
		vmConfig["smp"] = cpus
	}
	if kvm, _ := cmd.Flags().GetBool("kvm"); kvm {
		vmConfig["enable-kvm"] = true
	}

	opts, _ := cmd.Flags().GetStringArray("opt")
	for _, opt := range opts {
		key, value, found := strings.Cut(opt, "=")
		if key == "" {
			return nil, fmt.Errorf("invalid --opt %q", opt)
		}
		if !found {
			vmConfig[key] = true
			continue
		}
		vmConfig[key] = value
	}
	return vmConfig, nil
}
