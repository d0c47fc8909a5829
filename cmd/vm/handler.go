package vm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	cmdcore "github.com/projecteru2/vmbridge/cmd/core"
	"github.com/projecteru2/vmbridge/controller"
	"github.com/projecteru2/vmbridge/types"
)

type Handler struct {
	cmdcore.BaseHandler
}

// initController is the shared init for all vm subcommands. Construction
// probes the environment; each CLI invocation probes afresh.
func (h Handler) initController(cmd *cobra.Command) (context.Context, *controller.Controller, error) {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return nil, nil, err
	}
	return ctx, cmdcore.InitController(ctx, conf), nil
}

func (h Handler) List(cmd *cobra.Command, _ []string) error {
	ctx, ctrl, err := h.initController(cmd)
	if err != nil {
		return err
	}

	all, _ := cmd.Flags().GetBool("all")
	inv := ctrl.ListVMs(ctx, all)
	if inv.Len() == 0 {
		fmt.Println("No VMs found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if term.IsTerminal(int(os.Stdout.Fd())) {
		_, _ = fmt.Fprintln(w, "NAME\tSTATUS\tENDPOINT")
	}
	for _, vm := range inv.QEMU {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", vm.Name, vm.Status, types.EndpointQEMU)
	}
	uris := make([]string, 0, len(inv.Libvirt))
	for uri := range inv.Libvirt {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	for _, uri := range uris {
		for _, vm := range inv.Libvirt[uri] {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", vm.Name, vm.Status, uri)
		}
	}
	w.Flush() //nolint:errcheck,gosec
	return nil
}

func (h Handler) Status(cmd *cobra.Command, args []string) error {
	ctx, ctrl, err := h.initController(cmd)
	if err != nil {
		return err
	}

	endpoint, _ := cmd.Flags().GetString("endpoint")
	result := ctrl.GetStatus(ctx, args[0], endpoint)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func (h Handler) Start(cmd *cobra.Command, args []string) error {
	ctx, ctrl, err := h.initController(cmd)
	if err != nil {
		return err
	}
	logger := log.WithFunc("cmd.start")

	endpoint, _ := cmd.Flags().GetString("endpoint")

	var name string
	switch {
	case len(args) > 0:
		name = args[0]
	case endpoint == types.EndpointQEMU:
		// A fresh direct guest just needs a unique name.
		name = "guest-" + uuid.NewString()[:8]
		logger.Infof(ctx, "no name given, generated: %s", name)
	default:
		return fmt.Errorf("a VM name is required for libvirt endpoints")
	}

	vmConfig, err := cmdcore.VMConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	if !ctrl.StartVM(ctx, name, endpoint, vmConfig) {
		return fmt.Errorf("start VM %s: operation reported not successful", name)
	}
	logger.Infof(ctx, "started: %s", name)
	return nil
}

func (h Handler) Stop(cmd *cobra.Command, args []string) error {
	ctx, ctrl, err := h.initController(cmd)
	if err != nil {
		return err
	}
	logger := log.WithFunc("cmd.stop")

	endpoint, _ := cmd.Flags().GetString("endpoint")
	force, _ := cmd.Flags().GetBool("force")
	timeoutSec, _ := cmd.Flags().GetInt("timeout")

	if !ctrl.StopVM(ctx, args[0], endpoint, force, time.Duration(timeoutSec)*time.Second) {
		return fmt.Errorf("stop VM %s: operation reported not successful", args[0])
	}
	logger.Infof(ctx, "stopped: %s", args[0])
	return nil
}
