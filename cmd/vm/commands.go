package vm

import (
	"github.com/spf13/cobra"

	"github.com/projecteru2/vmbridge/types"
)

// Commands builds the "vm" command tree.
func Commands(h Handler) []*cobra.Command {
	vmCmd := &cobra.Command{
		Use:   "vm",
		Short: "Inspect and drive virtual machines",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List VMs across the qemu and libvirt backends",
		RunE:    h.List,
	}
	listCmd.Flags().Bool("all", true, "query all known libvirt connections")

	statusCmd := &cobra.Command{
		Use:   "status VM",
		Short: "Show the status of one VM",
		Args:  cobra.ExactArgs(1),
		RunE:  h.Status,
	}
	addEndpointFlag(statusCmd)

	startCmd := &cobra.Command{
		Use:   "start [VM]",
		Short: "Start a VM, spawning a qemu process if needed",
		Args:  cobra.MaximumNArgs(1),
		RunE:  h.Start,
	}
	addEndpointFlag(startCmd)
	startCmd.Flags().String("memory", "", "guest memory for direct qemu guests (e.g. 2G)")
	startCmd.Flags().Int("cpus", 0, "guest vCPU count for direct qemu guests")
	startCmd.Flags().Bool("kvm", false, "enable KVM acceleration for direct qemu guests")
	startCmd.Flags().StringArray("opt", nil, "extra qemu option as key[=value], repeatable")

	stopCmd := &cobra.Command{
		Use:   "stop VM",
		Short: "Stop a VM, gracefully unless --force",
		Args:  cobra.ExactArgs(1),
		RunE:  h.Stop,
	}
	addEndpointFlag(stopCmd)
	stopCmd.Flags().Bool("force", false, "kill immediately instead of requesting shutdown")
	stopCmd.Flags().Int("timeout", 3, "seconds to wait for graceful shutdown before escalating")

	vmCmd.AddCommand(listCmd, statusCmd, startCmd, stopCmd)
	return []*cobra.Command{vmCmd}
}

func addEndpointFlag(cmd *cobra.Command) {
	cmd.Flags().String("endpoint", types.EndpointQEMU, `backend endpoint: "qemu" or a libvirt connection URI`)
}
