package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdcore "github.com/projecteru2/vmbridge/cmd/core"
	cmdvm "github.com/projecteru2/vmbridge/cmd/vm"
	"github.com/projecteru2/vmbridge/config"
)

var (
	cfgFile string
	conf    *config.Config
)

var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vmbridge",
		Short: "vmbridge - unified QEMU/libvirt VM control",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(commandContext(cmd))
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().String("qemu-binary", "", "hypervisor binary for directly spawned guests")
	cmd.PersistentFlags().String("libvirt-uri", "", "pin single-endpoint operations to one libvirt connection")

	_ = viper.BindPFlag("qemu_binary", cmd.PersistentFlags().Lookup("qemu-binary"))
	_ = viper.BindPFlag("libvirt_uri", cmd.PersistentFlags().Lookup("libvirt-uri"))

	viper.SetEnvPrefix("VMBRIDGE")
	viper.AutomaticEnv()
	_ = viper.BindEnv("sandboxed")

	confProvider := func() *config.Config { return conf }

	for _, c := range cmdvm.Commands(cmdvm.Handler{BaseHandler: cmdcore.BaseHandler{ConfProvider: confProvider}}) {
		cmd.AddCommand(c)
	}

	return cmd
}()

func initConfig(ctx context.Context) error {
	loaded, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags and VMBRIDGE_* env vars override the file.
	if v := viper.GetString("qemu_binary"); v != "" {
		loaded.QEMUBinary = v
	}
	if v := viper.GetString("libvirt_uri"); v != "" {
		loaded.LibvirtURI = v
	}
	if viper.IsSet("sandboxed") {
		loaded.Sandboxed = viper.GetBool("sandboxed")
	}

	conf = loaded
	return log.SetupLog(ctx, &conf.Log, "")
}

// newCommandContext installs SIGINT/SIGTERM cancellation on the root context.
func newCommandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := newCommandContext()
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
