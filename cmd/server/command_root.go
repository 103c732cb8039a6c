package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kioskpanel/internal/config"
)

func NewRootCmd() *cobra.Command {
	a := newApp()

	root := &cobra.Command{
		Use:   "kioskpanel",
		Short: "Web control panel for a remote kiosk display",
		Long: `kioskpanel serves a small web UI and JSON API that controls a kiosk
browser on a remote host over SSH: refresh or switch the dashboard, restart
the browser or the k3s agent, reboot the host and read its status.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Optional YAML config file.")
	config.AddFlags(root.PersistentFlags())

	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newActionCmd(a))

	return root
}
