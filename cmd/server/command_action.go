package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kioskpanel/internal/config"
	"kioskpanel/internal/service"
)

func newActionCmd(a *app) *cobra.Command {
	var (
		url   string
		lines int
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "action <name>",
		Short: "Run one control action against the remote host",
		Long: `Run one control action and print its result. Actions come from the
action catalog: refresh, hard-refresh, restart-firefox, switch-dashboard,
restart-k3s, reboot and logs, plus any defined in --actions-file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			out := cmd.OutOrStdout()

			var (
				msg string
				err error
			)
			switch name {
			case config.ActionLogs:
				var logLines []string
				if logLines, err = a.control.Logs(lines); err == nil {
					fmt.Fprintln(out, strings.Join(logLines, "\n"))
					return nil
				}
			case config.ActionSwitchDashboard:
				msg, err = a.control.SwitchDashboard(url)
			case config.ActionReboot:
				if !yes {
					return errors.New("reboot requires confirmation, pass --yes")
				}
				msg, err = a.control.Reboot()
			default:
				msg, err = a.control.Perform(name, service.Vars{})
			}

			if errors.Is(err, service.ErrUnknownAction) {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(a.catalog.Get().Names(), ", "))
			}
			if err != nil {
				return fmt.Errorf("%s failed: %w", name, err)
			}
			fmt.Fprintln(out, msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Dashboard URL for switch-dashboard (default: --dashboard.url).")
	cmd.Flags().IntVar(&lines, "lines", service.DefaultLogLines, "Number of journal lines for logs.")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm a reboot.")
	return cmd
}
