package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"kioskpanel/internal/models"
)

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe the remote host once and print its status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := a.status.Collect()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}
			printStatusTable(cmd.OutOrStdout(), a.cfg.Remote.Host, status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON.")
	return cmd
}

func printStatusTable(w io.Writer, host string, st models.StatusRecord) {
	table := uitable.New()
	table.MaxColWidth = 60

	table.AddRow("HOST", host)
	table.AddRow("ALIVE", yesNo(st.Alive))
	table.AddRow("BROWSER", browserState(st))
	table.AddRow("DASHBOARD", yesNo(st.DashboardReachable))
	table.AddRow("UPTIME", orDash(st.Uptime))
	table.AddRow("SIGNAL", orDash(st.Signal))
	table.AddRow("TEMPERATURE", orDash(st.Temperature))

	fmt.Fprintln(w, table)
}

func browserState(st models.StatusRecord) string {
	if !st.ProcessRunning {
		return "stopped"
	}
	if st.ProcessID != nil {
		return "running (pid " + *st.ProcessID + ")"
	}
	return "running"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
