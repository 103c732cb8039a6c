package service

import (
	"fmt"
	"strconv"

	"kioskpanel/internal/config"
	"kioskpanel/internal/log"
	"kioskpanel/internal/metrics"
	"kioskpanel/internal/models"
)

// StatusService builds a StatusRecord by probing the remote host one query
// at a time. Nothing is cached between calls.
type StatusService struct {
	runner        Runner
	catalog       *config.CatalogStore
	dashboardURL  string
	wifiInterface string
	logger        log.Logger
}

func NewStatusService(runner Runner, catalog *config.CatalogStore, dashboardURL, wifiInterface string, logger log.Logger) *StatusService {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &StatusService{
		runner:        runner,
		catalog:       catalog,
		dashboardURL:  dashboardURL,
		wifiInterface: wifiInterface,
		logger:        logger.WithName("status"),
	}
}

// Collect runs the probes in order. A failed liveness probe ends the
// collection with only Alive=false; any other probe failure just leaves its
// field unset.
func (s *StatusService) Collect() models.StatusRecord {
	probes := s.catalog.Get().Probes
	vars := Vars{URL: s.dashboardURL, Iface: s.wifiInterface}.commandReplacer()
	run := func(p config.Probe) models.CommandResult {
		return s.runner.Run(vars.Replace(p.Command), p.Timeout)
	}

	var status models.StatusRecord

	status.Alive = run(probes.Liveness).Success
	metrics.SetRemoteAlive(status.Alive)
	if !status.Alive {
		s.logger.Debug("remote host unreachable, skipping probes")
		return status
	}

	if r := run(probes.Process); r.Success && r.Stdout != "" {
		status.ProcessRunning = true
		status.ProcessID = &r.Stdout
	}

	if r := run(probes.Uptime); r.Success {
		status.Uptime = &r.Stdout
	}

	if r := run(probes.Signal); r.Success && r.Stdout != "" {
		status.Signal = &r.Stdout
	}

	if r := run(probes.Temperature); r.Success && r.Stdout != "" {
		if temp, ok := FormatTemperature(r.Stdout); ok {
			status.Temperature = &temp
		}
	}

	if r := run(probes.Reachability); r.Success && r.Stdout == "200" {
		status.DashboardReachable = true
	}

	return status
}

// FormatTemperature turns a thermal zone reading in millidegrees Celsius
// into a one-decimal Celsius string: "45000" becomes "45.0°C".
func FormatTemperature(raw string) (string, bool) {
	milli, err := strconv.Atoi(raw)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%.1f°C", float64(milli)/1000), true
}
