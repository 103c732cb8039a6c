package models

// StatusRecord is a snapshot of the remote host. Optional fields are nil
// when the corresponding probe failed or was skipped.
type StatusRecord struct {
	Alive              bool    `json:"alive"`
	ProcessRunning     bool    `json:"process_running"`
	DashboardReachable bool    `json:"dashboard_reachable"`
	Uptime             *string `json:"uptime"`
	Signal             *string `json:"signal"`
	Temperature        *string `json:"temperature"`
	ProcessID          *string `json:"process_id"`
}

// LastAction is the outcome of the most recent state-changing operation.
type LastAction struct {
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
	Success   bool    `json:"success"`
}
