package models

// CommandResult is the outcome of one remote command invocation.
// ExitCode is -1 when the command never produced an exit status
// (timeout or transport fault).
type CommandResult struct {
	Success  bool   `json:"success"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}
