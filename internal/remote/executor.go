// Package remote runs shell commands on the kiosk host.
package remote

import (
	"context"
	"errors"
	"strings"
	"time"

	"kioskpanel/internal/log"
	"kioskpanel/internal/metrics"
	"kioskpanel/internal/models"
)

const (
	// TimeoutMessage is reported as stderr when a command outlives its timeout.
	TimeoutMessage = "Command timed out"

	DefaultTimeout = 10 * time.Second
)

// Transport executes one command on the remote host over a fresh connection.
// A returned error means no exit status was obtained; a nonzero exit code
// with a nil error is a normal completion. When ctx is done the transport
// must release its local resources (child process, connection) and return.
type Transport interface {
	Exec(ctx context.Context, command string) (stdout, stderr []byte, exitCode int, err error)
}

// Executor bounds Transport calls by a timeout and folds every outcome into
// a CommandResult.
type Executor struct {
	transport Transport
	logger    log.Logger
}

func NewExecutor(transport Transport, logger log.Logger) *Executor {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Executor{transport: transport, logger: logger.WithName("remote")}
}

// Run executes command and waits at most timeout. On timeout the local end
// of the connection is torn down; the remote command may keep running.
func (e *Executor) Run(command string, timeout time.Duration) models.CommandResult {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan models.CommandResult, 1)
	go func() {
		done <- e.exec(ctx, command)
	}()

	var result models.CommandResult
	select {
	case result = <-done:
	case <-ctx.Done():
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result = models.CommandResult{Stderr: TimeoutMessage, ExitCode: -1}
	}

	elapsed := time.Since(start)
	outcome := outcomeOf(result)
	metrics.ObserveRemoteCommand(outcome, elapsed)

	if result.Success {
		e.logger.Debug("remote command finished", "command", command, "elapsed", elapsed)
	} else {
		e.logger.Warn("remote command failed",
			"command", command,
			"outcome", outcome,
			"exit_code", result.ExitCode,
			"stderr", result.Stderr,
			"elapsed", elapsed)
	}

	return result
}

func (e *Executor) exec(ctx context.Context, command string) models.CommandResult {
	stdout, stderr, code, err := e.transport.Exec(ctx, command)
	if err != nil {
		return models.CommandResult{
			Stdout:   strings.TrimSpace(string(stdout)),
			Stderr:   err.Error(),
			ExitCode: -1,
		}
	}

	return models.CommandResult{
		Success:  code == 0,
		Stdout:   strings.TrimSpace(string(stdout)),
		Stderr:   strings.TrimSpace(string(stderr)),
		ExitCode: code,
	}
}

func outcomeOf(r models.CommandResult) string {
	switch {
	case r.Success:
		return metrics.OutcomeSuccess
	case r.ExitCode == -1 && r.Stderr == TimeoutMessage:
		return metrics.OutcomeTimeout
	case r.ExitCode == -1:
		return metrics.OutcomeTransportError
	default:
		return metrics.OutcomeExitError
	}
}
