package service

import (
	"strings"
	"sync"
	"time"

	"kioskpanel/internal/models"
)

type call struct {
	Command string
	Timeout time.Duration
}

// fakeRunner answers commands from a table keyed by command prefix and
// records every call. Unknown commands succeed with empty output.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]models.CommandResult
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]models.CommandResult{}}
}

func (f *fakeRunner) on(prefix string, r models.CommandResult) *fakeRunner {
	f.responses[prefix] = r
	return f
}

func (f *fakeRunner) Run(command string, timeout time.Duration) models.CommandResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{Command: command, Timeout: timeout})

	best := ""
	for prefix := range f.responses {
		if strings.HasPrefix(command, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		return f.responses[best]
	}
	return models.CommandResult{Success: true}
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Command
	}
	return out
}

func ok(stdout string) models.CommandResult {
	return models.CommandResult{Success: true, Stdout: stdout}
}

func failed(code int, stderr string) models.CommandResult {
	return models.CommandResult{Stderr: stderr, ExitCode: code}
}
