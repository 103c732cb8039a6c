package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kioskpanel/internal/config"
	"kioskpanel/internal/log"
	"kioskpanel/internal/metrics"
	"kioskpanel/internal/models"
	"kioskpanel/internal/remote"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidURL    = errors.New("invalid dashboard url")
)

const (
	DefaultLogLines = 20
	MaxLogLines     = 500
)

// Runner executes one remote command with a bounded wait.
type Runner interface {
	Run(command string, timeout time.Duration) models.CommandResult
}

// CommandError is returned when a remote step of an action fails. Its
// message is the raw stderr of the failing command.
type CommandError struct {
	Action  string
	Command string
	Result  models.CommandResult
}

func (e *CommandError) Error() string {
	return e.Result.Stderr
}

// Vars are the values substituted into catalog placeholders.
type Vars struct {
	URL   string
	Iface string
	Lines int
}

// commandReplacer quotes every value for the remote shell.
func (v Vars) commandReplacer() *strings.Replacer {
	return strings.NewReplacer(
		"{url}", remote.Quote(v.URL),
		"{iface}", remote.Quote(v.Iface),
		"{lines}", strconv.Itoa(v.Lines),
	)
}

func (v Vars) messageReplacer() *strings.Replacer {
	return strings.NewReplacer("{url}", v.URL)
}

// ControlService performs the catalog actions and keeps the journal current.
type ControlService struct {
	runner       Runner
	catalog      *config.CatalogStore
	journal      *Journal
	dashboardURL string
	logger       log.Logger
	sleep        func(time.Duration)
}

func NewControlService(runner Runner, catalog *config.CatalogStore, journal *Journal, dashboardURL string, logger log.Logger) *ControlService {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &ControlService{
		runner:       runner,
		catalog:      catalog,
		journal:      journal,
		dashboardURL: dashboardURL,
		logger:       logger.WithName("control"),
		sleep:        time.Sleep,
	}
}

// Perform runs the named catalog action and returns the message meant for
// the caller. A failing step stops the action and yields a *CommandError.
func (s *ControlService) Perform(name string, vars Vars) (string, error) {
	action, ok := s.catalog.Get().Action(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}

	cmds := vars.commandReplacer()
	msgs := vars.messageReplacer()

	for i, raw := range action.Commands {
		if i > 0 && action.Delay > 0 {
			s.sleep(action.Delay)
		}

		command := cmds.Replace(raw)
		result := s.runner.Run(command, action.Timeout)
		if result.Success {
			continue
		}

		if action.FireAndForget {
			s.logger.Warn("ignoring failure of fire-and-forget action",
				"action", name, "exit_code", result.ExitCode, "stderr", result.Stderr)
			continue
		}

		metrics.ObserveAction(name, false)
		if action.Failure != "" {
			s.journal.Record(fmt.Sprintf("%s: %s", msgs.Replace(action.Failure), result.Stderr), false)
		}
		s.logger.Warn("action failed", "action", name, "step", i, "stderr", result.Stderr)
		return "", &CommandError{Action: name, Command: command, Result: result}
	}

	metrics.ObserveAction(name, true)
	if action.Record != "" {
		s.journal.Record(msgs.Replace(action.Record), true)
	}
	s.logger.Info("action completed", "action", name)
	return msgs.Replace(action.Message), nil
}

func (s *ControlService) Refresh() (string, error) {
	return s.Perform(config.ActionRefresh, Vars{})
}

func (s *ControlService) HardRefresh() (string, error) {
	return s.Perform(config.ActionHardRefresh, Vars{})
}

func (s *ControlService) RestartFirefox() (string, error) {
	return s.Perform(config.ActionRestartFirefox, Vars{})
}

func (s *ControlService) RestartK3s() (string, error) {
	return s.Perform(config.ActionRestartK3s, Vars{})
}

// SwitchDashboard points the kiosk browser at url, or at the configured
// dashboard when url is empty.
func (s *ControlService) SwitchDashboard(url string) (string, error) {
	if url == "" {
		url = s.dashboardURL
	}
	if err := config.ValidateDashboardURL(url); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return s.Perform(config.ActionSwitchDashboard, Vars{URL: url})
}

// Reboot issues the reboot command once. Confirmation is the caller's job.
func (s *ControlService) Reboot() (string, error) {
	return s.Perform(config.ActionReboot, Vars{})
}

// Logs returns the last lines of the kiosk browser journal, clamped to
// [1, MaxLogLines].
func (s *ControlService) Logs(lines int) ([]string, error) {
	switch {
	case lines <= 0:
		lines = DefaultLogLines
	case lines > MaxLogLines:
		lines = MaxLogLines
	}

	action, ok := s.catalog.Get().Action(config.ActionLogs)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, config.ActionLogs)
	}

	command := Vars{Lines: lines}.commandReplacer().Replace(action.Commands[0])
	result := s.runner.Run(command, action.Timeout)
	if !result.Success {
		return nil, &CommandError{Action: config.ActionLogs, Command: command, Result: result}
	}
	if result.Stdout == "" {
		return []string{}, nil
	}
	return strings.Split(result.Stdout, "\n"), nil
}

func (s *ControlService) LastAction() models.LastAction {
	return s.journal.Last()
}

func (s *ControlService) History(n int) []models.LastAction {
	return s.journal.Recent(n)
}
