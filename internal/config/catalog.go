package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultCommandTimeout = 10 * time.Second

// Action is one route-triggered operation: a list of shell commands run in
// order on the remote host. Commands may reference {url}, {iface} and
// {lines}; Message, Record and Failure may reference {url}.
type Action struct {
	Commands []string      `yaml:"commands"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	// Delay is the pause between consecutive commands.
	Delay time.Duration `yaml:"delay,omitempty"`
	// Message is returned to the HTTP caller on success.
	Message string `yaml:"message,omitempty"`
	// Record becomes the last-action message on success. Empty means the
	// action is read-only and does not touch the last action.
	Record string `yaml:"record,omitempty"`
	// Failure prefixes the stderr in the last-action message on failure.
	Failure string `yaml:"failure,omitempty"`
	// FireAndForget actions report success whatever the remote result.
	FireAndForget bool `yaml:"fire_and_forget,omitempty"`
}

type Probe struct {
	Command string        `yaml:"command"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Probes are the status queries, run in field order.
type Probes struct {
	Liveness     Probe `yaml:"liveness"`
	Process      Probe `yaml:"process"`
	Uptime       Probe `yaml:"uptime"`
	Signal       Probe `yaml:"signal"`
	Temperature  Probe `yaml:"temperature"`
	Reachability Probe `yaml:"reachability"`
}

// Catalog is the dictionary of remote commands keyed by action name.
type Catalog struct {
	Actions map[string]Action `yaml:"actions"`
	Probes  Probes            `yaml:"probes"`
}

const (
	ActionRefresh         = "refresh"
	ActionHardRefresh     = "hard-refresh"
	ActionRestartFirefox  = "restart-firefox"
	ActionSwitchDashboard = "switch-dashboard"
	ActionRestartK3s      = "restart-k3s"
	ActionReboot          = "reboot"
	ActionLogs            = "logs"
)

func DefaultCatalog() *Catalog {
	cat := &Catalog{
		Actions: map[string]Action{
			ActionRefresh: {
				Commands: []string{"DISPLAY=:0 xdotool key F5"},
				Message:  "Dashboard refreshed",
				Record:   "Dashboard refreshed (F5)",
				Failure:  "Refresh failed",
			},
			ActionHardRefresh: {
				Commands: []string{"DISPLAY=:0 xdotool key ctrl+shift+r"},
				Message:  "Hard refresh complete",
				Record:   "Hard refresh (cleared cache)",
				Failure:  "Hard refresh failed",
			},
			ActionRestartFirefox: {
				Commands: []string{"systemctl --user restart firefox-dashboard.service || pkill -9 firefox"},
				Message:  "Firefox restarted",
				Record:   "Firefox restarted",
				Failure:  "Firefox restart failed",
			},
			ActionSwitchDashboard: {
				Commands: []string{
					"DISPLAY=:0 xdotool key ctrl+l",
					"DISPLAY=:0 xdotool type {url}",
					"DISPLAY=:0 xdotool key Return",
				},
				Delay:   500 * time.Millisecond,
				Message: "Switched to {url}",
				Record:  "Switched to {url}",
				Failure: "Switch failed",
			},
			ActionRestartK3s: {
				Commands: []string{"sudo systemctl restart k3s-agent"},
				Timeout:  30 * time.Second,
				Message:  "K3s agent restarted",
				Record:   "K3s agent restarted",
				Failure:  "K3s restart failed",
			},
			ActionReboot: {
				Commands:      []string{"sudo reboot"},
				Timeout:       5 * time.Second,
				Message:       "Reboot initiated",
				Record:        "Remote host rebooting...",
				FireAndForget: true,
			},
			ActionLogs: {
				Commands: []string{"journalctl --user -u firefox-dashboard -n {lines} --no-pager"},
			},
		},
		Probes: Probes{
			Liveness:     Probe{Command: `echo "alive"`, Timeout: 5 * time.Second},
			Process:      Probe{Command: "pgrep -x firefox"},
			Uptime:       Probe{Command: "uptime -p"},
			Signal:       Probe{Command: `iwconfig {iface} 2>/dev/null | grep "Signal level" | awk '{print $4}' | cut -d= -f2`},
			Temperature:  Probe{Command: "cat /sys/class/thermal/thermal_zone0/temp 2>/dev/null"},
			Reachability: Probe{Command: `curl -s -o /dev/null -w "%{http_code}" {url}`},
		},
	}
	cat.setDefaults()
	return cat
}

// LoadCatalog reads a YAML catalog from path and lays it over the defaults.
// Each action or probe in the file only replaces the fields it sets.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

// catalogOverlay keeps the file's entries undecoded so each one can be
// decoded on top of the matching default.
type catalogOverlay struct {
	Actions map[string]yaml.Node `yaml:"actions"`
	Probes  yaml.Node            `yaml:"probes"`
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var overlay catalogOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse action catalog: %w", err)
	}

	cat := DefaultCatalog()
	for name, node := range overlay.Actions {
		action := cat.Actions[name]
		if err := node.Decode(&action); err != nil {
			return nil, fmt.Errorf("parse action catalog: action %q: %w", name, err)
		}
		cat.Actions[name] = action
	}
	if !overlay.Probes.IsZero() {
		if err := overlay.Probes.Decode(&cat.Probes); err != nil {
			return nil, fmt.Errorf("parse action catalog: probes: %w", err)
		}
	}

	cat.setDefaults()
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *Catalog) setDefaults() {
	for name, a := range c.Actions {
		if a.Timeout == 0 {
			a.Timeout = defaultCommandTimeout
		}
		c.Actions[name] = a
	}
	for _, p := range c.probeList() {
		if p.Timeout == 0 {
			p.Timeout = defaultCommandTimeout
		}
	}
}

// recordedActions must leave a trace in the last action both ways.
var recordedActions = []string{
	ActionRefresh,
	ActionHardRefresh,
	ActionRestartFirefox,
	ActionSwitchDashboard,
	ActionRestartK3s,
}

func (c *Catalog) Validate() error {
	var errs []error
	for _, name := range recordedActions {
		a, ok := c.Actions[name]
		if !ok {
			errs = append(errs, fmt.Errorf("action %q is required", name))
			continue
		}
		if a.Record == "" || a.Failure == "" {
			errs = append(errs, fmt.Errorf("action %q needs record and failure messages", name))
		}
		if a.FireAndForget {
			errs = append(errs, fmt.Errorf("action %q cannot be fire_and_forget", name))
		}
	}
	if a, ok := c.Actions[ActionReboot]; !ok {
		errs = append(errs, fmt.Errorf("action %q is required", ActionReboot))
	} else if len(a.Commands) != 1 || !a.FireAndForget || a.Record == "" {
		errs = append(errs, fmt.Errorf("action %q must be a single fire_and_forget command with a record message", ActionReboot))
	}
	if a, ok := c.Actions[ActionLogs]; !ok {
		errs = append(errs, fmt.Errorf("action %q is required", ActionLogs))
	} else if len(a.Commands) != 1 {
		errs = append(errs, fmt.Errorf("action %q must have exactly one command", ActionLogs))
	}

	for _, name := range c.Names() {
		a := c.Actions[name]
		if len(a.Commands) == 0 {
			errs = append(errs, fmt.Errorf("action %q has no commands", name))
		}
		for i, cmd := range a.Commands {
			if strings.TrimSpace(cmd) == "" {
				errs = append(errs, fmt.Errorf("action %q command %d is empty", name, i))
			}
		}
		if a.Timeout < 0 || a.Delay < 0 {
			errs = append(errs, fmt.Errorf("action %q has a negative duration", name))
		}
	}
	if strings.TrimSpace(c.Probes.Liveness.Command) == "" {
		errs = append(errs, errors.New("probes.liveness.command is required"))
	}
	return errors.Join(errs...)
}

// Action returns the named action.
func (c *Catalog) Action(name string) (Action, bool) {
	a, ok := c.Actions[name]
	return a, ok
}

// Names lists the action names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Actions))
	for name := range c.Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) probeList() []*Probe {
	return []*Probe{
		&c.Probes.Liveness,
		&c.Probes.Process,
		&c.Probes.Uptime,
		&c.Probes.Signal,
		&c.Probes.Temperature,
		&c.Probes.Reachability,
	}
}
