package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kioskpanel/internal/config"
	"kioskpanel/internal/remote"
)

func newControl(r *fakeRunner) (*ControlService, *Journal, *[]time.Duration) {
	journal := NewJournal(10)
	store := config.NewCatalogStore(config.DefaultCatalog())
	svc := NewControlService(r, store, journal, "http://dashboard.local", nil)

	var slept []time.Duration
	svc.sleep = func(d time.Duration) { slept = append(slept, d) }
	return svc, journal, &slept
}

func TestRefreshSuccess(t *testing.T) {
	r := newFakeRunner()
	svc, journal, _ := newControl(r)

	msg, err := svc.Refresh()

	require.NoError(t, err)
	assert.Equal(t, "Dashboard refreshed", msg)
	assert.Equal(t, []string{"DISPLAY=:0 xdotool key F5"}, r.commands())

	last := journal.Last()
	assert.Equal(t, "Dashboard refreshed (F5)", last.Message)
	assert.True(t, last.Success)
}

func TestActionFailureRecordsStderr(t *testing.T) {
	r := newFakeRunner().on("sudo systemctl restart k3s-agent", failed(-1, remote.TimeoutMessage))
	svc, journal, _ := newControl(r)

	_, err := svc.RestartK3s()

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, remote.TimeoutMessage, err.Error())
	assert.Equal(t, config.ActionRestartK3s, cmdErr.Action)
	assert.Equal(t, -1, cmdErr.Result.ExitCode)
	assert.Equal(t, 30*time.Second, r.calls[0].Timeout)

	last := journal.Last()
	assert.Equal(t, "K3s restart failed: Command timed out", last.Message)
	assert.False(t, last.Success)
}

func TestSimpleActions(t *testing.T) {
	tests := []struct {
		name    string
		run     func(*ControlService) (string, error)
		command string
		record  string
	}{
		{"hard refresh", (*ControlService).HardRefresh, "DISPLAY=:0 xdotool key ctrl+shift+r", "Hard refresh (cleared cache)"},
		{"restart firefox", (*ControlService).RestartFirefox, "systemctl --user restart firefox-dashboard.service || pkill -9 firefox", "Firefox restarted"},
		{"restart k3s", (*ControlService).RestartK3s, "sudo systemctl restart k3s-agent", "K3s agent restarted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRunner()
			svc, journal, _ := newControl(r)

			_, err := tt.run(svc)

			require.NoError(t, err)
			assert.Equal(t, []string{tt.command}, r.commands())
			assert.Equal(t, tt.record, journal.Last().Message)
		})
	}
}

func TestSwitchDashboard(t *testing.T) {
	r := newFakeRunner()
	svc, journal, slept := newControl(r)

	msg, err := svc.SwitchDashboard("https://grafana.lan/d/home?kiosk&refresh=30s")

	require.NoError(t, err)
	assert.Equal(t, "Switched to https://grafana.lan/d/home?kiosk&refresh=30s", msg)
	assert.Equal(t, []string{
		"DISPLAY=:0 xdotool key ctrl+l",
		"DISPLAY=:0 xdotool type 'https://grafana.lan/d/home?kiosk&refresh=30s'",
		"DISPLAY=:0 xdotool key Return",
	}, r.commands())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, *slept)
	assert.Equal(t, "Switched to https://grafana.lan/d/home?kiosk&refresh=30s", journal.Last().Message)
}

func TestSwitchDashboardDefaultsToConfiguredURL(t *testing.T) {
	r := newFakeRunner()
	svc, _, _ := newControl(r)

	msg, err := svc.SwitchDashboard("")

	require.NoError(t, err)
	assert.Equal(t, "Switched to http://dashboard.local", msg)
	assert.Contains(t, r.commands(), "DISPLAY=:0 xdotool type 'http://dashboard.local'")
}

func TestSwitchDashboardStopsAtFirstFailure(t *testing.T) {
	r := newFakeRunner().on("DISPLAY=:0 xdotool type", failed(1, "Can't open display: :0"))
	svc, journal, _ := newControl(r)

	_, err := svc.SwitchDashboard("http://other.local")

	require.Error(t, err)
	assert.Equal(t, "Can't open display: :0", err.Error())
	assert.Len(t, r.commands(), 2)
	assert.Equal(t, "Switch failed: Can't open display: :0", journal.Last().Message)
}

func TestSwitchDashboardRejectsBadURL(t *testing.T) {
	r := newFakeRunner()
	svc, journal, _ := newControl(r)

	_, err := svc.SwitchDashboard(`"; rm -rf / #`)

	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Empty(t, r.commands())
	assert.Equal(t, "Ready", journal.Last().Message)
}

func TestRebootIsFireAndForget(t *testing.T) {
	r := newFakeRunner().on("sudo reboot", failed(-1, "wait: remote command exited without exit status or exit signal"))
	svc, journal, _ := newControl(r)

	msg, err := svc.Reboot()

	require.NoError(t, err)
	assert.Equal(t, "Reboot initiated", msg)
	require.Len(t, r.calls, 1)
	assert.Equal(t, "sudo reboot", r.calls[0].Command)
	assert.Equal(t, 5*time.Second, r.calls[0].Timeout)
	assert.True(t, journal.Last().Success)
}

func TestLogs(t *testing.T) {
	r := newFakeRunner().on("journalctl", ok("line one\nline two"))
	svc, journal, _ := newControl(r)

	lines, err := svc.Logs(0)

	require.NoError(t, err)
	assert.Equal(t, []string{"line one", "line two"}, lines)
	assert.Equal(t, []string{"journalctl --user -u firefox-dashboard -n 20 --no-pager"}, r.commands())
	assert.Equal(t, "Ready", journal.Last().Message, "reading logs is not an action")

	_, err = svc.Logs(10_000)
	require.NoError(t, err)
	assert.Equal(t, "journalctl --user -u firefox-dashboard -n 500 --no-pager", r.commands()[1])
}

func TestLogsFailure(t *testing.T) {
	r := newFakeRunner().on("journalctl", failed(1, "No journal files were found."))
	svc, _, _ := newControl(r)

	_, err := svc.Logs(5)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "No journal files were found.", cmdErr.Error())
}

func TestPerformUnknownAction(t *testing.T) {
	svc, _, _ := newControl(newFakeRunner())

	_, err := svc.Perform("self-destruct", Vars{})

	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestOverriddenCommandsKeepJournalMessages(t *testing.T) {
	cat, err := config.ParseCatalog([]byte(`
actions:
  refresh:
    commands: ["DISPLAY=:1 xdotool key F5"]
  reboot:
    commands: ["sudo systemctl reboot"]
`))
	require.NoError(t, err)

	r := newFakeRunner().on("sudo systemctl reboot", failed(-1, "connection reset by peer"))
	journal := NewJournal(10)
	svc := NewControlService(r, config.NewCatalogStore(cat), journal, "http://dashboard.local", nil)

	msg, err := svc.Refresh()
	require.NoError(t, err)
	assert.Equal(t, "Dashboard refreshed", msg)
	assert.Equal(t, "Dashboard refreshed (F5)", journal.Last().Message)

	msg, err = svc.Reboot()
	require.NoError(t, err)
	assert.Equal(t, "Reboot initiated", msg)
	assert.Equal(t, "Remote host rebooting...", journal.Last().Message)
	assert.Equal(t, []string{"DISPLAY=:1 xdotool key F5", "sudo systemctl reboot"}, r.commands())
}
