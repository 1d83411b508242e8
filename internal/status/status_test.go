package status_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"appealbot/internal/domain"
	"appealbot/internal/status"
)

func TestFormatUptime(t *testing.T) {
	testCases := []struct {
		duration time.Duration
		expected string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{5*time.Minute + 3*time.Second, "5m 3s"},
		{2*time.Hour + 5*time.Minute, "2h 5m 0s"},
		{50*time.Hour + 90*time.Second, "2d 2h 1m 30s"},
	}

	for _, testCase := range testCases {
		require.Equal(t, testCase.expected, status.FormatUptime(testCase.duration))
	}
}

func TestMonitorUptime(t *testing.T) {
	monitor := status.NewMonitor()
	require.GreaterOrEqual(t, monitor.Uptime(), time.Duration(0))

	report := monitor.Describe()
	require.NotEmpty(t, report.GoVersion)
	require.Contains(t, report.String(), "System Status")
}

func TestRunShell(t *testing.T) {
	result, errRun := status.RunShell(t.Context(), "echo hello", time.Second)
	require.NoError(t, errRun)
	require.Equal(t, "hello\n", result.Stdout)
	require.Equal(t, 0, result.ExitCode)
}

func TestRunShellExitCode(t *testing.T) {
	result, errRun := status.RunShell(t.Context(), "exit 3", time.Second)
	require.NoError(t, errRun)
	require.Equal(t, 3, result.ExitCode)
}

func TestRunShellStderr(t *testing.T) {
	result, errRun := status.RunShell(t.Context(), "echo oops >&2", time.Second)
	require.NoError(t, errRun)
	require.Equal(t, "oops\n", result.Stderr)
}

func TestRunShellTimeout(t *testing.T) {
	_, errRun := status.RunShell(t.Context(), "sleep 1", 50*time.Millisecond)
	require.ErrorIs(t, errRun, domain.ErrCommandTimeout)
}
