// Package status provides the bot's diagnostic surface: uptime/latency for
// /ping, a host report for /status and the owner-only shell passthrough.
package status

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ricochet2200/go-disk-usage/du"
)

type Monitor struct {
	startTime time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{startTime: time.Now()}
}

func (m *Monitor) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// FormatUptime renders a duration as a compact d/h/m/s string.
func FormatUptime(duration time.Duration) string {
	seconds := int64(duration.Seconds())

	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	seconds %= 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

type Report struct {
	Hostname     string
	OS           string
	Kernel       string
	GoVersion    string
	Goroutines   int
	BotUptime    time.Duration
	SystemUptime time.Duration
	Memory       string
	Disk         string
}

// Describe collects the host report. Individual probes that fail degrade to
// "unknown" rather than failing the command.
func (m *Monitor) Describe() Report {
	report := Report{
		OS:         runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		BotUptime:  m.Uptime(),
		Hostname:   "unknown",
		Kernel:     "unknown",
		Memory:     "unknown",
		Disk:       "unknown",
	}

	if hostname, errHost := os.Hostname(); errHost == nil {
		report.Hostname = hostname
	}

	if kernel := kernelRelease(); kernel != "" {
		report.Kernel = kernel
	}

	report.SystemUptime = systemUptime()

	if total, available, ok := memInfo(); ok {
		used := total - available
		report.Memory = fmt.Sprintf("%s / %s (%.0f%%)",
			humanize.IBytes(used), humanize.IBytes(total), float64(used)/float64(total)*100)
	}

	usage := du.NewDiskUsage("/")
	if usage.Size() > 0 {
		report.Disk = fmt.Sprintf("%s / %s (%.0f%%)",
			humanize.IBytes(usage.Used()), humanize.IBytes(usage.Size()), usage.Usage()*100)
	}

	return report
}

func (r Report) String() string {
	return fmt.Sprintf("🖥 System Status\n\n"+
		"Host: %s\n"+
		"OS: %s\n"+
		"Kernel: %s\n"+
		"Go: %s (%d goroutines)\n"+
		"Bot Uptime: %s\n"+
		"System Uptime: %s\n"+
		"Memory: %s\n"+
		"Disk: %s",
		r.Hostname, r.OS, r.Kernel, r.GoVersion, r.Goroutines,
		FormatUptime(r.BotUptime), FormatUptime(r.SystemUptime), r.Memory, r.Disk)
}

// kernelRelease reads /proc/sys/kernel/osrelease; empty on non-linux hosts.
func kernelRelease() string {
	data, errRead := os.ReadFile("/proc/sys/kernel/osrelease")
	if errRead != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}

// systemUptime reads /proc/uptime; zero on non-linux hosts.
func systemUptime() time.Duration {
	data, errRead := os.ReadFile("/proc/uptime")
	if errRead != nil {
		return 0
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0
	}

	seconds, errParse := strconv.ParseFloat(fields[0], 64)
	if errParse != nil {
		return 0
	}

	return time.Duration(seconds) * time.Second
}

// memInfo reads total and available memory in bytes from /proc/meminfo.
func memInfo() (uint64, uint64, bool) {
	file, errOpen := os.Open("/proc/meminfo")
	if errOpen != nil {
		return 0, 0, false
	}

	defer func() {
		_ = file.Close()
	}()

	var total, available uint64

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		value, errParse := strconv.ParseUint(fields[1], 10, 64)
		if errParse != nil {
			continue
		}

		switch fields[0] {
		case "MemTotal:":
			total = value * 1024
		case "MemAvailable:":
			available = value * 1024
		}
	}

	return total, available, total > 0 && available > 0
}
