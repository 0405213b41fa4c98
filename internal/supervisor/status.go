package supervisor

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/kolkov/launcher/internal/config"
)

// State is the display state of a module.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	// StateExited means the module is still in the table but its process
	// has already exited on its own.
	StateExited State = "exited"
)

// ModuleInfo is a point-in-time view of one module.
type ModuleInfo struct {
	Name      string
	Instance  string
	PID       int
	State     State
	StartedAt time.Time
	Command   []string
	ExitErr   error
}

// Status lists every configured module (except the launcher) followed by
// any running module missing from the configuration.
func (s *Supervisor) Status() []ModuleInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool, len(s.records))
	var infos []ModuleInfo
	add := func(name string) {
		seen[name] = true
		info := ModuleInfo{Name: name, State: StateStopped}
		if rec, ok := s.records[name]; ok {
			info.Instance = rec.id
			info.PID = rec.handle.PID()
			info.StartedAt = rec.startedAt
			info.Command = append([]string(nil), rec.command...)
			info.State = StateRunning
			select {
			case <-rec.handle.Done():
				info.State = StateExited
				info.ExitErr = rec.handle.Err()
			default:
			}
		}
		infos = append(infos, info)
	}

	for _, name := range s.cfg.Modules() {
		if name != config.SelfModule {
			add(name)
		}
	}
	for _, name := range s.order {
		if !seen[name] {
			add(name)
		}
	}
	return infos
}

// PrintStatus writes a colored status table to w.
func (s *Supervisor) PrintStatus(w io.Writer) {
	statuses := s.Status()

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()
	magenta := color.New(color.FgMagenta, color.Bold).SprintFunc()

	maxNameLen := 8
	maxPidLen := 3
	for _, info := range statuses {
		if len(info.Name) > maxNameLen {
			maxNameLen = len(info.Name)
		}
		if pidLen := len(fmt.Sprint(info.PID)); info.PID > 0 && pidLen > maxPidLen {
			maxPidLen = pidLen
		}
	}

	nameFormat := fmt.Sprintf("%%-%ds", maxNameLen)
	pidFormat := fmt.Sprintf("%%-%ds", maxPidLen)
	rule := strings.Repeat("-", maxNameLen+maxPidLen+25)

	fmt.Fprintln(w)
	fmt.Fprintln(w, magenta("MODULE LAUNCHER STATUS"))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s | %s | %-8s | %-8s\n",
		cyan(fmt.Sprintf(nameFormat, "Module")),
		cyan(fmt.Sprintf(pidFormat, "PID")),
		cyan("Status"),
		cyan("Uptime"),
	)
	fmt.Fprintln(w, rule)

	running, exited := 0, 0
	for _, info := range statuses {
		pidStr := "N/A"
		if info.PID > 0 {
			pidStr = fmt.Sprint(info.PID)
		}
		uptime := "N/A"
		if !info.StartedAt.IsZero() {
			uptime = FormatUptime(time.Since(info.StartedAt))
		}

		var statusColor func(a ...interface{}) string
		switch info.State {
		case StateRunning:
			statusColor = green
			running++
		case StateExited:
			statusColor = red
			exited++
		default:
			statusColor = blue
		}

		fmt.Fprintf(w, "%s | %s | %s | %-8s\n",
			fmt.Sprintf(nameFormat, info.Name),
			fmt.Sprintf(pidFormat, pidStr),
			statusColor(fmt.Sprintf("%-8s", info.State)),
			uptime,
		)
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Modules: %d | %s | %s\n\n",
		len(statuses),
		green(fmt.Sprintf("Running: %d", running)),
		yellow(fmt.Sprintf("Exited: %d", exited)),
	)
}

// FormatUptime renders d as MMmSSs.
func FormatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d - m*time.Minute) / time.Second
	return fmt.Sprintf("%02dm%02ds", m, s)
}
