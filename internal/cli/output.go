package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/kolkov/launcher/internal/service"
	"github.com/kolkov/launcher/internal/supervisor"
)

// printResults writes one line per result and returns errFailed when any
// result is a failure.
func printResults(w io.Writer, results []service.Result) error {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	failed := 0
	for _, res := range results {
		mark := green("ok")
		if !res.OK {
			mark = red("FAIL")
			failed++
		}
		line := fmt.Sprintf("%-4s %s: %s", mark, res.Module, res.Message)
		if res.PID > 0 {
			line += fmt.Sprintf(" (pid %d)", res.PID)
		}
		fmt.Fprintln(w, line)
	}
	if failed > 0 {
		return errFailed(failed)
	}
	return nil
}

func printModules(w io.Writer, modules []service.Module) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tPID\tSTATUS\tUPTIME\tCOMMAND")
	for _, m := range modules {
		pid, uptime := "N/A", "N/A"
		if m.PID > 0 {
			pid = fmt.Sprint(m.PID)
		}
		if !m.StartedAt.IsZero() {
			uptime = supervisor.FormatUptime(time.Since(m.StartedAt))
		}
		state := blue(m.State)
		switch supervisor.State(m.State) {
		case supervisor.StateRunning:
			state = green(m.State)
		case supervisor.StateExited:
			state = red(m.State)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.Name, pid, state, uptime, strings.Join(m.Command, " "))
	}
	tw.Flush()
}
