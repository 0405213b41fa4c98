package supervisor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sirupsen/logrus"
)

// logPaneHook copies log entries into the TUI log pane.
type logPaneHook struct {
	w io.Writer
}

func (h *logPaneHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *logPaneHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	_, err = io.WriteString(h.w, line)
	return err
}

// RunTUI shows a live module table until ctx ends or the user quits.
// Keys: s start, x stop, r restart, q quit. While running, logger output
// goes to the log pane instead of its usual writer.
func (s *Supervisor) RunTUI(ctx context.Context, logger *logrus.Logger) error {
	app := tview.NewApplication()

	table := tview.NewTable().
		SetBorders(true).
		SetFixed(1, 1).
		SetSelectable(true, false)

	headerStyle := tcell.Style{}.
		Foreground(tcell.ColorYellow).
		Background(tcell.ColorBlack).
		Bold(true)

	for col, title := range []string{"Module", "PID", "Status", "Uptime", "Instance"} {
		table.SetCell(0, col, tview.NewTableCell(title).SetStyle(headerStyle).SetSelectable(false))
	}

	logView := tview.NewTextView().
		SetDynamicColors(true).
		SetMaxLines(500).
		SetChangedFunc(func() {
			app.Draw()
		})
	logView.SetBorder(true).SetTitle("Logs (s start, x stop, r restart, q quit)")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(table, 0, 1, true).
		AddItem(logView, 10, 1, false)

	if logger != nil {
		prevOut := logger.Out
		prevHooks := logger.ReplaceHooks(make(logrus.LevelHooks))
		logger.AddHook(&logPaneHook{w: tview.ANSIWriter(logView)})
		logger.SetOutput(io.Discard)
		defer func() {
			logger.ReplaceHooks(prevHooks)
			logger.SetOutput(prevOut)
		}()
	}

	updateTable := func() {
		row := 1
		for _, info := range s.Status() {
			pidStr := "N/A"
			if info.PID > 0 {
				pidStr = fmt.Sprint(info.PID)
			}
			uptime := "N/A"
			if !info.StartedAt.IsZero() {
				uptime = FormatUptime(time.Since(info.StartedAt))
			}

			var color tcell.Color
			switch info.State {
			case StateRunning:
				color = tcell.ColorGreen
			case StateExited:
				color = tcell.ColorRed
			default:
				color = tcell.ColorBlue
			}

			table.SetCell(row, 0, tview.NewTableCell(info.Name).SetReference(info.Name))
			table.SetCell(row, 1, tview.NewTableCell(pidStr))
			table.SetCell(row, 2, tview.NewTableCell(string(info.State)).SetTextColor(color))
			table.SetCell(row, 3, tview.NewTableCell(uptime))
			table.SetCell(row, 4, tview.NewTableCell(info.Instance))
			row++
		}
		for i := table.GetRowCount() - 1; i >= row; i-- {
			table.RemoveRow(i)
		}
	}

	selected := func() string {
		row, _ := table.GetSelection()
		if row < 1 {
			return ""
		}
		name, _ := table.GetCell(row, 0).GetReference().(string)
		return name
	}

	// Lifecycle calls can block on a slow stop, keep them off the UI loop.
	act := func(fn func(context.Context, string)) {
		if name := selected(); name != "" {
			go func() {
				fn(ctx, name)
				app.QueueUpdateDraw(updateTable)
			}()
		}
	}

	updateTable()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				app.Stop()
				return
			case <-ticker.C:
				app.QueueUpdateDraw(updateTable)
			}
		}
	}()

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyTab:
			if app.GetFocus() == table {
				app.SetFocus(logView)
			} else {
				app.SetFocus(table)
			}
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q':
				app.Stop()
				return nil
			case 's':
				act(func(ctx context.Context, name string) { s.Start(ctx, name) })
				return nil
			case 'x':
				act(func(ctx context.Context, name string) { s.Stop(ctx, name) })
				return nil
			case 'r':
				act(func(ctx context.Context, name string) { s.Restart(ctx, name) })
				return nil
			}
		}
		return event
	})

	return app.SetRoot(flex, true).SetFocus(table).Run()
}
