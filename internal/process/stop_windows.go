//go:build windows

package process

import (
	"errors"
	"fmt"
	"os"
)

func (h *handle) Terminate() error {
	if h.exited() {
		return nil
	}
	if err := h.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		// Interrupt is unsupported for most windows processes; fall back.
		return h.Kill()
	}
	return nil
}

func (h *handle) Kill() error {
	if h.exited() {
		return nil
	}
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill process %s: %w", h.name, err)
	}
	return nil
}
