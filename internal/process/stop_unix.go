//go:build !windows

package process

import (
	"errors"
	"fmt"
	"syscall"
)

func (h *handle) Terminate() error {
	return h.signalGroup(syscall.SIGTERM)
}

func (h *handle) Kill() error {
	return h.signalGroup(syscall.SIGKILL)
}

func (h *handle) signalGroup(sig syscall.Signal) error {
	if h.exited() {
		return nil
	}
	if err := syscall.Kill(-h.cmd.Process.Pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("signal process group %s: %w", h.name, err)
	}
	return nil
}
