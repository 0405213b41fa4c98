package service

import (
	"context"

	"github.com/kolkov/launcher/internal/supervisor"
)

type supervisorAdapter struct {
	*supervisor.Supervisor
}

// AsService exposes s as a ModuleService.
func AsService(s *supervisor.Supervisor) ModuleService {
	return &supervisorAdapter{s}
}

func (a *supervisorAdapter) Start(ctx context.Context, name string) Result {
	return FromResult(a.Supervisor.Start(ctx, name))
}

func (a *supervisorAdapter) Stop(ctx context.Context, name string) Result {
	return FromResult(a.Supervisor.Stop(ctx, name))
}

func (a *supervisorAdapter) Restart(ctx context.Context, name string) []Result {
	return FromResults(a.Supervisor.Restart(ctx, name))
}

func (a *supervisorAdapter) StartAll(ctx context.Context) []Result {
	return FromResults(a.Supervisor.StartAllAuto(ctx))
}

func (a *supervisorAdapter) StopAll(ctx context.Context) []Result {
	return FromResults(a.Supervisor.StopAll(ctx))
}

func (a *supervisorAdapter) Status(context.Context) []Module {
	infos := a.Supervisor.Status()
	out := make([]Module, 0, len(infos))
	for _, info := range infos {
		m := Module{
			Name:      info.Name,
			State:     string(info.State),
			PID:       info.PID,
			Instance:  info.Instance,
			StartedAt: info.StartedAt,
			Command:   info.Command,
		}
		if info.ExitErr != nil {
			m.ExitError = info.ExitErr.Error()
		}
		out = append(out, m)
	}
	return out
}

// FromResult converts a supervisor result.
func FromResult(r supervisor.Result) Result {
	out := Result{
		Module:    r.Module,
		Outcome:   string(r.Outcome),
		Message:   r.Message(),
		PID:       r.PID,
		ElapsedMS: r.Elapsed.Milliseconds(),
		Ready:     r.Ready,
		OK:        r.OK(),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

// FromResults converts a batch of supervisor results.
func FromResults(rs []supervisor.Result) []Result {
	out := make([]Result, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromResult(r))
	}
	return out
}
