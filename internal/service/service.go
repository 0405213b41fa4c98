package service

import (
	"context"
	"time"
)

// Result is a transport-neutral copy of a supervisor result.
type Result struct {
	Module    string
	Outcome   string
	Message   string
	Error     string
	PID       int
	ElapsedMS int64
	Ready     bool
	OK        bool
}

// Module is a transport-neutral copy of a module status row.
type Module struct {
	Name      string
	State     string
	PID       int
	Instance  string
	StartedAt time.Time
	Command   []string
	ExitError string
}

// ModuleService is the control surface exposed to remote callers.
type ModuleService interface {
	Start(ctx context.Context, name string) Result
	Stop(ctx context.Context, name string) Result
	Restart(ctx context.Context, name string) []Result
	StartAll(ctx context.Context) []Result
	StopAll(ctx context.Context) []Result
	Status(ctx context.Context) []Module
}
