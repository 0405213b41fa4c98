package supervisor

import (
	"errors"
	"time"
)

// Outcome classifies the result of a lifecycle operation.
type Outcome string

const (
	Started         Outcome = "started"
	Stopped         Outcome = "stopped"
	Ignored         Outcome = "ignored"
	AlreadyRunning  Outcome = "already_running"
	NotRunning      Outcome = "not_running"
	ConfigError     Outcome = "config_error"
	MissingArtifact Outcome = "missing_artifact"
	SpawnError      Outcome = "spawn_error"
	TerminateError  Outcome = "terminate_error"
)

var (
	ErrNotConfigured   = errors.New("module not configured")
	ErrAlreadyRunning  = errors.New("module is running")
	ErrNotRunning      = errors.New("module not running")
	ErrMissingArtifact = errors.New("module script not found")
	ErrSpawn           = errors.New("start module failed")
	ErrTerminate       = errors.New("stop module failed")
	ErrStillRunning    = errors.New("process still running after kill")
)

// Result is the outcome of Start or Stop for one module.
type Result struct {
	Module  string
	Outcome Outcome
	Err     error
	PID     int
	Elapsed time.Duration
	// Ready is only set when the module has readiness checks enabled.
	Ready bool
}

// OK reports whether the module reached the requested state, including
// benign no-ops.
func (r Result) OK() bool {
	switch r.Outcome {
	case Started, Stopped, Ignored, AlreadyRunning, NotRunning:
		return true
	}
	return false
}

// Message renders the status line shown to operators.
func (r Result) Message() string {
	switch r.Outcome {
	case Started:
		return "start success."
	case Stopped:
		return "stop success."
	case AlreadyRunning:
		return "module is running"
	case NotRunning:
		return "module not running"
	case MissingArtifact:
		return "fail"
	case Ignored:
		return ""
	}
	if r.Err != nil {
		return "Except:" + r.Err.Error()
	}
	return "Except:" + string(r.Outcome)
}

// Failed returns the results whose outcome is not OK.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
