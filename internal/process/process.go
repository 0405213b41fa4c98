package process

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Spec describes a child process to launch.
type Spec struct {
	Name    string
	Command []string
	Dir     string
	Env     map[string]string
}

// Handle is exclusive ownership of a spawned process.
type Handle interface {
	PID() int
	// Terminate asks the process to exit.
	Terminate() error
	// Kill forces the process to exit.
	Kill() error
	// Done is closed once the process has exited and its output is drained,
	// or DrainTimeout after exit if something else keeps the output open.
	Done() <-chan struct{}
	// Err returns the exit error after Done is closed.
	Err() error
}

// Spawner creates processes.
type Spawner interface {
	Spawn(spec Spec) (Handle, error)
}

// DrainTimeout bounds how long output is read after the process exits.
const DrainTimeout = time.Second

type execSpawner struct {
	log          logrus.FieldLogger
	drainTimeout time.Duration
}

// NewSpawner returns a Spawner backed by os/exec. Captured output lines are
// written to log, stdout at debug and stderr at warn.
func NewSpawner(log logrus.FieldLogger) Spawner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &execSpawner{log: log, drainTimeout: DrainTimeout}
}

func (s *execSpawner) Spawn(spec Spec) (Handle, error) {
	if len(spec.Command) == 0 {
		return nil, fmt.Errorf("process %s requires a command", spec.Name)
	}

	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Dir

	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	// The pipes are os.Files so Wait returns on exit of the child even when
	// a descendant outside the process group still holds them.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("process %s stdout: %w", spec.Name, err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("process %s stderr: %w", spec.Name, err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	configureSysProcAttr(cmd)

	err = cmd.Start()
	stdoutW.Close()
	stderrW.Close()
	if err != nil {
		stdoutR.Close()
		stderrR.Close()
		return nil, fmt.Errorf("start process %s: %w", spec.Name, err)
	}

	h := &handle{
		name:   spec.Name,
		cmd:    cmd,
		exitCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	log := s.log.WithFields(logrus.Fields{"module": spec.Name, "pid": cmd.Process.Pid})

	var wg sync.WaitGroup
	wg.Add(2)
	go stream(stdoutR, log.WithField("stream", StreamStdout).Debug, &wg)
	go stream(stderrR, log.WithField("stream", StreamStderr).Warn, &wg)

	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()

	go func() {
		h.err = cmd.Wait()
		close(h.exitCh)

		timer := time.NewTimer(s.drainTimeout)
		select {
		case <-drained:
		case <-timer.C:
			log.Warn("output still held open after exit, detaching")
		}
		timer.Stop()
		stdoutR.Close()
		stderrR.Close()
		close(h.done)
	}()

	return h, nil
}

type handle struct {
	name   string
	cmd    *exec.Cmd
	exitCh chan struct{}
	done   chan struct{}
	err    error
}

func (h *handle) PID() int {
	return h.cmd.Process.Pid
}

func (h *handle) Done() <-chan struct{} {
	return h.done
}

func (h *handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

func (h *handle) exited() bool {
	select {
	case <-h.exitCh:
		return true
	default:
		return false
	}
}

func stream(r io.Reader, emit func(...any), wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		emit(scanner.Text())
	}
	// Lines longer than the scanner buffer stop the scan; keep draining so
	// the child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
}
