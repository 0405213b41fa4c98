package supervisor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/launcher/internal/config"
	"github.com/kolkov/launcher/internal/process"
)

const sleeperScript = "#!/bin/sh\nexec sleep 30\n"

// install lays out a module root with one directory and run.sh per module.
func install(t *testing.T, modules ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range modules {
		addModule(t, root, name, sleeperScript)
	}
	return root
}

func addModule(t *testing.T, root, name, script string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if script != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0o755))
	}
}

// configure builds a config rooted at root. Each named module gets
// entry run.sh; extra is appended verbatim under modules.
func configure(t *testing.T, root string, modules []string, extra string) *config.Config {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "modules:\n  launcher:\n    root: %q\n    interpreter: /bin/sh\n", root)
	for _, name := range modules {
		fmt.Fprintf(&b, "  %s:\n    entry: run.sh\n", name)
	}
	b.WriteString(extra)
	cfg, err := config.Parse([]byte(b.String()))
	require.NoError(t, err)
	return cfg
}

func newLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)
	return logger, hook
}

func errorEntries(hook *test.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level <= logrus.ErrorLevel {
			out = append(out, e)
		}
	}
	return out
}

type fakeHandle struct {
	pid        int
	done       chan struct{}
	once       sync.Once
	mu         sync.Mutex
	termErr    error
	ignoreTerm bool
	ignoreKill bool
	terminated int
	killed     int
}

func newFakeHandle(pid int) *fakeHandle {
	return &fakeHandle{pid: pid, done: make(chan struct{})}
}

func (h *fakeHandle) PID() int { return h.pid }

func (h *fakeHandle) Terminate() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.terminated++
	if h.termErr != nil {
		return h.termErr
	}
	if !h.ignoreTerm {
		h.exit()
	}
	return nil
}

func (h *fakeHandle) Kill() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.killed++
	if !h.ignoreKill {
		h.exit()
	}
	return nil
}

func (h *fakeHandle) exit() {
	h.once.Do(func() { close(h.done) })
}

func (h *fakeHandle) Done() <-chan struct{} { return h.done }

func (h *fakeHandle) Err() error {
	select {
	case <-h.done:
		return errors.New("signal: terminated")
	default:
		return nil
	}
}

func (h *fakeHandle) setTermErr(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.termErr = err
}

type fakeSpawner struct {
	mu       sync.Mutex
	delay    time.Duration
	spawnErr error
	panicMsg string
	specs    []process.Spec
	handles  map[string]*fakeHandle
	prepare  func(name string, h *fakeHandle)
	nextPID  int
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{handles: make(map[string]*fakeHandle), nextPID: 1000}
}

func (f *fakeSpawner) Spawn(spec process.Spec) (process.Handle, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.spawnErr != nil {
		return nil, f.spawnErr
	}
	f.nextPID++
	h := newFakeHandle(f.nextPID)
	if f.prepare != nil {
		f.prepare(spec.Name, h)
	}
	f.specs = append(f.specs, spec)
	f.handles[spec.Name] = h
	return h, nil
}

func (f *fakeSpawner) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.specs {
		if s.Name == name {
			n++
		}
	}
	return n
}

func (f *fakeSpawner) handle(name string) *fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handles[name]
}

func (f *fakeSpawner) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.specs))
	for _, s := range f.specs {
		out = append(out, s.Name)
	}
	return out
}
