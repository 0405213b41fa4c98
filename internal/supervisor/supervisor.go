package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kolkov/launcher/internal/config"
	"github.com/kolkov/launcher/internal/launch"
	"github.com/kolkov/launcher/internal/logging"
	"github.com/kolkov/launcher/internal/metrics"
	"github.com/kolkov/launcher/internal/probe"
	"github.com/kolkov/launcher/internal/process"
)

const (
	DefaultStopTimeout  = 10 * time.Second
	DefaultReadyTimeout = 10 * time.Second
)

type record struct {
	name      string
	id        string
	handle    process.Handle
	startedAt time.Time
	command   []string
}

type moduleLock struct {
	mu   sync.Mutex
	refs int
}

// Supervisor starts and stops modules and owns the table of running ones.
// It is safe for concurrent use.
type Supervisor struct {
	mu      sync.RWMutex
	cfg     *config.Config
	records map[string]*record
	order   []string
	locks   map[string]*moduleLock

	spawner     process.Spawner
	rules       launch.Rules
	log         logrus.FieldLogger
	stopTimeout time.Duration
	probeEvery  time.Duration
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithSpawner replaces the os/exec spawner.
func WithSpawner(sp process.Spawner) Option {
	return func(s *Supervisor) {
		s.spawner = sp
	}
}

// WithLogger sets the logger used for lifecycle and module output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Supervisor) {
		s.log = l
	}
}

// WithRules replaces the built-in launch rules.
func WithRules(r launch.Rules) Option {
	return func(s *Supervisor) {
		s.rules = r
	}
}

// WithStopTimeout overrides modules.launcher.stop_timeout.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		s.stopTimeout = d
	}
}

// New builds a supervisor with an empty table.
func New(cfg *config.Config, opts ...Option) *Supervisor {
	s := &Supervisor{
		cfg:        cfg,
		records:    make(map[string]*record),
		locks:      make(map[string]*moduleLock),
		rules:      launch.DefaultRules(),
		log:        logrus.StandardLogger(),
		probeEvery: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.spawner == nil {
		s.spawner = process.NewSpawner(s.log)
	}
	return s
}

// Config returns the active configuration.
func (s *Supervisor) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Start launches name unless it is already running.
func (s *Supervisor) Start(ctx context.Context, name string) (res Result) {
	begin := time.Now()
	res = Result{Module: name}
	log := s.log.WithField("module", name)

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = SpawnError
			res.Err = fmt.Errorf("%w: %v", ErrSpawn, r)
			log.WithField("stack", string(debug.Stack())).Errorf("start module %s fail: %v", name, r)
		}
		res.Elapsed = time.Since(begin)
		if res.Outcome != Ignored {
			metrics.ObserveStart(name, string(res.Outcome), res.Elapsed)
		}
	}()

	cfg := s.Config()
	root := launch.Root(cfg)
	if !isDir(filepath.Join(root, name)) {
		log.Debugf("no module directory for %s under %s", name, root)
		res.Outcome = Ignored
		return res
	}

	if name == config.SelfModule {
		log.Errorf("module %s is the launcher itself", name)
		res.Outcome = ConfigError
		res.Err = fmt.Errorf("%w: %s is reserved", ErrNotConfigured, name)
		return res
	}

	if !cfg.HasModule(name) {
		log.Errorf("module not exist %s", name)
		res.Outcome = ConfigError
		res.Err = fmt.Errorf("%w: %s", ErrNotConfigured, name)
		return res
	}

	unlock := s.lockModule(name)
	defer unlock()

	if rec := s.lookup(name); rec != nil {
		log.Errorf("module %s is running", name)
		res.Outcome = AlreadyRunning
		res.Err = ErrAlreadyRunning
		res.PID = rec.handle.PID()
		return res
	}

	params := s.rules.Build(cfg, root, name)
	if !isFile(params.Script) {
		logging.Critical(log, "start module script not exist:%s", params.Script)
		res.Outcome = MissingArtifact
		res.Err = fmt.Errorf("%w: %s", ErrMissingArtifact, params.Script)
		return res
	}

	spec := params.Spec()
	h, err := s.spawner.Spawn(spec)
	if err != nil {
		log.WithError(err).Errorf("start module %s fail", name)
		res.Outcome = SpawnError
		res.Err = fmt.Errorf("%w: %w", ErrSpawn, err)
		return res
	}

	rec := &record{
		name:      name,
		id:        uuid.NewString(),
		handle:    h,
		startedAt: time.Now(),
		command:   spec.Command,
	}
	s.insert(rec)
	metrics.SetModuleRunning(name, true)

	log.WithFields(logrus.Fields{"pid": h.PID(), "instance": rec.id}).Infof("%s started", name)
	res.Outcome = Started
	res.PID = h.PID()

	if cfg.Bool(config.Module(name, "wait_ready"), false) {
		res.Ready = s.waitReady(ctx, cfg, name, h, log)
	}
	return res
}

func (s *Supervisor) waitReady(ctx context.Context, cfg *config.Config, name string, h process.Handle, log logrus.FieldLogger) bool {
	port := cfg.Int(config.Module(name, "control_port"), 0)
	if port <= 0 {
		log.Warnf("module %s has wait_ready without a control_port", name)
		return false
	}
	timeout := cfg.Duration(config.Module(name, "ready_timeout"), DefaultReadyTimeout)
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	if err := probe.WaitReady(readyCtx, probe.NewTCP(addr), s.probeEvery, h.Done()); err != nil {
		log.WithError(err).Warnf("module %s not ready on %s", name, addr)
		return false
	}
	log.Infof("module %s ready on %s", name, addr)
	return true
}

// Stop terminates name and removes it from the table once it has exited.
// A process that ignores the termination request is killed after the stop
// timeout.
func (s *Supervisor) Stop(ctx context.Context, name string) (res Result) {
	begin := time.Now()
	res = Result{Module: name}
	log := s.log.WithField("module", name)

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = TerminateError
			res.Err = fmt.Errorf("%w: %v", ErrTerminate, r)
			log.WithField("stack", string(debug.Stack())).Errorf("stop module %s fail: %v", name, r)
		}
		res.Elapsed = time.Since(begin)
		if res.Outcome != NotRunning {
			metrics.ObserveStop(name, string(res.Outcome), res.Elapsed)
		}
	}()

	unlock := s.lockModule(name)
	defer unlock()

	rec := s.lookup(name)
	if rec == nil {
		log.Errorf("module %s not running", name)
		res.Outcome = NotRunning
		res.Err = ErrNotRunning
		return res
	}
	res.PID = rec.handle.PID()

	if err := s.terminate(ctx, rec, log); err != nil {
		log.WithError(err).Errorf("stop module %s fail", name)
		res.Outcome = TerminateError
		res.Err = fmt.Errorf("%w: %w", ErrTerminate, err)
		return res
	}

	s.remove(name)
	metrics.SetModuleRunning(name, false)
	log.Infof("module %s stopped", name)
	res.Outcome = Stopped
	return res
}

func (s *Supervisor) terminate(ctx context.Context, rec *record, log logrus.FieldLogger) error {
	if err := rec.handle.Terminate(); err != nil {
		return err
	}

	timer := time.NewTimer(s.effectiveStopTimeout())
	defer timer.Stop()

	select {
	case <-rec.handle.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	log.Warnf("module %s ignored termination, killing", rec.name)
	if err := rec.handle.Kill(); err != nil {
		return err
	}
	timer.Reset(s.effectiveStopTimeout())
	select {
	case <-rec.handle.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrStillRunning
	}
}

// StartAllAuto starts every configured module except the launcher itself,
// in configuration order. Failures never abort the batch.
func (s *Supervisor) StartAllAuto(ctx context.Context) []Result {
	names := s.Config().Modules()
	results := make([]Result, 0, len(names))
	for _, name := range names {
		if name == config.SelfModule {
			continue
		}
		res := s.Start(ctx, name)
		s.log.WithField("module", name).Infof("start %s time cost %d", name, res.Elapsed.Milliseconds())
		results = append(results, res)
	}
	return results
}

// StopAll stops every running module in start order.
func (s *Supervisor) StopAll(ctx context.Context) []Result {
	names := s.Running()
	results := make([]Result, 0, len(names))
	for _, name := range names {
		results = append(results, s.Stop(ctx, name))
	}
	return results
}

// Restart stops name if it is running and starts it again.
func (s *Supervisor) Restart(ctx context.Context, name string) []Result {
	stop := s.Stop(ctx, name)
	if stop.Outcome == TerminateError {
		return []Result{stop}
	}
	return []Result{stop, s.Start(ctx, name)}
}

// Reload stops every module, swaps in cfg and auto-starts again.
func (s *Supervisor) Reload(ctx context.Context, cfg *config.Config) []Result {
	results := s.StopAll(ctx)

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	return append(results, s.StartAllAuto(ctx)...)
}

// IsRunning reports whether name has an entry in the table.
func (s *Supervisor) IsRunning(name string) bool {
	return s.lookup(name) != nil
}

// Running returns the names in the table in start order.
func (s *Supervisor) Running() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

func (s *Supervisor) effectiveStopTimeout() time.Duration {
	if s.stopTimeout > 0 {
		return s.stopTimeout
	}
	d := s.Config().Duration(config.Module(config.SelfModule, "stop_timeout"), DefaultStopTimeout)
	if d <= 0 {
		return DefaultStopTimeout
	}
	return d
}

// lockModule serialises lifecycle operations on one module without
// blocking the others. A lock lives only while someone holds or waits for it.
func (s *Supervisor) lockModule(name string) func() {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &moduleLock{}
		s.locks[name] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		defer s.mu.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, name)
		}
	}
}

func (s *Supervisor) lookup(name string) *record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[name]
}

func (s *Supervisor) insert(rec *record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.name] = rec
	s.order = append(s.order, rec.name)
}

func (s *Supervisor) remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
