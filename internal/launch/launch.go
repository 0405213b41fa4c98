// Package launch turns module configuration into a command line.
package launch

import (
	"fmt"
	"path/filepath"

	"github.com/kolkov/launcher/internal/config"
	"github.com/kolkov/launcher/internal/process"
)

const (
	DefaultInterpreter = "python3"
	DefaultLogLevel    = "INFO"
	DefaultEntry       = "main.py"
)

// Params are the launch parameters resolved for one module.
type Params struct {
	Module      string
	Interpreter string
	Script      string
	Port        int
	LogLevel    string
	Flags       []string
	Env         map[string]string
	Dir         string
}

// Command returns the argv: interpreter, script, --port, --loglevel, flags.
func (p Params) Command() []string {
	argv := make([]string, 0, 4+len(p.Flags))
	if p.Interpreter != "" {
		argv = append(argv, p.Interpreter)
	}
	argv = append(argv, p.Script)
	if p.Port > 0 {
		argv = append(argv, fmt.Sprintf("--port=%d", p.Port))
	}
	if p.LogLevel != "" {
		argv = append(argv, "--loglevel="+p.LogLevel)
	}
	return append(argv, p.Flags...)
}

// Spec converts the parameters into a process spec.
func (p Params) Spec() process.Spec {
	return process.Spec{
		Name:    p.Module,
		Command: p.Command(),
		Dir:     p.Dir,
		Env:     p.Env,
	}
}

// Rule builds launch parameters for a module rooted at dir.
type Rule func(cfg *config.Config, name, dir string) Params

// Rules maps module names to their argument-construction rule. Modules
// without an entry use Generic.
type Rules map[string]Rule

// DefaultRules returns the built-in rules.
func DefaultRules() Rules {
	return Rules{"ossftp": OSSFTP}
}

// Build resolves launch parameters for name under root.
func (r Rules) Build(cfg *config.Config, root, name string) Params {
	rule, ok := r[name]
	if !ok || rule == nil {
		rule = Generic
	}
	return rule(cfg, name, filepath.Join(root, name))
}

// Root returns the installation root holding one directory per module.
// Relative roots resolve against the config file's directory.
func Root(cfg *config.Config) string {
	root := cfg.String(config.Module(config.SelfModule, "root"), ".")
	if filepath.IsAbs(root) {
		return filepath.Clean(root)
	}
	if cfg.Path() != "" {
		return filepath.Join(filepath.Dir(cfg.Path()), root)
	}
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}

func interpreter(cfg *config.Config, name string) string {
	fallback := cfg.String(config.Module(config.SelfModule, "interpreter"), DefaultInterpreter)
	return cfg.String(config.Module(name, "interpreter"), fallback)
}

// Generic launches <dir>/<entry> with the module's port, log level, extra
// args and environment.
func Generic(cfg *config.Config, name, dir string) Params {
	return Params{
		Module:      name,
		Interpreter: interpreter(cfg, name),
		Script:      filepath.Join(dir, cfg.String(config.Module(name, "entry"), DefaultEntry)),
		Port:        cfg.Int(config.Module(name, "port"), 0),
		LogLevel:    cfg.String(config.Module(name, "log_level"), DefaultLogLevel),
		Flags:       cfg.Strings(config.Module(name, "args")),
		Env:         cfg.StringMap(config.Module(name, "env")),
		Dir:         dir,
	}
}

// ossftpFlags are passed through to the FTP front end when configured.
var ossftpFlags = []string{
	"masquerade_address",
	"listen_address",
	"passive_ports",
	"buff_size",
	"bucket_endpoints",
	"internal",
	"protocol",
}

// OSSFTP launches the FTP front end: ftpserver.py on port 21 by default.
func OSSFTP(cfg *config.Config, name, dir string) Params {
	p := Params{
		Module:      name,
		Interpreter: interpreter(cfg, name),
		Script:      filepath.Join(dir, cfg.String(config.Module(name, "entry"), "ftpserver.py")),
		Port:        cfg.Int(config.Module(name, "port"), 21),
		LogLevel:    cfg.String(config.Module(name, "log_level"), DefaultLogLevel),
		Env:         cfg.StringMap(config.Module(name, "env")),
		Dir:         dir,
	}
	for _, key := range ossftpFlags {
		v := cfg.Get(config.Module(name, key), nil)
		if v == nil {
			continue
		}
		s := fmt.Sprint(v)
		if s == "" {
			continue
		}
		p.Flags = append(p.Flags, fmt.Sprintf("--%s=%s", key, s))
	}
	return p
}
