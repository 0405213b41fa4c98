package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ModulesKey is the top-level section listing every module.
	ModulesKey = "modules"
	// SelfModule is the reserved entry describing the launcher itself.
	SelfModule = "launcher"
)

// Config is a read-only view over the launcher YAML document. Values are
// looked up by key path, e.g. []string{"modules", "ossftp", "port"}.
type Config struct {
	path string
	root *yaml.Node
}

// Load reads and parses the configuration at filename.
func Load(filename string) (*Config, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	cfg.path = abs
	return cfg, nil
}

// Parse builds a Config from raw YAML.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("decode: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode: top level must be a mapping, got %s", kindName(root.Kind))
	}

	if modules := lookup(root, []string{ModulesKey}); modules != nil && modules.Tag != "!!null" && modules.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode: %q must be a mapping", ModulesKey)
	}

	return &Config{root: root}, nil
}

// EnsureExists writes DefaultYAML to path when no file is present.
func EnsureExists(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultYAML), 0o644); err != nil {
		return false, fmt.Errorf("failed to create default config: %w", err)
	}
	return true, nil
}

// Path returns the absolute path the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Get returns the value at path decoded into a generic Go value, or def when
// the path is absent or null.
func (c *Config) Get(path []string, def any) any {
	node := c.node(path)
	if node == nil {
		return def
	}
	var v any
	if err := node.Decode(&v); err != nil || v == nil {
		return def
	}
	return v
}

// String returns the scalar at path as a string.
func (c *Config) String(path []string, def string) string {
	var v string
	if !c.decode(path, &v) {
		return def
	}
	return v
}

// Int returns the integer at path.
func (c *Config) Int(path []string, def int) int {
	var v int
	if !c.decode(path, &v) {
		return def
	}
	return v
}

// Bool returns the boolean at path.
func (c *Config) Bool(path []string, def bool) bool {
	var v bool
	if !c.decode(path, &v) {
		return def
	}
	return v
}

// Duration returns the duration at path. Both Go duration strings ("10s")
// and plain integers (seconds) are accepted.
func (c *Config) Duration(path []string, def time.Duration) time.Duration {
	node := c.node(path)
	if node == nil || node.Kind != yaml.ScalarNode {
		return def
	}
	if d, err := time.ParseDuration(node.Value); err == nil {
		return d
	}
	var secs int
	if err := node.Decode(&secs); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// Strings returns the sequence at path as a string slice.
func (c *Config) Strings(path []string) []string {
	var v []string
	if !c.decode(path, &v) {
		return nil
	}
	return v
}

// StringMap returns the mapping at path as string pairs.
func (c *Config) StringMap(path []string) map[string]string {
	var v map[string]string
	if !c.decode(path, &v) {
		return nil
	}
	return v
}

// Modules lists the configured module names in file order.
func (c *Config) Modules() []string {
	modules := c.node([]string{ModulesKey})
	if modules == nil {
		return nil
	}
	names := make([]string, 0, len(modules.Content)/2)
	for i := 0; i+1 < len(modules.Content); i += 2 {
		names = append(names, modules.Content[i].Value)
	}
	return names
}

// HasModule reports whether name has an entry in the modules section.
func (c *Config) HasModule(name string) bool {
	modules := c.node([]string{ModulesKey})
	if modules == nil {
		return false
	}
	for i := 0; i+1 < len(modules.Content); i += 2 {
		if modules.Content[i].Value == name {
			return true
		}
	}
	return false
}

// Module returns the key path prefix for a module's settings.
func Module(name string, key ...string) []string {
	return append([]string{ModulesKey, name}, key...)
}

func (c *Config) decode(path []string, out any) bool {
	node := c.node(path)
	if node == nil {
		return false
	}
	return node.Decode(out) == nil
}

func (c *Config) node(path []string) *yaml.Node {
	if c == nil || c.root == nil {
		return nil
	}
	node := lookup(c.root, path)
	if node == nil || node.Tag == "!!null" {
		return nil
	}
	return node
}

func lookup(node *yaml.Node, path []string) *yaml.Node {
	for _, key := range path {
		for node.Kind == yaml.AliasNode && node.Alias != nil {
			node = node.Alias
		}
		if node.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil
		}
		node = next
	}
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
