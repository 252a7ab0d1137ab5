// Package scenario loads a YAML topology fixture describing a set of
// managed interfaces into the []graph.Document shape pkg/graph.Build
// consumes: read, validate, default, in one pass.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ifworker/ifworker/pkg/config"
	"github.com/ifworker/ifworker/pkg/graph"
	"github.com/ifworker/ifworker/pkg/state"
	"github.com/ifworker/ifworker/pkg/worker"
)

// Topology is a parsed fixture: a named collection of interfaces and
// the state every one of them should be driven to.
type Topology struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Interfaces  []InterfaceDef `yaml:"interfaces"`
}

// InterfaceDef is one interface's fixture entry. Config carries inline
// XML (wicked's own document format, per original_source/); ConfigFile
// names a sibling file instead, for fixtures large enough that inlining
// hurts readability. Exactly one of the two must be set.
type InterfaceDef struct {
	Name       string        `yaml:"name"`
	Kind       string        `yaml:"kind"`
	Config     string        `yaml:"config,omitempty"`
	ConfigFile string        `yaml:"config_file,omitempty"`
	Target     string        `yaml:"target"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
}

// Load reads and validates a single topology fixture file.
func Load(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading %s: %w", path, err)
	}
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("scenario: parsing %s: %w", path, err)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("scenario: %s: %w", path, err)
	}
	for i := range t.Interfaces {
		if t.Interfaces[i].ConfigFile == "" {
			continue
		}
		t.Interfaces[i].ConfigFile = filepath.Join(filepath.Dir(path), t.Interfaces[i].ConfigFile)
	}
	return &t, nil
}

// LoadDir reads every ".yaml" fixture in dir, sorted by filename for a
// deterministic load order.
func LoadDir(dir string) ([]*Topology, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	topologies := make([]*Topology, 0, len(names))
	for _, name := range names {
		t, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		topologies = append(topologies, t)
	}
	return topologies, nil
}

func (t *Topology) validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(t.Interfaces) == 0 {
		return fmt.Errorf("at least one interface is required")
	}
	seen := make(map[string]bool, len(t.Interfaces))
	for i, iface := range t.Interfaces {
		prefix := fmt.Sprintf("interface %d", i)
		if iface.Name == "" {
			return fmt.Errorf("%s: name is required", prefix)
		}
		if seen[iface.Name] {
			return fmt.Errorf("interface %q: duplicate name", iface.Name)
		}
		seen[iface.Name] = true
		if iface.Kind == "" {
			return fmt.Errorf("interface %q: kind is required", iface.Name)
		}
		if _, err := worker.ParseKind(iface.Kind); err != nil {
			return fmt.Errorf("interface %q: %w", iface.Name, err)
		}
		if iface.Target == "" {
			return fmt.Errorf("interface %q: target is required", iface.Name)
		}
		if _, err := state.Parse(iface.Target); err != nil {
			return fmt.Errorf("interface %q: %w", iface.Name, err)
		}
		if iface.Config == "" && iface.ConfigFile == "" {
			return fmt.Errorf("interface %q: one of config or config_file is required", iface.Name)
		}
		if iface.Config != "" && iface.ConfigFile != "" {
			return fmt.Errorf("interface %q: config and config_file are mutually exclusive", iface.Name)
		}
	}
	return nil
}

// Documents resolves every interface's configuration (inline or from
// its sibling file) and returns the graph.Document slice graph.Build
// expects.
func (t *Topology) Documents() ([]graph.Document, error) {
	docs := make([]graph.Document, 0, len(t.Interfaces))
	for _, iface := range t.Interfaces {
		cfg, err := iface.resolveConfig()
		if err != nil {
			return nil, fmt.Errorf("scenario: interface %q: %w", iface.Name, err)
		}
		kind, err := worker.ParseKind(iface.Kind)
		if err != nil {
			return nil, err
		}
		docs = append(docs, graph.Document{Name: iface.Name, Kind: kind, Config: cfg})
	}
	return docs, nil
}

func (iface InterfaceDef) resolveConfig() (*config.Node, error) {
	if iface.Config != "" {
		return config.ParseString(iface.Config)
	}
	data, err := os.ReadFile(iface.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", iface.ConfigFile, err)
	}
	return config.ParseString(string(data))
}

// Targets resolves every interface's target state, keyed by name, for
// a caller to apply to the built graph's workers before the scheduler's
// first pass.
func (t *Topology) Targets() (map[string]state.State, error) {
	out := make(map[string]state.State, len(t.Interfaces))
	for _, iface := range t.Interfaces {
		s, err := state.Parse(iface.Target)
		if err != nil {
			return nil, err
		}
		out[iface.Name] = s
	}
	return out, nil
}

// Timeouts resolves every interface's configured timeout override,
// keyed by name; an interface with no override is omitted.
func (t *Topology) Timeouts() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, iface := range t.Interfaces {
		if iface.Timeout > 0 {
			out[iface.Name] = iface.Timeout
		}
	}
	return out
}
