// Package tools holds the declarative registry of managed tools: each
// tool is a named set of link specs plus optional post-setup notes,
// loaded from an embedded default config merged with a per-repository
// override file.
package tools

import (
	_ "embed"
	stderrors "errors"
	"io/fs"
	"sort"

	ktoml "github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/dotpilot-sh/dotpilot/pkg/errors"
	"github.com/dotpilot-sh/dotpilot/pkg/linker"
	"github.com/dotpilot-sh/dotpilot/pkg/paths"
)

//go:embed tools.toml
var defaultConfig []byte

// LinkDef declares one link in the tools config. Source is relative to
// the dotfiles root; Target may start with ~.
type LinkDef struct {
	Name   string `koanf:"name"`
	Source string `koanf:"source"`
	Target string `koanf:"target"`
}

// Tool is one managed tool's descriptor
type Tool struct {
	Name        string    `koanf:"-"`
	Description string    `koanf:"description"`
	Links       []LinkDef `koanf:"links"`
	Notes       []string  `koanf:"notes"`
}

// Package declares one installable package
type Package struct {
	Name        string `koanf:"name"`
	Description string `koanf:"description"`

	// Check is the binary probed to detect an existing install when it
	// differs from the package name
	Check string `koanf:"check"`

	// Query switches detection to the package database for packages
	// that install no binary (drivers, kernel modules, headers)
	Query bool `koanf:"query"`
}

// CheckCommand returns the binary name used to probe for the package
func (p Package) CheckCommand() string {
	if p.Check != "" {
		return p.Check
	}
	return p.Name
}

// PackageSets groups the installable package lists
type PackageSets struct {
	Core     []Package `koanf:"core"`
	Optional []Package `koanf:"optional"`

	// Displaylink is the DKMS driver stack for USB-C docking stations
	Displaylink []Package `koanf:"displaylink"`
}

// Config is the full loaded registry
type Config struct {
	Tools    map[string]Tool `koanf:"tools"`
	Packages PackageSets     `koanf:"packages"`
}

// Load reads the embedded defaults and merges the per-repository
// override file on top, if one exists.
func Load(p paths.Paths) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), ktoml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse embedded tools config")
	}

	userPath := p.UserConfigPath()
	if err := k.Load(file.Provider(userPath), ktoml.Parser()); err != nil {
		// The override file is optional; only a present-but-broken file
		// is an error.
		if !isNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load %s", userPath)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to decode tools config")
	}

	for name, tool := range cfg.Tools {
		tool.Name = name
		cfg.Tools[name] = tool
	}

	return cfg, nil
}

// isNotExist unwraps the provider error down to a missing-file check
func isNotExist(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist)
}

// Tool looks up a tool by name
func (c *Config) Tool(name string) (Tool, error) {
	tool, ok := c.Tools[name]
	if !ok {
		return Tool{}, errors.Newf(errors.ErrToolUnknown, "no tool named %q", name)
	}
	return tool, nil
}

// Names returns all tool names, sorted
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Tools))
	for name := range c.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs resolves a tool's link defs against the environment: sources
// become absolute paths under the dotfiles root, targets get ~
// expanded.
func (t Tool) Specs(p paths.Paths) []linker.Spec {
	specs := make([]linker.Spec, 0, len(t.Links))
	for _, def := range t.Links {
		specs = append(specs, linker.Spec{
			Name:   def.Name,
			Source: p.SourcePath(def.Source),
			Target: p.ExpandTarget(def.Target),
		})
	}
	return specs
}
