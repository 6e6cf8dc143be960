// Package config handles jasm.toml settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"

	"github.com/dhamidi/jasm/example"
)

const FileName = "jasm.toml"

type Config struct {
	Output Output    `toml:"output"`
	Emit   Emit      `toml:"emit"`
	Log    LogConfig `toml:"log"`

	// Dir is the directory containing jasm.toml, or the start directory
	// when no file was found.
	Dir string `toml:"-"`
	// Path is the loaded file, empty when defaults are in use.
	Path string `toml:"-"`
}

type Output struct {
	Dir      string `toml:"dir"`
	Manifest string `toml:"manifest"`
}

type Emit struct {
	Variants []string `toml:"variants"`
}

type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

const (
	DefaultOutputDir = "out/production/asm"
	DefaultManifest  = "jasm.cbor"
)

// Default returns the configuration used when no jasm.toml exists.
func Default(dir string) *Config {
	c := &Config{Dir: dir}
	c.Output.Manifest = DefaultManifest
	c.applyDefaults(nil)
	return c
}

func (c *Config) applyDefaults(md *toml.MetaData) {
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
	// An explicit empty manifest disables it.
	if md != nil && !md.IsDefined("output", "manifest") {
		c.Output.Manifest = DefaultManifest
	}
	if len(c.Emit.Variants) == 0 {
		c.Emit.Variants = []string{string(example.Shortcut)}
	}
}

// Load parses jasm.toml from dir.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	c.Path = path
	c.applyDefaults(&md)
	return &c, nil
}

// FindAndLoad walks up from startDir to the nearest jasm.toml. When there is
// none the defaults are returned, rooted at startDir.
func FindAndLoad(startDir string) (*Config, error) {
	start, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	dir := start
	for {
		_, err := os.Stat(filepath.Join(dir, FileName))
		if err == nil {
			return Load(dir)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("cannot stat %s: %w", filepath.Join(dir, FileName), err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(start), nil
		}
		dir = parent
	}
}

// OutputDir returns the absolute output directory.
func (c *Config) OutputDir() string {
	if filepath.IsAbs(c.Output.Dir) {
		return c.Output.Dir
	}
	return filepath.Join(c.Dir, c.Output.Dir)
}

// ManifestPath returns the manifest location, or "" when disabled.
func (c *Config) ManifestPath() string {
	if c.Output.Manifest == "" {
		return ""
	}
	if filepath.IsAbs(c.Output.Manifest) {
		return c.Output.Manifest
	}
	return filepath.Join(c.OutputDir(), c.Output.Manifest)
}

// Variants resolves the configured variant names, reporting every unknown one.
func (c *Config) Variants() ([]example.Variant, error) {
	return ResolveVariants(c.Emit.Variants)
}

func ResolveVariants(names []string) ([]example.Variant, error) {
	var (
		out  []example.Variant
		errs *multierror.Error
		seen = make(map[example.Variant]bool)
	)
	for _, name := range names {
		v, err := example.ParseVariant(name)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}
