// Package config provides configuration loading for smoothing length runs.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/hsmooth/kernel"
	"github.com/pthm-cable/hsmooth/particles"
	"github.com/pthm-cable/hsmooth/smoothing"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid configuration")

// Config holds all run configuration parameters.
type Config struct {
	Solver            SolverConfig            `yaml:"solver"`
	InitialConditions InitialConditionsConfig `yaml:"initial_conditions"`
	Output            OutputConfig            `yaml:"output"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SolverConfig holds smoothing length solver parameters.
type SolverConfig struct {
	Eta            float64 `yaml:"eta"`             // Resolution; wins over neighbour_count when > 0
	NeighbourCount float64 `yaml:"neighbour_count"` // Target neighbours inside the support
	Kernel         string  `yaml:"kernel"`
	NDim           int     `yaml:"ndim"`
	Periodic       bool    `yaml:"periodic"`
	Workers        int     `yaml:"workers"`
	Tolerance      float64 `yaml:"tolerance"`
	IterMax        int     `yaml:"iter_max"`
}

// InitialConditionsConfig selects where particles come from.
type InitialConditionsConfig struct {
	Kind  string  `yaml:"kind"`
	NX    int     `yaml:"nx"`
	Mass  float64 `yaml:"mass"`
	Seed  int64   `yaml:"seed"`
	Input string  `yaml:"input"`
}

// OutputConfig holds output file settings.
type OutputConfig struct {
	Dir             string `yaml:"dir"`
	WriteNeighbours bool   `yaml:"write_neighbours"`
}

// DerivedConfig holds values resolved from the loaded config.
type DerivedConfig struct {
	Kernel         kernel.Kernel
	Eta            float64 // resolved eta, also when configured by neighbour count
	NeighbourCount float64
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Validate re-checks the configuration after fields were changed in code,
// for example by command line overrides, and refreshes Derived.
func (c *Config) Validate() error {
	return c.computeDerived()
}

// computeDerived validates the config and resolves kernel dependent values.
func (c *Config) computeDerived() error {
	if err := c.SolverParams().Validate(); err != nil {
		return fmt.Errorf("%w: solver: %w", ErrInvalid, err)
	}

	k, err := kernel.Lookup(c.Solver.Kernel, c.Solver.NDim)
	if err != nil {
		return fmt.Errorf("%w: solver: %w", ErrInvalid, err)
	}

	ic := c.InitialConditions
	if ic.Input == "" {
		switch ic.Kind {
		case particles.KindUniform, particles.KindPerturbed, particles.KindRandom:
		default:
			return fmt.Errorf("%w: initial_conditions: unknown kind %q", ErrInvalid, ic.Kind)
		}
		if ic.NX < 1 {
			return fmt.Errorf("%w: initial_conditions: nx must be positive, got %d", ErrInvalid, ic.NX)
		}
	}
	if ic.Mass < 0 {
		return fmt.Errorf("%w: initial_conditions: mass must not be negative", ErrInvalid)
	}

	eta := c.Solver.Eta
	if !(eta > 0) {
		eta = kernel.EtaFromNeighbourCount(k, c.Solver.NeighbourCount)
	}
	c.Derived = DerivedConfig{
		Kernel:         k,
		Eta:            eta,
		NeighbourCount: kernel.NeighbourCount(k, eta),
	}
	return nil
}

// SolverParams converts the solver section to smoothing parameters.
func (c *Config) SolverParams() smoothing.Params {
	s := c.Solver
	return smoothing.Params{
		Eta:            s.Eta,
		NeighbourCount: s.NeighbourCount,
		Kernel:         s.Kernel,
		NDim:           s.NDim,
		Periodic:       s.Periodic,
		Workers:        s.Workers,
		Tolerance:      s.Tolerance,
		IterMax:        s.IterMax,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
