// Package config loads kerf settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the CLI and the HTTP service.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	CSG    CSGConfig    `yaml:"csg"`
	Engine EngineConfig `yaml:"engine"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// CSGConfig selects and tunes the geometry kernel. Kernel is "bsp" (exact
// polygon Booleans) or "sdf" (distance fields meshed by marching cubes).
// Epsilon 0 selects csg.DefaultEpsilon; MeshCells 0 the sdf default.
type CSGConfig struct {
	Kernel    string  `yaml:"kernel"`
	Epsilon   float64 `yaml:"epsilon"`
	MeshCells int     `yaml:"mesh_cells"`
}

// Kernel names accepted in CSGConfig.Kernel.
const (
	KernelBSP = "bsp"
	KernelSDF = "sdf"
)

type EngineConfig struct {
	EvalTimeout time.Duration `yaml:"eval_timeout"`
}

// Environment variables that override file settings.
const (
	EnvEpsilon     = "KERF_EPSILON"
	EnvEvalTimeout = "KERF_EVAL_TIMEOUT"
	EnvAddr        = "KERF_ADDR"
	EnvDB          = "KERF_DB"
	EnvKernel      = "KERF_KERNEL"
)

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":3000"},
		Store:  StoreConfig{Path: "data/kerf.db"},
		CSG:    CSGConfig{Kernel: KernelBSP},
		Engine: EngineConfig{EvalTimeout: 5 * time.Second},
	}
}

// Load starts from Default, applies the YAML file at path when path is not
// empty, then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Addr = getEnv(EnvAddr, c.Server.Addr)
	c.Store.Path = getEnv(EnvDB, c.Store.Path)
	c.CSG.Kernel = getEnv(EnvKernel, c.CSG.Kernel)

	eps, err := getEnvAsFloat(EnvEpsilon, c.CSG.Epsilon)
	if err != nil {
		return err
	}
	c.CSG.Epsilon = eps

	timeout, err := getEnvAsDuration(EnvEvalTimeout, c.Engine.EvalTimeout)
	if err != nil {
		return err
	}
	c.Engine.EvalTimeout = timeout
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("config: server.addr is empty"))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("config: store.path is empty"))
	}
	if c.CSG.Kernel != KernelBSP && c.CSG.Kernel != KernelSDF {
		errs = append(errs, fmt.Errorf("config: csg.kernel %q is not %q or %q", c.CSG.Kernel, KernelBSP, KernelSDF))
	}
	if c.CSG.MeshCells < 0 {
		errs = append(errs, fmt.Errorf("config: csg.mesh_cells %d is negative", c.CSG.MeshCells))
	}
	if c.CSG.Epsilon < 0 {
		errs = append(errs, fmt.Errorf("config: csg.epsilon %g is negative", c.CSG.Epsilon))
	}
	if c.Engine.EvalTimeout <= 0 {
		errs = append(errs, fmt.Errorf("config: engine.eval_timeout %s must be positive", c.Engine.EvalTimeout))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func getEnvAsDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
