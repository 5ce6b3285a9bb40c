package config

import (
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the solver run settings.
type Config struct {
	Sweep   SweepConfig   `yaml:"sweep"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// SweepConfig bounds the work done per frequency sweep.
type SweepConfig struct {
	Workers int `yaml:"workers"` // concurrent sample solves, 0 = one per CPU
}

// OutputConfig controls the report and the optional Bode plot.
type OutputConfig struct {
	Plot        string `yaml:"plot"`         // PNG path, empty disables plotting
	PrintSystem bool   `yaml:"print_system"` // dump the MNA equations before solving
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

func DefaultConfig() *Config {
	return &Config{
		Sweep: SweepConfig{
			Workers: runtime.NumCPU(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Sweep.Workers < 0 {
		return fmt.Errorf("sweep.workers must not be negative, got %d", c.Sweep.Workers)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// SweepWorkers resolves the worker count, mapping 0 to the CPU count.
func (c *Config) SweepWorkers() int {
	if c.Sweep.Workers == 0 {
		return runtime.NumCPU()
	}
	return c.Sweep.Workers
}

func (c *Config) LogLevel() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
