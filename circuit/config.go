// Package circuit models the input surface of the pre-compiled keyless
// circuit: the per-signal maximum lengths declared at compile time, and the
// typed signal collections that must match its wire layout byte for byte.
package circuit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config declares, per named signal, the fixed length the compiled circuit
// expects. It is loaded once per proving setup and read-only afterwards.
type Config struct {
	MaxLengths            map[string]int `yaml:"max_lengths"`
	HasInputSkipAudChecks bool           `yaml:"has_input_skip_aud_checks"`
}

// LoadConfig reads a circuit config YAML document from disk.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read circuit config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse circuit config %s: %w", path, err)
	}
	if cfg.MaxLengths == nil {
		cfg.MaxLengths = map[string]int{}
	}
	return cfg, nil
}

// MaxLength returns the configured maximum length for a signal, or an error
// when the circuit declares no such signal.
func (c *Config) MaxLength(signal string) (int, error) {
	n, ok := c.MaxLengths[signal]
	if !ok {
		return 0, fmt.Errorf("no max length for signal %q in circuit config", signal)
	}
	return n, nil
}

// WithMaxLength sets one signal's maximum length and returns the config,
// for fluent construction in tests.
func (c *Config) WithMaxLength(signal string, length int) *Config {
	if c.MaxLengths == nil {
		c.MaxLengths = map[string]int{}
	}
	c.MaxLengths[signal] = length
	return c
}

// NewConfig returns an empty config.
func NewConfig() *Config {
	return &Config{MaxLengths: map[string]int{}}
}
