package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sugawarayuuta/sonnet"
	"gopkg.in/yaml.v3"

	"github.com/c360/staticfifo/errors"
	"github.com/c360/staticfifo/pkg/buffer"
)

// DefaultEnvPrefix prefixes the environment variables that override file settings.
const DefaultEnvPrefix = "FIFOPLAY"

// Step operations. Each one maps onto a single buffer call.
const (
	OpWrite = "write" // Write each value in turn
	OpPush  = "push"  // WriteBatch(values)
	OpPop   = "pop"   // Read, N times (default 1)
	OpPull  = "pull"  // ReadBatch(N)
	OpRead  = "read"  // first N of Contents, buffer unchanged
	OpPeek  = "peek"
	OpDrop  = "drop" // Drop(N)
	OpReset = "reset"
	OpClose = "close"
)

var knownOps = []string{OpWrite, OpPush, OpPop, OpPull, OpRead, OpPeek, OpDrop, OpReset, OpClose}

// KnownOps returns the supported step operations.
func KnownOps() []string {
	return slices.Clone(knownOps)
}

// Config is a replay scenario: the buffers to build and the steps to run against them.
type Config struct {
	Version string         `json:"version,omitempty" yaml:"version,omitempty"`
	Log     LogConfig      `json:"log" yaml:"log"`
	Buffers []BufferConfig `json:"buffers" yaml:"buffers"`
	Steps   []Step         `json:"steps" yaml:"steps"`
}

// LogConfig holds logger settings. Command-line flags take precedence.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // json, text
}

// BufferConfig describes one named buffer.
type BufferConfig struct {
	Name     string  `json:"name" yaml:"name"`
	Capacity int     `json:"capacity" yaml:"capacity"`
	Policy   string  `json:"policy,omitempty" yaml:"policy,omitempty"` // drop_oldest (default), drop_newest
	Metrics  bool    `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Initial  []int64 `json:"initial,omitempty" yaml:"initial,omitempty"`
}

// OverflowPolicy returns the parsed policy. Call Validate first.
func (b BufferConfig) OverflowPolicy() buffer.OverflowPolicy {
	policy, _ := buffer.ParseOverflowPolicy(b.Policy)
	return policy
}

// Step is one operation against a named buffer.
type Step struct {
	Buffer string  `json:"buffer" yaml:"buffer"`
	Op     string  `json:"op" yaml:"op"`
	Values []int64 `json:"values,omitempty" yaml:"values,omitempty"`
	N      int     `json:"n,omitempty" yaml:"n,omitempty"`
}

// Count returns N, or 1 when N is unset, for ops that take a count.
func (s Step) Count() int {
	if s.N == 0 {
		return 1
	}
	return s.N
}

func (s Step) String() string {
	switch {
	case len(s.Values) > 0:
		return fmt.Sprintf("%s %s %v", s.Buffer, s.Op, s.Values)
	case s.N > 0:
		return fmt.Sprintf("%s %s %d", s.Buffer, s.Op, s.N)
	default:
		return fmt.Sprintf("%s %s", s.Buffer, s.Op)
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if err := c.validateLog(); err != nil {
		return invalid("log", err)
	}

	if len(c.Buffers) == 0 {
		return invalid("buffers", fmt.Errorf("%w: at least one buffer is required", errors.ErrMissingConfig))
	}

	names := make(map[string]int, len(c.Buffers))
	for i, b := range c.Buffers {
		if b.Name == "" {
			return invalid(fmt.Sprintf("buffers[%d]", i), fmt.Errorf("%w: name is required", errors.ErrMissingConfig))
		}
		if prev, dup := names[b.Name]; dup {
			return invalid(fmt.Sprintf("buffers[%d]", i),
				fmt.Errorf("name %q already used by buffers[%d]", b.Name, prev))
		}
		names[b.Name] = i

		if err := b.validate(); err != nil {
			return invalid(fmt.Sprintf("buffer %s", b.Name), err)
		}
	}

	for i, s := range c.Steps {
		if _, ok := names[s.Buffer]; !ok {
			return invalid(fmt.Sprintf("steps[%d]", i),
				fmt.Errorf("%w: %q", errors.ErrUnknownBuffer, s.Buffer))
		}
		if err := s.validate(); err != nil {
			return invalid(fmt.Sprintf("steps[%d]", i), err)
		}
	}

	return nil
}

func (c *Config) validateLog() error {
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

func (b BufferConfig) validate() error {
	if b.Capacity <= 0 {
		return fmt.Errorf("%w: %d", errors.ErrInvalidCapacity, b.Capacity)
	}
	if len(b.Initial) > b.Capacity {
		return fmt.Errorf("%w: %d initial items for capacity %d",
			errors.ErrCapacityExceeded, len(b.Initial), b.Capacity)
	}
	if _, ok := buffer.ParseOverflowPolicy(b.Policy); !ok {
		return fmt.Errorf("unknown overflow policy %q", b.Policy)
	}
	return nil
}

func (s Step) validate() error {
	if !slices.Contains(knownOps, s.Op) {
		return fmt.Errorf("%w: %q (want one of %s)", errors.ErrUnknownOperation, s.Op, strings.Join(knownOps, ", "))
	}
	if s.N < 0 {
		return fmt.Errorf("%w: n must not be negative, got %d", errors.ErrInvalidData, s.N)
	}

	switch s.Op {
	case OpWrite, OpPush:
		if len(s.Values) == 0 {
			return fmt.Errorf("%w: %s needs values", errors.ErrInvalidData, s.Op)
		}
		if s.N != 0 {
			return fmt.Errorf("%w: %s does not take n", errors.ErrInvalidData, s.Op)
		}
	default:
		if len(s.Values) > 0 {
			return fmt.Errorf("%w: %s does not take values", errors.ErrInvalidData, s.Op)
		}
	}
	return nil
}

func invalid(field string, err error) error {
	return errors.WrapInvalid(fmt.Errorf("%w: %s: %w", errors.ErrInvalidConfig, field, err),
		"Config", "Validate", "validation")
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := sonnet.Marshal(c)
	return string(data)
}

// Loader reads scenario files and applies defaults and environment overrides.
type Loader struct {
	envPrefix string
}

// NewLoader creates a loader reading overrides from FIFOPLAY_* variables.
func NewLoader() *Loader {
	return &Loader{envPrefix: DefaultEnvPrefix}
}

// Load reads and validates the scenario at path with a default Loader.
func Load(path string) (*Config, error) {
	return NewLoader().LoadFile(path)
}

// LoadFile reads the scenario at path. Files ending in .yaml or .yml are YAML,
// anything else is JSON.
func (l *Loader) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapFatal(fmt.Errorf("%w: %s", errors.ErrConfigNotFound, path),
				"Loader", "LoadFile", "read config")
		}
		return nil, errors.WrapFatal(err, "Loader", "LoadFile", "read config")
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, err
	}

	l.applyDefaults(cfg)
	l.applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format is a config file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a scenario without applying defaults or validating it.
// Unknown YAML fields are rejected.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := &Config{}

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			if err == io.EOF {
				return nil, errors.WrapInvalid(
					fmt.Errorf("%w: empty document", errors.ErrParsingFailed),
					"Config", "Parse", "decode yaml")
			}
			return nil, errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrParsingFailed, err),
				"Config", "Parse", "decode yaml")
		}
	default:
		if err := sonnet.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrParsingFailed, err),
				"Config", "Parse", "decode json")
		}
	}

	return cfg, nil
}

// applyDefaults fills unset fields.
func (l *Loader) applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	for i := range cfg.Buffers {
		if cfg.Buffers[i].Policy == "" {
			cfg.Buffers[i].Policy = "drop_oldest"
		}
	}
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) {
	if val := os.Getenv(l.envPrefix + "_LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv(l.envPrefix + "_LOG_FORMAT"); val != "" {
		cfg.Log.Format = val
	}
}
