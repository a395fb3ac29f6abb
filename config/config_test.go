package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/staticfifo/errors"
	"github.com/c360/staticfifo/pkg/buffer"
)

const testYAML = `
version: "1"
log:
  level: debug
buffers:
  - name: ingest
    capacity: 5
    metrics: true
    initial: [1, 2]
  - name: strict
    capacity: 3
    policy: drop_newest
steps:
  - {buffer: ingest, op: push, values: [3, 4, 5, 6]}
  - {buffer: ingest, op: pull, n: 2}
  - {buffer: strict, op: write, values: [7]}
  - {buffer: strict, op: pop}
`

const testJSON = `{
  "buffers": [{"name": "a", "capacity": 2}],
  "steps": [{"buffer": "a", "op": "write", "values": [1, 2, 3]}]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_LoadYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "scenario.yaml", testYAML))
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.Version)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "default format")
	require.Len(t, cfg.Buffers, 2)

	ingest := cfg.Buffers[0]
	assert.Equal(t, "ingest", ingest.Name)
	assert.Equal(t, 5, ingest.Capacity)
	assert.True(t, ingest.Metrics)
	assert.Equal(t, []int64{1, 2}, ingest.Initial)
	assert.Equal(t, "drop_oldest", ingest.Policy, "default policy")
	assert.Equal(t, buffer.DropOldest, ingest.OverflowPolicy())

	strict := cfg.Buffers[1]
	assert.Equal(t, "strict", strict.Name)
	assert.Equal(t, buffer.DropNewest, strict.OverflowPolicy())

	require.Len(t, cfg.Steps, 4)
	assert.Equal(t, Step{Buffer: "ingest", Op: OpPush, Values: []int64{3, 4, 5, 6}}, cfg.Steps[0])
	assert.Equal(t, 2, cfg.Steps[1].Count())
	assert.Equal(t, 1, cfg.Steps[3].Count(), "n defaults to one")
}

func TestLoader_LoadJSON(t *testing.T) {
	for _, name := range []string{"scenario.json", "scenario"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, name, testJSON))
			require.NoError(t, err)

			require.Len(t, cfg.Buffers, 1)
			assert.Equal(t, 2, cfg.Buffers[0].Capacity)
			assert.Equal(t, []int64{1, 2, 3}, cfg.Steps[0].Values)
			assert.Equal(t, "info", cfg.Log.Level)
		})
	}
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("FIFOPLAY_LOG_LEVEL", "warn")
	t.Setenv("FIFOPLAY_LOG_FORMAT", "json")

	cfg, err := Load(writeFile(t, "scenario.yaml", testYAML))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level, "env beats file")
	assert.Equal(t, "json", cfg.Log.Format)

	t.Setenv("FIFOPLAY_LOG_LEVEL", "")
	cfg, err = NewLoader().LoadFile(writeFile(t, "scenario.yaml", testYAML))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level, "empty variable leaves the file value")
}

func TestLoader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.True(t, errors.IsFatal(err))
		assert.True(t, stderrors.Is(err, errors.ErrConfigNotFound))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "buffers: [unclosed"))
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
		assert.True(t, stderrors.Is(err, errors.ErrParsingFailed))
	})

	t.Run("unknown yaml field", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "buffers:\n  - name: a\n    capacity: 1\n    size: 3\n"))
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrParsingFailed))
	})

	t.Run("empty yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "empty.yml", ""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty document")
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.json", `{"buffers": [`))
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrParsingFailed))
	})

	t.Run("fails validation", func(t *testing.T) {
		_, err := Load(writeFile(t, "draft.json", `{"buffers": []}`))
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
		assert.True(t, stderrors.Is(err, errors.ErrMissingConfig))
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Buffers: []BufferConfig{{Name: "a", Capacity: 3}},
			Steps:   []Step{{Buffer: "a", Op: OpWrite, Values: []int64{1}}},
		}
	}

	tests := []struct {
		name     string
		mutate   func(*Config)
		sentinel error
		message  string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "no buffers",
			mutate:   func(c *Config) { c.Buffers = nil; c.Steps = nil },
			sentinel: errors.ErrMissingConfig,
			message:  "at least one buffer",
		},
		{
			name:    "missing name",
			mutate:   func(c *Config) { c.Buffers[0].Name = "" },
			sentinel: errors.ErrMissingConfig,
			message:  "name is required",
		},
		{
			name: "duplicate name",
			mutate: func(c *Config) {
				c.Buffers = append(c.Buffers, BufferConfig{Name: "a", Capacity: 1})
			},
			message: "already used",
		},
		{
			name:     "zero capacity",
			mutate:   func(c *Config) { c.Buffers[0].Capacity = 0 },
			sentinel: errors.ErrInvalidCapacity,
		},
		{
			name:     "too many initial items",
			mutate:   func(c *Config) { c.Buffers[0].Initial = []int64{1, 2, 3, 4} },
			sentinel: errors.ErrCapacityExceeded,
		},
		{
			name:    "unknown policy",
			mutate:  func(c *Config) { c.Buffers[0].Policy = "block" },
			message: "unknown overflow policy",
		},
		{
			name:     "unknown buffer",
			mutate:   func(c *Config) { c.Steps[0].Buffer = "b" },
			sentinel: errors.ErrUnknownBuffer,
		},
		{
			name:     "unknown op",
			mutate:   func(c *Config) { c.Steps[0].Op = "shuffle" },
			sentinel: errors.ErrUnknownOperation,
			message:  "want one of write, push, pop",
		},
		{
			name:    "negative n",
			mutate:   func(c *Config) { c.Steps[0] = Step{Buffer: "a", Op: OpDrop, N: -1} },
			sentinel: errors.ErrInvalidData,
			message:  "must not be negative",
		},
		{
			name:    "write without values",
			mutate:   func(c *Config) { c.Steps[0].Values = nil },
			sentinel: errors.ErrInvalidData,
			message:  "needs values",
		},
		{
			name:    "pop with values",
			mutate:   func(c *Config) { c.Steps[0].Op = OpPop },
			sentinel: errors.ErrInvalidData,
			message:  "does not take values",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			message: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.sentinel == nil && tt.message == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
			assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))
			if tt.sentinel != nil {
				assert.True(t, stderrors.Is(err, tt.sentinel), "expected %v in %v", tt.sentinel, err)
			}
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "a push [1 2]", Step{Buffer: "a", Op: OpPush, Values: []int64{1, 2}}.String())
	assert.Equal(t, "a drop 3", Step{Buffer: "a", Op: OpDrop, N: 3}.String())
	assert.Equal(t, "a reset", Step{Buffer: "a", Op: OpReset}.String())
}

func TestKnownOps(t *testing.T) {
	ops := KnownOps()
	assert.Contains(t, ops, OpWrite)
	assert.Contains(t, ops, OpClose)

	ops[0] = "mutated"
	assert.Equal(t, OpWrite, KnownOps()[0], "callers get a copy")
}
