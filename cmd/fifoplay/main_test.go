package main

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"

	"github.com/c360/staticfifo/errors"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_JSONReport(t *testing.T) {
	stdout, _, err := runCLI(t, "-config", "testdata/scenario.yaml", "-output", "json")
	require.NoError(t, err)

	var report Report
	require.NoError(t, sonnet.Unmarshal([]byte(stdout), &report))

	assert.Equal(t, "scenario.yaml", report.Scenario)
	require.Len(t, report.Steps, 11)
	require.Len(t, report.Buffers, 2)

	ring := report.Buffers[0]
	assert.Equal(t, "ring", ring.Name)
	assert.Equal(t, []int64{5, 6, 7, 8, 9}, ring.Contents)
	assert.Equal(t, uint64(40), ring.StorageBytes)
	assert.Equal(t, int64(9), ring.Stats.Writes)
	assert.Equal(t, int64(2), ring.Stats.Reads)
	assert.Equal(t, int64(2), ring.Stats.Drops)

	strict := report.Buffers[1]
	assert.Equal(t, "DropNewest", strict.Policy)
	assert.Empty(t, strict.Contents)

	// only the ring buffer exports metrics
	require.NotEmpty(t, report.Metrics)
	for _, s := range report.Metrics {
		assert.Equal(t, "ring", s.Labels["component"], s.Name)
	}
}

func TestRun_TextReport(t *testing.T) {
	stdout, _, err := runCLI(t, "testdata/scenario.yaml")
	require.NoError(t, err)

	assert.Contains(t, stdout, "scenario scenario.yaml: 11 steps")
	assert.Contains(t, stdout, "buffer ring (DropOldest, 5/5, 40 B)")
	assert.Contains(t, stdout, "contents   [5 6 7 8 9]")
	assert.Contains(t, stdout, "1st    ring       push   count=5 dropped=[1]")
	assert.Contains(t, stdout, "# TYPE staticfifo_buffer_writes_total counter")
	assert.Contains(t, stdout, `staticfifo_buffer_writes_total{component="ring"} 9`)
}

func TestRun_JSONScenario(t *testing.T) {
	stdout, _, err := runCLI(t, "-config=testdata/scenario.json", "-o", "json")
	require.NoError(t, err)

	var report Report
	require.NoError(t, sonnet.Unmarshal([]byte(stdout), &report))

	want := []StepResult{
		{Index: 0, Buffer: "a", Op: "write", Count: 2, Dropped: []int64{1}},
		{Index: 1, Buffer: "a", Op: "reset", Count: 2, Dropped: []int64{2, 3}},
	}
	if diff := cmp.Diff(want, report.Steps); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, report.Metrics)
}

func TestRun_MultipleScenarios(t *testing.T) {
	stdout, _, err := runCLI(t, "-o", "json", "-workers", "2", "-rate", "1000",
		"testdata/scenario.yaml", "testdata/scenario.json", "testdata/scenario.yaml")
	require.NoError(t, err)

	// one JSON report per line, in argument order
	var names []string
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var report Report
		require.NoError(t, sonnet.Unmarshal(scanner.Bytes(), &report))
		names = append(names, report.Scenario)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"scenario.yaml", "scenario.json", "scenario.yaml"}, names)
}

func TestRun_MultipleScenariosText(t *testing.T) {
	stdout, _, err := runCLI(t, "-config", "testdata/scenario.json", "testdata/scenario.yaml")
	require.NoError(t, err)

	jsonAt := strings.Index(stdout, "scenario scenario.json: 2 steps")
	yamlAt := strings.Index(stdout, "scenario scenario.yaml: 11 steps")
	require.GreaterOrEqual(t, jsonAt, 0)
	require.Greater(t, yamlAt, jsonAt, "-config comes first")
	assert.Contains(t, stdout[:yamlAt], "\n\n", "reports are separated by a blank line")
}

func TestRun_InvalidScenarioStopsBeforeReplay(t *testing.T) {
	stdout, _, err := runCLI(t, "testdata/scenario.yaml", "testdata/invalid.yaml")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Empty(t, stdout)
}

func TestRun_Validate(t *testing.T) {
	stdout, stderr, err := runCLI(t, "-config", "testdata/scenario.yaml", "-validate", "-log-level", "info")
	require.NoError(t, err)
	assert.Empty(t, stdout, "validate prints no report")
	assert.Contains(t, stderr, "Configuration is valid")
}

func TestRun_Errors(t *testing.T) {
	t.Run("invalid scenario", func(t *testing.T) {
		_, _, err := runCLI(t, "-config", "testdata/invalid.yaml")
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
		assert.True(t, stderrors.Is(err, errors.ErrInvalidCapacity))
	})

	t.Run("missing scenario", func(t *testing.T) {
		_, _, err := runCLI(t, "-config", "testdata/missing.yaml")
		require.Error(t, err)
		assert.True(t, errors.IsFatal(err))
	})

	t.Run("no scenario", func(t *testing.T) {
		t.Setenv("FIFOPLAY_CONFIG", "")
		_, _, err := runCLI(t)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no scenario given")
	})

	t.Run("bad output format", func(t *testing.T) {
		_, _, err := runCLI(t, "-config", "testdata/scenario.yaml", "-output", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid output format")
	})

	t.Run("no workers", func(t *testing.T) {
		_, _, err := runCLI(t, "-workers", "0", "testdata/scenario.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid worker count")
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, _, err := runCLI(t, "-bogus")
		require.Error(t, err)
	})
}

func TestExitCode(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		args []string
		want int
	}{
		{"success", context.Background(), []string{"-config", "testdata/scenario.yaml"}, 0},
		{"invalid scenario", context.Background(), []string{"-config", "testdata/invalid.yaml"}, exitDataErr},
		{"unknown flag", context.Background(), []string{"-bogus"}, exitDataErr},
		// the flag error mentions a timeout but is still the caller's mistake
		{"bad timeout flag", context.Background(), []string{"-timeout", "0", "testdata/scenario.yaml"}, exitDataErr},
		{"missing scenario", context.Background(), []string{"-config", "testdata/missing.yaml"}, exitFailure},
		{"cancelled", cancelled, []string{"-config", "testdata/scenario.yaml"}, exitTempFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(tt.ctx, tt.args, &stdout, &stderr)
			assert.Equal(t, tt.want, exitCode(err), "error: %v", err)
		})
	}

	t.Run("unclassified", func(t *testing.T) {
		assert.Equal(t, exitFailure, exitCode(stderrors.New("boom")))
	})
}

func TestRun_Version(t *testing.T) {
	stdout, _, err := runCLI(t, "-version")
	require.NoError(t, err)
	assert.Equal(t, "fifoplay version "+Version+"\n", stdout)
}

func TestRun_Help(t *testing.T) {
	_, stderr, err := runCLI(t, "-h")
	require.NoError(t, err)
	assert.Contains(t, stderr, "replay ring buffer scenarios")
	assert.Contains(t, stderr, "-validate")
	assert.Contains(t, stderr, "Step operations: write, push, pop, pull, read, peek, drop, reset, close")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	err := run(ctx, []string{"-config", "testdata/scenario.yaml"}, &stdout, &stderr)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.True(t, stderrors.Is(err, context.Canceled))
	assert.Empty(t, stdout.String())
}

func TestParseFlags_EnvFallback(t *testing.T) {
	t.Setenv("FIFOPLAY_CONFIG", "from-env.yaml")
	t.Setenv("FIFOPLAY_LOG_LEVEL", "debug")
	t.Setenv("FIFOPLAY_WORKERS", "3")
	t.Setenv("FIFOPLAY_TIMEOUT", "5s")

	var stderr bytes.Buffer
	cfg, err := parseFlags(nil, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "from-env.yaml", cfg.ConfigPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Output)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Zero(t, cfg.StepRate, "unthrottled by default")

	cfg, err = parseFlags([]string{"-config", "flag.yaml", "-log-level", "error"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "flag.yaml", cfg.ConfigPath, "flags beat env")
	assert.Equal(t, "error", cfg.LogLevel)

	cfg, err = parseFlags([]string{"-config", "a.yaml", "b.yaml", "c.json"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.yaml", "b.yaml", "c.json"}, cfg.scenarioPaths())
}

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		cfg     CLIConfig
		wantErr string
	}{
		{"valid", CLIConfig{ConfigPath: "s.yaml", Output: "text", Workers: 1, Timeout: time.Second}, ""},
		{"args only", CLIConfig{Args: []string{"s.yaml"}, Output: "json", Workers: 1, Timeout: time.Second}, ""},
		{"version skips checks", CLIConfig{ShowVersion: true}, ""},
		{"no scenario", CLIConfig{Output: "text", Workers: 1, Timeout: time.Second}, "no scenario given"},
		{"bad workers", CLIConfig{ConfigPath: "s.yaml", Output: "text", Workers: -1, Timeout: time.Second}, "invalid worker count"},
		{"bad rate", CLIConfig{ConfigPath: "s.yaml", Output: "text", Workers: 1, Timeout: time.Second, StepRate: -1}, "invalid rate"},
		{"bad timeout", CLIConfig{ConfigPath: "s.yaml", Output: "text", Workers: 1}, "invalid timeout"},
		{"bad level", CLIConfig{ConfigPath: "s.yaml", Output: "text", Workers: 1, Timeout: time.Second, LogLevel: "loud"}, "invalid log level"},
		{"bad format", CLIConfig{ConfigPath: "s.yaml", Output: "text", Workers: 1, Timeout: time.Second, LogFormat: "xml"}, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFlags(&tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
