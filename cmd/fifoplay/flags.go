package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/c360/staticfifo/config"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	Args        []string // further scenario paths given as arguments
	Workers     int
	Timeout     time.Duration
	StepRate    float64
	LogLevel    string // empty means use the scenario's log settings
	LogFormat   string
	Output      string
	ShowVersion bool
	ShowHelp    bool
	Validate    bool

	usage func()
}

// parseFlags parses args into a CLIConfig. Errors are returned rather than
// exiting so that tests can drive it.
func parseFlags(args []string, stderr io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Define flags with environment variable fallback
	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("FIFOPLAY_CONFIG", ""),
		"Path to scenario file, YAML or JSON (env: FIFOPLAY_CONFIG)")

	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("FIFOPLAY_CONFIG", ""),
		"Path to scenario file, YAML or JSON (env: FIFOPLAY_CONFIG)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("FIFOPLAY_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error (env: FIFOPLAY_LOG_LEVEL)")

	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("FIFOPLAY_LOG_FORMAT", ""),
		"Log format: json, text (env: FIFOPLAY_LOG_FORMAT)")

	fs.IntVar(&cfg.Workers, "workers",
		getEnvInt("FIFOPLAY_WORKERS", 4),
		"Scenarios replayed concurrently (env: FIFOPLAY_WORKERS)")

	fs.DurationVar(&cfg.Timeout, "timeout",
		getEnvDuration("FIFOPLAY_TIMEOUT", time.Minute),
		"Time allowed for queued scenarios to finish (env: FIFOPLAY_TIMEOUT)")

	fs.Float64Var(&cfg.StepRate, "rate",
		getEnvFloat("FIFOPLAY_RATE", 0),
		"Steps per second per scenario, 0 for no limit (env: FIFOPLAY_RATE)")

	fs.StringVar(&cfg.Output, "output", "text", "Report format: text, json")
	fs.StringVar(&cfg.Output, "o", "text", "Report format: text, json")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate scenario and exit")

	fs.Usage = func() {
		printDetailedHelp(fs, stderr)
	}
	cfg.usage = fs.Usage

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Args = fs.Args()
	return cfg, nil
}

// scenarioPaths returns the -config path followed by any bare arguments.
func (c *CLIConfig) scenarioPaths() []string {
	var paths []string
	if c.ConfigPath != "" {
		paths = append(paths, c.ConfigPath)
	}
	return append(paths, c.Args...)
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if len(cfg.scenarioPaths()) == 0 {
		return fmt.Errorf("no scenario given: use -config or FIFOPLAY_CONFIG")
	}

	if cfg.Workers <= 0 {
		return fmt.Errorf("invalid worker count: %d", cfg.Workers)
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("invalid timeout: %s", cfg.Timeout)
	}

	if cfg.StepRate < 0 {
		return fmt.Errorf("invalid rate: %g", cfg.StepRate)
	}

	validLevels := []string{"", "debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"", "json", "text"}
	if !slices.Contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	validOutputs := []string{"json", "text"}
	if !slices.Contains(validOutputs, cfg.Output) {
		return fmt.Errorf("invalid output format: %s", cfg.Output)
	}

	return nil
}

func printDetailedHelp(fs *flag.FlagSet, w io.Writer) {
	_, _ = fmt.Fprintf(w, `%s - replay ring buffer scenarios

Usage: %s [options] [scenario...]

Options:
`, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(w, `
Examples:
  # Replay a scenario and print a text report
  %s -config=scenario.yaml

  # Machine-readable report, debug logs on stderr
  %s -config=scenario.yaml -output=json -log-level=debug

  # Validate a scenario only
  %s -config=scenario.yaml -validate

  # Replay several scenarios, two at a time; reports keep argument order
  %s -workers=2 a.yaml b.yaml c.json

  # Pace each scenario at ten steps per second
  %s -rate=10 -config=scenario.yaml

Step operations: %s

Exit status: 0 on success, 65 for invalid flags or scenarios, 75 when a
replay was interrupted or timed out, 1 otherwise.

Version: %s
`, appName, appName, appName, appName, appName, strings.Join(config.KnownOps(), ", "), Version)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
