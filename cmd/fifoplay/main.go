// Package main implements fifoplay, which replays scenarios of ring buffer
// operations against instrumented buffers and reports the outcome.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/c360/staticfifo/config"
	"github.com/c360/staticfifo/errors"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "fifoplay"
)

// Exit statuses, from sysexits(3)
const (
	exitFailure  = 1
	exitPanic    = 2
	exitDataErr  = 65
	exitTempFail = 75
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(exitPanic)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run application with proper error handling
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		code := exitCode(err)
		slog.Error("Application failed",
			"error", err,
			"class", errors.Classify(err).String(),
			"exit_code", code)
		cancel()
		os.Exit(code)
	}
}

// exitCode maps an error's class to the process exit status. Transient errors
// (cancellation, stop timeouts) may succeed on a rerun; invalid ones will not.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.IsTransient(err):
		return exitTempFail
	case errors.IsFatal(err):
		return exitFailure
	case errors.IsInvalid(err):
		return exitDataErr
	default:
		return exitFailure
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cliCfg, err := parseFlags(args, stderr)
	if err != nil {
		return errors.WrapInvalid(err, appName, "run", "parse flags")
	}
	if err := validateFlags(cliCfg); err != nil {
		return errors.WrapInvalid(err, appName, "run", "validate flags")
	}

	if cliCfg.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil
	}

	if cliCfg.ShowHelp {
		cliCfg.usage()
		return nil
	}

	// Bootstrap logger until the scenario's log settings are known
	slog.SetDefault(setupLogger(firstNonEmpty(cliCfg.LogLevel, "info"), cliCfg.LogFormat, stderr))

	scenarios, err := loadScenarios(cliCfg.scenarioPaths(), cliCfg.Workers)
	if err != nil {
		return err
	}

	// the first scenario's log settings apply to the whole run
	first := scenarios[0].cfg
	logger := setupLogger(
		firstNonEmpty(cliCfg.LogLevel, first.Log.Level),
		firstNonEmpty(cliCfg.LogFormat, first.Log.Format),
		stderr,
	)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		for _, sc := range scenarios {
			logger.Info("Configuration is valid",
				"config_path", sc.path,
				"buffers", len(sc.cfg.Buffers),
				"steps", len(sc.cfg.Steps))
		}
		return nil
	}

	reports, err := replayAll(ctx, scenarios, replayOptions{
		workers:  cliCfg.Workers,
		timeout:  cliCfg.Timeout,
		stepRate: cliCfg.StepRate,
	}, logger)
	if err != nil {
		return err
	}

	for i, report := range reports {
		if i > 0 && cliCfg.Output == "text" {
			_, _ = fmt.Fprintln(stdout)
		}
		if err := writeReport(stdout, report, cliCfg.Output); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

// loadConfig loads configuration from the specified file path
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	cfg, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
