package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/c360/staticfifo/config"
	"github.com/c360/staticfifo/errors"
	"github.com/c360/staticfifo/pkg/worker"
)

// scenario is a loaded scenario file waiting to be replayed.
type scenario struct {
	index int
	path  string
	cfg   *config.Config
}

func (s scenario) name() string {
	return filepath.Base(s.path)
}

// replayOptions controls how scenarios are scheduled and paced.
type replayOptions struct {
	workers  int
	timeout  time.Duration
	stepRate float64 // steps per second per scenario; 0 means unthrottled
}

// loadScenarios loads and validates every path, at most workers at a time,
// before anything is replayed.
func loadScenarios(paths []string, workers int) ([]scenario, error) {
	scenarios := make([]scenario, len(paths))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			scenarios[i] = scenario{index: i, path: path, cfg: cfg}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scenarios, nil
}

// replayAll replays the scenarios on a worker pool. Reports come back in the
// order the scenarios were given, whatever order they finish in.
func replayAll(ctx context.Context, scenarios []scenario, opts replayOptions, logger *slog.Logger) ([]*Report, error) {
	reports := make([]*Report, len(scenarios))
	failures := make([]error, len(scenarios))

	// each job writes only its own slot
	pool := worker.NewPool(opts.workers, len(scenarios), func(ctx context.Context, sc scenario) error {
		reports[sc.index], failures[sc.index] = replayScenario(ctx, sc, opts.stepRate, logger)
		return failures[sc.index]
	}, worker.WithLogger[scenario](logger))

	if err := pool.Start(ctx); err != nil {
		return nil, errors.WrapFatal(err, "fifoplay", "replayAll", "start workers")
	}
	for _, sc := range scenarios {
		if err := pool.Submit(sc); err != nil {
			_ = pool.Stop(opts.timeout)
			return nil, errors.WrapFatal(err, "fifoplay", "replayAll", "queue scenario")
		}
	}
	if err := pool.Stop(opts.timeout); err != nil {
		return nil, errors.WrapTransient(err, "fifoplay", "replayAll", "wait for scenarios")
	}

	// a cancelled pool abandons queued scenarios, leaving their slots empty
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "fifoplay", "replayAll", "replay")
	}

	for i, err := range failures {
		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", scenarios[i].name(), err)
		}
	}

	stats := pool.Stats()
	logger.Debug("Scenarios replayed",
		"scenarios", stats.Processed,
		"workers", stats.Workers)
	return reports, nil
}

// replayScenario runs one scenario on fresh buffers and reports their final state.
func replayScenario(ctx context.Context, sc scenario, stepRate float64, logger *slog.Logger) (*Report, error) {
	logger = logger.With("scenario", sc.name())
	logger.Info("Starting replay",
		"config_path", sc.path,
		"buffers", len(sc.cfg.Buffers),
		"steps", len(sc.cfg.Steps))

	p, err := newPlayer(sc.cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create buffers: %w", err)
	}
	defer p.close()

	if stepRate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(stepRate), 1)
	}

	results, err := p.run(ctx, sc.cfg.Steps)
	if err != nil {
		return nil, err
	}

	report, err := p.report(sc.name(), results)
	if err != nil {
		return nil, err
	}

	logger.Debug("Replay finished", "steps", len(results))
	return report, nil
}
