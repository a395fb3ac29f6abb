package main

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/c360/staticfifo/config"
	"github.com/c360/staticfifo/errors"
	"github.com/c360/staticfifo/metric"
	"github.com/c360/staticfifo/pkg/buffer"
)

// StepResult records what one step did.
type StepResult struct {
	Index   int     `json:"index"`
	Buffer  string  `json:"buffer"`
	Op      string  `json:"op"`
	Count   int     `json:"count"`
	Values  []int64 `json:"values,omitempty"`
	Dropped []int64 `json:"dropped,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// player owns the scenario's buffers and applies steps to them.
type player struct {
	cfg      *config.Config
	buffers  map[string]buffer.Buffer[int64]
	registry *metric.MetricsRegistry
	logger   *slog.Logger
	limiter  *rate.Limiter // paces steps when set

	// filled by the drop callbacks while a step runs
	dropped []int64
}

// newPlayer builds one buffer per configured entry. Buffers with metrics
// enabled share a registry, labelled by buffer name.
func newPlayer(cfg *config.Config, logger *slog.Logger) (*player, error) {
	p := &player{
		cfg:      cfg,
		buffers:  make(map[string]buffer.Buffer[int64], len(cfg.Buffers)),
		registry: metric.NewMetricsRegistry(),
		logger:   logger,
	}

	for _, bc := range cfg.Buffers {
		opts := []buffer.Option[int64]{
			buffer.WithOverflowPolicy[int64](bc.OverflowPolicy()),
			buffer.WithDropCallback(p.onDrop),
			buffer.WithLogger[int64](logger),
			buffer.WithInitial(bc.Initial...),
		}
		if bc.Metrics {
			opts = append(opts, buffer.WithMetrics[int64](p.registry, bc.Name))
		}

		buf, err := buffer.NewCircularBuffer(bc.Capacity, opts...)
		if err != nil {
			return nil, errors.Wrap(err, "player", "newPlayer", fmt.Sprintf("create buffer %s", bc.Name))
		}
		p.buffers[bc.Name] = buf

		logger.Debug("buffer created",
			"name", bc.Name,
			"capacity", buf.Capacity(),
			"policy", bc.OverflowPolicy().String(),
			"initial", len(bc.Initial),
			"metrics", bc.Metrics)
	}

	return p, nil
}

func (p *player) onDrop(item int64) {
	p.dropped = append(p.dropped, item)
}

// run applies the steps in order. A step that fails is recorded in its result
// and the replay continues; only cancellation stops it early.
func (p *player) run(ctx context.Context, steps []config.Step) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return results, errors.WrapTransient(err, "player", "run", fmt.Sprintf("step %d", i))
		}
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return results, errors.WrapTransient(err, "player", "run", fmt.Sprintf("pace step %d", i))
			}
		}

		result, err := p.apply(step)
		result.Index = i
		if err != nil {
			if !errors.IsInvalid(err) {
				return results, err
			}
			result.Error = err.Error()
			p.logger.Warn("step failed", "index", i, "step", step.String(), "error", err)
		} else {
			p.logger.Debug("step applied",
				"index", i,
				"step", step.String(),
				"count", result.Count,
				"values", result.Values,
				"dropped", result.Dropped)
		}

		results = append(results, result)
	}

	return results, nil
}

// apply runs one step against its buffer.
func (p *player) apply(step config.Step) (StepResult, error) {
	result := StepResult{Buffer: step.Buffer, Op: step.Op}

	buf, ok := p.buffers[step.Buffer]
	if !ok {
		return result, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownBuffer, step.Buffer),
			"player", "apply", "lookup buffer")
	}

	p.dropped = p.dropped[:0]

	var err error
	switch step.Op {
	case config.OpWrite:
		// count growth, as push does: declined and overwriting writes add nothing
		before := buf.Size()
		for _, v := range step.Values {
			if err = buf.Write(v); err != nil {
				break
			}
		}
		result.Count = buf.Size() - before

	case config.OpPush:
		result.Count, err = buf.WriteBatch(step.Values)

	case config.OpPop:
		for i := 0; i < step.Count(); i++ {
			v, ok := buf.Read()
			if !ok {
				break
			}
			result.Values = append(result.Values, v)
		}
		result.Count = len(result.Values)

	case config.OpPull:
		result.Values = buf.ReadBatch(step.Count())
		result.Count = len(result.Values)

	case config.OpRead:
		contents := buf.Contents()
		result.Values = contents[:min(step.Count(), len(contents))]
		result.Count = len(result.Values)

	case config.OpPeek:
		if v, ok := buf.Peek(); ok {
			result.Values = []int64{v}
			result.Count = 1
		}

	case config.OpDrop:
		result.Count = buf.Drop(step.Count())

	case config.OpReset:
		result.Count = buf.Size()
		buf.Clear()

	case config.OpClose:
		err = buf.Close()

	default:
		err = errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownOperation, step.Op),
			"player", "apply", "dispatch")
	}

	if len(p.dropped) > 0 {
		result.Dropped = append([]int64(nil), p.dropped...)
	}
	return result, err
}

// close closes every buffer.
func (p *player) close() {
	for name, buf := range p.buffers {
		if err := buf.Close(); err != nil {
			p.logger.Warn("close buffer", "name", name, "error", err)
		}
	}
}
