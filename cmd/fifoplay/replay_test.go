package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/c360/staticfifo/config"
	"github.com/c360/staticfifo/errors"
)

func newTestPlayer(t *testing.T, buffers ...config.BufferConfig) *player {
	t.Helper()

	cfg := &config.Config{Buffers: buffers}
	p, err := newPlayer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(p.close)
	return p
}

func TestPlayer_Apply(t *testing.T) {
	p := newTestPlayer(t, config.BufferConfig{Name: "a", Capacity: 3, Initial: []int64{10, 20}})

	tests := []struct {
		step       config.Step
		wantCount  int
		wantValues []int64
	}{
		{config.Step{Buffer: "a", Op: config.OpRead, N: 5}, 2, []int64{10, 20}},
		{config.Step{Buffer: "a", Op: config.OpPeek}, 1, []int64{10}},
		{config.Step{Buffer: "a", Op: config.OpPop}, 1, []int64{10}},
		{config.Step{Buffer: "a", Op: config.OpPush, Values: []int64{30, 40}}, 2, nil},
		{config.Step{Buffer: "a", Op: config.OpPull, N: 2}, 2, []int64{20, 30}},
		{config.Step{Buffer: "a", Op: config.OpDrop, N: 4}, 1, nil},
		{config.Step{Buffer: "a", Op: config.OpPop, N: 3}, 0, nil},
		{config.Step{Buffer: "a", Op: config.OpPeek}, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.step.String(), func(t *testing.T) {
			result, err := p.apply(tt.step)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, result.Count)
			assert.Equal(t, tt.wantValues, result.Values)
		})
	}
}

func TestPlayer_WriteCountsGrowth(t *testing.T) {
	tests := []struct {
		name        string
		policy      string
		wantCount   int
		wantDropped []int64
		wantSize    int
	}{
		{"drop_newest declines the last item", "drop_newest", 2, []int64{3}, 2},
		{"drop_oldest overwrites the first item", "drop_oldest", 2, []int64{1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlayer(t, config.BufferConfig{Name: "a", Capacity: 2, Policy: tt.policy})

			result, err := p.apply(config.Step{Buffer: "a", Op: config.OpWrite, Values: []int64{1, 2, 3}})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, result.Count)
			assert.Equal(t, tt.wantDropped, result.Dropped)
			assert.Equal(t, tt.wantSize, p.buffers["a"].Size())

			// a full buffer grows no further
			result, err = p.apply(config.Step{Buffer: "a", Op: config.OpWrite, Values: []int64{4}})
			require.NoError(t, err)
			assert.Equal(t, 0, result.Count)
		})
	}
}

func TestPlayer_ReadDoesNotConsume(t *testing.T) {
	p := newTestPlayer(t, config.BufferConfig{Name: "a", Capacity: 2, Initial: []int64{1, 2}})

	for i := 0; i < 2; i++ {
		result, err := p.apply(config.Step{Buffer: "a", Op: config.OpRead, N: 2})
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, result.Values)
	}
}

func TestPlayer_RunRecordsStepErrors(t *testing.T) {
	p := newTestPlayer(t, config.BufferConfig{Name: "a", Capacity: 2})

	results, err := p.run(context.Background(), []config.Step{
		{Buffer: "a", Op: config.OpClose},
		{Buffer: "a", Op: config.OpWrite, Values: []int64{1}},
		{Buffer: "missing", Op: config.OpPeek},
		{Buffer: "a", Op: config.OpPeek},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Empty(t, results[0].Error)
	assert.Contains(t, results[1].Error, "buffer closed")
	assert.Equal(t, 0, results[1].Count)
	assert.Contains(t, results[2].Error, "unknown buffer")
	assert.Equal(t, 3, results[3].Index)
}

func TestPlayer_RunPacesSteps(t *testing.T) {
	p := newTestPlayer(t, config.BufferConfig{Name: "a", Capacity: 4})
	p.limiter = rate.NewLimiter(rate.Limit(50), 1)

	steps := []config.Step{
		{Buffer: "a", Op: config.OpWrite, Values: []int64{1}},
		{Buffer: "a", Op: config.OpWrite, Values: []int64{2}},
		{Buffer: "a", Op: config.OpWrite, Values: []int64{3}},
		{Buffer: "a", Op: config.OpWrite, Values: []int64{4}},
	}

	start := time.Now()
	results, err := p.run(context.Background(), steps)
	require.NoError(t, err)
	require.Len(t, results, 4)

	// the first step uses the burst, the other three wait 20ms each
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, []int64{1, 2, 3, 4}, p.buffers["a"].Contents())
}

func TestPlayer_RunStopsWhilePaced(t *testing.T) {
	p := newTestPlayer(t, config.BufferConfig{Name: "a", Capacity: 4})
	p.limiter = rate.NewLimiter(rate.Limit(0.01), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	results, err := p.run(ctx, []config.Step{
		{Buffer: "a", Op: config.OpPeek},
		{Buffer: "a", Op: config.OpPeek},
	})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Len(t, results, 1, "the burst covers only the first step")
}

func TestPlayer_MetricsOnlyWhenEnabled(t *testing.T) {
	p := newTestPlayer(t,
		config.BufferConfig{Name: "on", Capacity: 2, Metrics: true},
		config.BufferConfig{Name: "off", Capacity: 2},
	)

	report, err := p.report("inline", nil)
	require.NoError(t, err)
	require.Len(t, report.Buffers, 2)
	assert.Equal(t, []int64{}, report.Buffers[1].Contents)

	require.Len(t, report.Metrics, 7)
	for _, s := range report.Metrics {
		assert.Equal(t, "on", s.Labels["component"])
	}
}
