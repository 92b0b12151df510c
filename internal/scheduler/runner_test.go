package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripwatch/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockTrigger counts generations and signals each one on a channel.
type mockTrigger struct {
	calls  atomic.Int32
	ran    chan struct{}
	result *types.ForecastResult
	err    error
}

func newMockTrigger() *mockTrigger {
	return &mockTrigger{
		ran:    make(chan struct{}, 16),
		result: &types.ForecastResult{OutputImagePath: "/data/report.png"},
	}
}

func (m *mockTrigger) Generate(_ context.Context) (*types.ForecastResult, error) {
	m.calls.Add(1)
	m.ran <- struct{}{}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockNotifier counts dispatches and signals each one on a channel.
type mockNotifier struct {
	calls   atomic.Int32
	ran     chan struct{}
	lastRes *types.ForecastResult
	err     error
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{ran: make(chan struct{}, 16)}
}

func (m *mockNotifier) NotifyReport(_ context.Context, result *types.ForecastResult) error {
	m.calls.Add(1)
	m.lastRes = result
	m.ran <- struct{}{}
	return m.err
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cycle")
	}
}

func TestRunGeneratesImmediatelyThenOnTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	trigger := newMockTrigger()
	notifier := newMockNotifier()

	runner := NewRunner(RunnerConfig{
		Trigger:  trigger,
		Notifier: notifier,
		Interval: time.Hour,
		Clock:    clock,
		Logger:   testLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	// Immediate startup cycle.
	waitSignal(t, trigger.ran)
	waitSignal(t, notifier.ran)
	assert.Equal(t, int32(1), trigger.calls.Load())

	// Two interval ticks.
	clock.BlockUntil(1)
	clock.Advance(time.Hour)
	waitSignal(t, trigger.ran)
	waitSignal(t, notifier.ran)

	clock.BlockUntil(1)
	clock.Advance(time.Hour)
	waitSignal(t, trigger.ran)
	waitSignal(t, notifier.ran)

	assert.Equal(t, int32(3), trigger.calls.Load())
	assert.Equal(t, int32(3), notifier.calls.Load())
	assert.Equal(t, trigger.result, notifier.lastRes)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestRunSurvivesGenerationFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	trigger := newMockTrigger()
	trigger.err = errors.New("upstream down")
	notifier := newMockNotifier()

	runner := NewRunner(RunnerConfig{
		Trigger:  trigger,
		Notifier: notifier,
		Interval: time.Hour,
		Clock:    clock,
		Logger:   testLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	waitSignal(t, trigger.ran)

	// The loop keeps ticking after a failed cycle, and the notifier is
	// never invoked for a failed run.
	clock.BlockUntil(1)
	clock.Advance(time.Hour)
	waitSignal(t, trigger.ran)

	assert.Equal(t, int32(2), trigger.calls.Load())
	assert.Zero(t, notifier.calls.Load())

	cancel()
	<-done
}

func TestRunSurvivesNotifierFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	trigger := newMockTrigger()
	notifier := newMockNotifier()
	notifier.err = errors.New("ses unavailable")

	runner := NewRunner(RunnerConfig{
		Trigger:  trigger,
		Notifier: notifier,
		Interval: time.Hour,
		Clock:    clock,
		Logger:   testLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	waitSignal(t, trigger.ran)
	waitSignal(t, notifier.ran)

	clock.BlockUntil(1)
	clock.Advance(time.Hour)
	waitSignal(t, trigger.ran)
	waitSignal(t, notifier.ran)

	assert.Equal(t, int32(2), trigger.calls.Load())

	cancel()
	<-done
}

func TestRunWithoutNotifier(t *testing.T) {
	clock := clockwork.NewFakeClock()
	trigger := newMockTrigger()

	runner := NewRunner(RunnerConfig{
		Trigger:  trigger,
		Interval: time.Hour,
		Clock:    clock,
		Logger:   testLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	waitSignal(t, trigger.ran)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
