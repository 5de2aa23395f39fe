package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"guildpulse/internal/structures"
	"guildpulse/internal/testutil"
)

type pingEvent struct{ n int }

func (pingEvent) Kind() string { return "ping" }

type panicEvent struct{}

func (panicEvent) Kind() string { return "panic" }

type recordingHandler struct {
	mu     sync.Mutex
	seen   []Event
	effect func(ev Event) []Effect
}

func (h *recordingHandler) Handle(_ context.Context, ev Event) []Effect {
	if _, ok := ev.(panicEvent); ok {
		panic("handler exploded")
	}
	h.mu.Lock()
	h.seen = append(h.seen, ev)
	h.mu.Unlock()
	if h.effect != nil {
		return h.effect(ev)
	}
	return nil
}

func (h *recordingHandler) events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.seen...)
}

type recordingApplier struct {
	mu      sync.Mutex
	applied []Effect
	waited  int
}

func (a *recordingApplier) Wait() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.waited++
}

func (a *recordingApplier) Apply(_ context.Context, effects []Effect) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applied = append(a.applied, effects...)
}

func startDispatcher(t *testing.T, h EventHandler, a EffectApplier) (*Dispatcher, *testutil.MockMetrics, func()) {
	t.Helper()
	metrics := testutil.NewMockMetrics()
	d := NewDispatcher(&structures.Config{Discord: structures.DiscordConfig{QueueSize: 8}}, h, a, &testutil.MockLogger{}, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	require.Eventually(t, d.Running, time.Second, time.Millisecond)

	return d, metrics, func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func TestDispatcher_ProcessesEventsInOrder(t *testing.T) {
	h := &recordingHandler{}
	d, metrics, stop := startDispatcher(t, h, &recordingApplier{})

	for i := 0; i < 20; i++ {
		require.NoError(t, d.Submit(context.Background(), pingEvent{n: i}))
	}
	require.Eventually(t, func() bool { return len(h.events()) == 20 }, time.Second, time.Millisecond)
	stop()

	for i, ev := range h.events() {
		assert.Equal(t, pingEvent{n: i}, ev)
	}
	assert.Equal(t, 20, metrics.Events["ping"])
}

func TestDispatcher_AppliesInlineEffectsAndRunsAsync(t *testing.T) {
	h := &recordingHandler{}
	h.effect = func(ev Event) []Effect {
		p, ok := ev.(pingEvent)
		if !ok || p.n != 1 {
			return nil
		}
		return []Effect{
			RefreshStats{GuildID: "g"},
			Async{Name: "follow", Run: func(context.Context) Event { return pingEvent{n: 2} }},
		}
	}
	a := &recordingApplier{}
	d, _, stop := startDispatcher(t, h, a)

	require.NoError(t, d.Submit(context.Background(), pingEvent{n: 1}))
	require.Eventually(t, func() bool { return len(h.events()) == 2 }, time.Second, time.Millisecond)
	stop()

	assert.Equal(t, []Event{pingEvent{n: 1}, pingEvent{n: 2}}, h.events())
	assert.Equal(t, []Effect{RefreshStats{GuildID: "g"}}, a.applied)
	assert.Equal(t, 1, a.waited)
}

func TestDispatcher_RecoversFromPanics(t *testing.T) {
	h := &recordingHandler{}
	d, _, stop := startDispatcher(t, h, &recordingApplier{})

	require.NoError(t, d.Submit(context.Background(), panicEvent{}))
	require.NoError(t, d.Submit(context.Background(), pingEvent{n: 7}))
	require.Eventually(t, func() bool { return len(h.events()) == 1 }, time.Second, time.Millisecond)
	stop()

	assert.Equal(t, []Event{pingEvent{n: 7}}, h.events())
}

func TestDispatcher_SubmitAfterStop(t *testing.T) {
	d, _, stop := startDispatcher(t, &recordingHandler{}, &recordingApplier{})
	stop()

	assert.ErrorIs(t, d.Submit(context.Background(), pingEvent{}), ErrDispatcherStopped)
	assert.False(t, d.Running())
}

func TestDispatcher_SubmitHonoursContext(t *testing.T) {
	d := NewDispatcher(&structures.Config{Discord: structures.DiscordConfig{QueueSize: 1}},
		&recordingHandler{}, &recordingApplier{}, &testutil.MockLogger{}, testutil.NewMockMetrics())
	require.NoError(t, d.Submit(context.Background(), pingEvent{}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Submit(ctx, pingEvent{}), context.DeadlineExceeded)
}
