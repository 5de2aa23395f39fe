package bot

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"go.uber.org/atomic"
	"guildpulse/internal/providers"
	"guildpulse/internal/structures"
)

var ErrDispatcherStopped = errors.New("dispatcher is not running")

type EventHandler interface {
	Handle(ctx context.Context, ev Event) []Effect
}

type EffectApplier interface {
	Apply(ctx context.Context, effects []Effect)
	Wait()
}

// EventSink accepts events from platform adapters and timers.
type EventSink interface {
	Submit(ctx context.Context, ev Event) error
}

// Dispatcher is the single consumer of the event queue. Handlers and their
// effects run on its goroutine one event at a time, so no two state
// mutations ever interleave.
type Dispatcher struct {
	events   chan Event
	stopped  chan struct{}
	handler  EventHandler
	executor EffectApplier
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
	running  atomic.Bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewDispatcher(conf *structures.Config, handler EventHandler, executor EffectApplier,
	logger providers.Logger, metrics providers.MetricsProviderInterface) *Dispatcher {
	return &Dispatcher{
		events:   make(chan Event, max(conf.Discord.QueueSize, 1)),
		stopped:  make(chan struct{}),
		handler:  handler,
		executor: executor,
		logger:   logger,
		metrics:  metrics,
	}
}

// Submit queues ev, blocking while the queue is full.
func (d *Dispatcher) Submit(ctx context.Context, ev Event) error {
	select {
	case <-d.stopped:
		return ErrDispatcherStopped
	default:
	}

	select {
	case d.events <- ev:
		return nil
	case <-d.stopped:
		return ErrDispatcherStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes events until ctx is cancelled, then waits for the async work
// it started. Events still queued at that point are dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("dispatcher already running")
	}
	defer d.running.Store(false)

	d.logger.Infof(providers.TypeBot, "Dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.stop()
			d.wg.Wait()
			d.executor.Wait()
			d.logger.Infof(providers.TypeBot, "Dispatcher stopped, %d events dropped", len(d.events))
			return nil
		case ev := <-d.events:
			d.process(ctx, ev)
		}
	}
}

func (d *Dispatcher) Running() bool {
	return d.running.Load()
}

func (d *Dispatcher) stop() {
	d.stopOnce.Do(func() { close(d.stopped) })
}

func (d *Dispatcher) process(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf(providers.TypeBot, "Panic while handling %s event: %v\n%s", ev.Kind(), r, debug.Stack())
		}
	}()

	d.metrics.IncEvents(ev.Kind())

	effects := d.handler.Handle(ctx, ev)
	inline := effects[:0:0]
	for _, eff := range effects {
		if a, ok := eff.(Async); ok {
			d.Go(ctx, a)
			continue
		}
		inline = append(inline, eff)
	}
	d.executor.Apply(ctx, inline)
}

// Go runs a off the loop and submits the event it returns.
func (d *Dispatcher) Go(ctx context.Context, a Async) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Errorf(providers.TypeBot, "Panic in async %s: %v\n%s", a.Name, r, debug.Stack())
			}
		}()

		ev := a.Run(ctx)
		if ev == nil {
			return
		}
		if err := d.Submit(ctx, ev); err != nil {
			d.logger.Warnf(providers.TypeBot, "Result of %s dropped: %s", a.Name, err)
		}
	}()
}
