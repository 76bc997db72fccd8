package dataflow

import "context"

// Handle is the only way a processor may mutate its actor's state. It is
// handed to the processor function and must not escape it.
type Handle[T any] struct {
	signal *Signal[T]
}

// Get reads the actor's current value.
func (h *Handle[T]) Get() T { return h.signal.Get() }

// Set replaces the actor's value and notifies every subscriber.
func (h *Handle[T]) Set(v T) { h.signal.set(v) }

// Update reads the current value, applies f, and stores the result. f runs
// on the processor goroutine so it never races with another mutation.
func (h *Handle[T]) Update(f func(T) T) { h.signal.set(f(h.signal.Get())) }

// Actor holds a value of T that only its own processor goroutine may
// mutate. Everyone else observes it through Signal().
type Actor[T any] struct {
	signal *Signal[T]
	cancel context.CancelFunc
	done   chan struct{}
}

// NewActor starts processor on its own goroutine with a Handle bound to a
// freshly created signal seeded with initial. processor should loop,
// selecting on whatever relays it consumes, and suspend (block) between
// events — that suspension is the only point at which other processors'
// goroutines may interleave with this one's view of the world.
func NewActor[T any](ctx context.Context, initial T, processor func(ctx context.Context, h *Handle[T])) *Actor[T] {
	pctx, cancel := context.WithCancel(ctx)
	a := &Actor[T]{
		signal: newSignal(initial),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	h := &Handle[T]{signal: a.signal}
	go func() {
		defer close(a.done)
		processor(pctx, h)
	}()
	return a
}

// Signal returns the actor's observable value stream.
func (a *Actor[T]) Signal() *Signal[T] { return a.signal }

// Get is a convenience snapshot read, equivalent to Signal().Get().
func (a *Actor[T]) Get() T { return a.signal.Get() }

// Stop cancels the processor's context and waits for it to return. Any
// backend replies already in flight for this actor are swallowed, as
// spec'd: cancellation happens at the processor's next await point and
// in-flight deliveries are not reissued.
func (a *Actor[T]) Stop() {
	a.cancel()
	<-a.done
}
