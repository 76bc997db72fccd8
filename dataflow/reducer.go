package dataflow

import "context"

// ReducerActor is an Actor driven entirely by queued pure functions: each
// Dispatch call is conceptually a relay send of one event, consumed by
// the actor's own processor goroutine and folded into its state with
// Handle.Update. It's the common shape behind most of the state slices in
// this module (selection, timeline control, config) where every event is
// naturally "take current state, produce next state".
type ReducerActor[T any] struct {
	actor *Actor[T]
	cmds  chan func(T) T
}

// NewReducerActor starts a ReducerActor seeded with initial. queueSize
// bounds how many pending Dispatch calls may queue before Dispatch
// blocks; 64 is a reasonable default for UI-event-rate state.
func NewReducerActor[T any](ctx context.Context, initial T, queueSize int) *ReducerActor[T] {
	if queueSize <= 0 {
		queueSize = 64
	}
	cmds := make(chan func(T) T, queueSize)
	ra := &ReducerActor[T]{cmds: cmds}
	ra.actor = NewActor(ctx, initial, func(ctx context.Context, h *Handle[T]) {
		for {
			select {
			case <-ctx.Done():
				return
			case f := <-cmds:
				h.Update(f)
			}
		}
	})
	return ra
}

// Dispatch queues f to run on the actor's own goroutine against whatever
// state is current at the time it's drained.
func (ra *ReducerActor[T]) Dispatch(f func(T) T) { ra.cmds <- f }

// Signal exposes the reactive value stream.
func (ra *ReducerActor[T]) Signal() *Signal[T] { return ra.actor.Signal() }

// Get reads a snapshot of the current state.
func (ra *ReducerActor[T]) Get() T { return ra.actor.Get() }

// Stop tears down the processor goroutine.
func (ra *ReducerActor[T]) Stop() { ra.actor.Stop() }
