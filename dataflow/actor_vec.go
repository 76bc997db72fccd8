package dataflow

import "context"

// VecOpKind tags the shape of a single VecOp diff.
type VecOpKind int

const (
	VecInsert VecOpKind = iota
	VecRemoveAt
	VecReplaceAt
	VecClear
	VecPush
)

// VecOp is one incremental change to an ActorVec's backing slice, the Go
// analogue of the diff stream produced by signal_vec() so a UI can apply
// updates incrementally instead of re-rendering the whole list.
type VecOp[T any] struct {
	Kind  VecOpKind
	Index int
	Item  T
}

// VecHandle lets an ActorVec's processor mutate the backing slice while
// automatically emitting the corresponding diff and refreshing the
// snapshot signal.
type VecHandle[T any] struct {
	h     *Handle[[]T]
	diffs *Relay[VecOp[T]]
}

// Snapshot returns the current slice contents (a copy is not made; callers
// must not mutate it).
func (vh *VecHandle[T]) Snapshot() []T { return vh.h.Get() }

// Push appends item to the end.
func (vh *VecHandle[T]) Push(item T) {
	cur := vh.h.Get()
	next := append(append([]T{}, cur...), item)
	vh.h.Set(next)
	vh.diffs.Send(VecOp[T]{Kind: VecPush, Index: len(next) - 1, Item: item})
}

// RetainFunc keeps only items for which keep returns true, preserving
// relative order. Emits a VecClear diff followed by one VecInsert per
// kept item (at its new index), since a generic "retain" has no single
// natural diff primitive. Nothing is emitted when every item is kept.
func (vh *VecHandle[T]) RetainFunc(keep func(T) bool) {
	cur := vh.h.Get()
	next := make([]T, 0, len(cur))
	for _, it := range cur {
		if keep(it) {
			next = append(next, it)
		}
	}
	if len(next) == len(cur) {
		return
	}
	vh.h.Set(next)
	vh.diffs.Send(VecOp[T]{Kind: VecClear})
	for i, it := range next {
		vh.diffs.Send(VecOp[T]{Kind: VecInsert, Index: i, Item: it})
	}
}

// ReplaceAll replaces the whole backing slice wholesale (config load,
// variables_restored, expanded_scopes_restored).
func (vh *VecHandle[T]) ReplaceAll(items []T) {
	next := append([]T{}, items...)
	vh.h.Set(next)
	vh.diffs.Send(VecOp[T]{Kind: VecClear})
	for i, it := range next {
		vh.diffs.Send(VecOp[T]{Kind: VecInsert, Index: i, Item: it})
	}
}

// UpdateMatching mutates, in place, the first item for which match
// returns true, using update to produce the replacement. Order is
// preserved. No-op if nothing matches.
func (vh *VecHandle[T]) UpdateMatching(match func(T) bool, update func(T) T) {
	cur := vh.h.Get()
	for i, it := range cur {
		if match(it) {
			next := append([]T{}, cur...)
			next[i] = update(it)
			vh.h.Set(next)
			vh.diffs.Send(VecOp[T]{Kind: VecReplaceAt, Index: i, Item: next[i]})
			return
		}
	}
}

// Clear empties the slice.
func (vh *VecHandle[T]) Clear() {
	if len(vh.h.Get()) == 0 {
		return
	}
	vh.h.Set(nil)
	vh.diffs.Send(VecOp[T]{Kind: VecClear})
}

// ActorVec is an Actor whose owned value is an ordered collection, with an
// additional diff signal for incremental UI updates.
type ActorVec[T any] struct {
	actor *Actor[[]T]
	diffs *Relay[VecOp[T]]
}

// NewActorVec starts processor with a VecHandle bound to a fresh slice
// actor seeded with initial.
func NewActorVec[T any](ctx context.Context, initial []T, processor func(ctx context.Context, h *VecHandle[T])) *ActorVec[T] {
	diffs := NewRelay[VecOp[T]]()
	av := &ActorVec[T]{diffs: diffs}
	av.actor = NewActor(ctx, append([]T{}, initial...), func(ctx context.Context, h *Handle[[]T]) {
		processor(ctx, &VecHandle[T]{h: h, diffs: diffs})
	})
	return av
}

// Signal exposes the whole-slice snapshot stream.
func (av *ActorVec[T]) Signal() *Signal[[]T] { return av.actor.Signal() }

// Get returns the current slice snapshot.
func (av *ActorVec[T]) Get() []T { return av.actor.Get() }

// SignalVec exposes the incremental diff stream.
func (av *ActorVec[T]) SignalVec(ctx context.Context) <-chan VecOp[T] { return av.diffs.Subscribe(ctx) }

// LenSignal derives a signal of the collection's length.
func (av *ActorVec[T]) LenSignal() *Signal[int] {
	return MapSignal(av.actor.Signal(), func(v []T) int { return len(v) })
}

// IsEmptySignal derives a signal of whether the collection is empty.
func (av *ActorVec[T]) IsEmptySignal() *Signal[bool] {
	return MapSignal(av.actor.Signal(), func(v []T) bool { return len(v) == 0 })
}

// Stop tears down the processor goroutine.
func (av *ActorVec[T]) Stop() { av.actor.Stop() }
