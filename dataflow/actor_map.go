package dataflow

import (
	"cmp"
	"context"
	"slices"
)

// orderedMap is a sorted-by-key map with deterministic iteration order.
// Inserting an existing key replaces its value in place without
// reordering, matching ActorMap's contract.
type orderedMap[K cmp.Ordered, V any] struct {
	keys   []K
	values map[K]V
}

func newOrderedMap[K cmp.Ordered, V any]() orderedMap[K, V] {
	return orderedMap[K, V]{values: make(map[K]V)}
}

func (m orderedMap[K, V]) clone() orderedMap[K, V] {
	out := orderedMap[K, V]{
		keys:   append([]K{}, m.keys...),
		values: make(map[K]V, len(m.values)),
	}
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

func (m *orderedMap[K, V]) set(k K, v V) {
	if _, exists := m.values[k]; !exists {
		idx, _ := slices.BinarySearch(m.keys, k)
		m.keys = slices.Insert(m.keys, idx, k)
	}
	m.values[k] = v
}

func (m *orderedMap[K, V]) delete(k K) {
	if _, exists := m.values[k]; !exists {
		return
	}
	delete(m.values, k)
	if idx, ok := slices.BinarySearch(m.keys, k); ok {
		m.keys = slices.Delete(m.keys, idx, idx+1)
	}
}

func (m orderedMap[K, V]) get(k K) (V, bool) {
	v, ok := m.values[k]
	return v, ok
}

func (m orderedMap[K, V]) entries() []MapEntry[K, V] {
	out := make([]MapEntry[K, V], 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, MapEntry[K, V]{Key: k, Value: m.values[k]})
	}
	return out
}

// MapEntry is one key/value pair in deterministic key order.
type MapEntry[K cmp.Ordered, V any] struct {
	Key   K
	Value V
}

// MapHandle lets an ActorMap's processor mutate the backing map.
type MapHandle[K cmp.Ordered, V any] struct {
	h         *Handle[orderedMap[K, V]]
	keySignal func(K) *Signal[*V]
	notify    func(K, *V)
}

// Set inserts or replaces the value for k, preserving its existing
// position if already present.
func (mh *MapHandle[K, V]) Set(k K, v V) {
	cur := mh.h.Get().clone()
	cur.set(k, v)
	mh.h.Set(cur)
	mh.notify(k, &v)
}

// Delete removes k if present.
func (mh *MapHandle[K, V]) Delete(k K) {
	cur := mh.h.Get()
	if _, ok := cur.get(k); !ok {
		return
	}
	cur = cur.clone()
	cur.delete(k)
	mh.h.Set(cur)
	mh.notify(k, nil)
}

// Get reads the current value for k, if present.
func (mh *MapHandle[K, V]) Get(k K) (V, bool) { return mh.h.Get().get(k) }

// Clear empties the map.
func (mh *MapHandle[K, V]) Clear() {
	cur := mh.h.Get()
	if len(cur.keys) == 0 {
		return
	}
	for _, k := range append([]K{}, cur.keys...) {
		mh.notify(k, nil)
	}
	mh.h.Set(newOrderedMap[K, V]())
}

// ActorMap is an Actor whose owned value is a deterministically ordered
// key-value map.
type ActorMap[K cmp.Ordered, V any] struct {
	actor *Actor[orderedMap[K, V]]

	keyMu   chan struct{} // guards keySigs
	keySigs map[any]*Signal[*V]
}

// NewActorMap starts processor with a MapHandle bound to a fresh map actor.
func NewActorMap[K cmp.Ordered, V any](ctx context.Context, processor func(ctx context.Context, h *MapHandle[K, V])) *ActorMap[K, V] {
	am := &ActorMap[K, V]{
		keyMu:   make(chan struct{}, 1),
		keySigs: make(map[any]*Signal[*V]),
	}
	am.keyMu <- struct{}{}

	am.actor = NewActor(ctx, newOrderedMap[K, V](), func(ctx context.Context, h *Handle[orderedMap[K, V]]) {
		mh := &MapHandle[K, V]{
			h: h,
			notify: func(k K, v *V) {
				<-am.keyMu
				sig, ok := am.keySigs[k]
				am.keyMu <- struct{}{}
				if ok {
					sig.set(v)
				}
			},
		}
		processor(ctx, mh)
	})
	return am
}

// Signal exposes the whole-map snapshot as a slice of entries in key order.
func (am *ActorMap[K, V]) Signal() *Signal[[]MapEntry[K, V]] {
	return MapSignal(am.actor.Signal(), func(m orderedMap[K, V]) []MapEntry[K, V] { return m.entries() })
}

// Get returns a snapshot copy of the full map as ordered entries.
func (am *ActorMap[K, V]) Get() []MapEntry[K, V] { return am.actor.Get().entries() }

// Lookup reads the current value for k without waiting on a signal.
func (am *ActorMap[K, V]) Lookup(k K) (V, bool) { return am.actor.Get().get(k) }

// KeySignal returns a signal of *V for a single key: nil while absent.
func (am *ActorMap[K, V]) KeySignal(k K) *Signal[*V] {
	<-am.keyMu
	sig, ok := am.keySigs[k]
	if !ok {
		v, present := am.actor.Get().get(k)
		var init *V
		if present {
			init = &v
		}
		sig = newSignal(init)
		am.keySigs[k] = sig
	}
	am.keyMu <- struct{}{}
	return sig
}

// LenSignal derives a signal of the map's cardinality.
func (am *ActorMap[K, V]) LenSignal() *Signal[int] {
	return MapSignal(am.actor.Signal(), func(m orderedMap[K, V]) int { return len(m.keys) })
}

// IsEmptySignal derives a signal of whether the map is empty.
func (am *ActorMap[K, V]) IsEmptySignal() *Signal[bool] {
	return MapSignal(am.actor.Signal(), func(m orderedMap[K, V]) bool { return len(m.keys) == 0 })
}

// Stop tears down the processor goroutine.
func (am *ActorMap[K, V]) Stop() { am.actor.Stop() }
