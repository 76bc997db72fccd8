package cache

import (
	"sort"

	"novywave/protocol"
)

// interpolateFromTransitions resolves a cursor value by holding the last
// transition at or before atNs (waveform signals are step functions
// between transitions). ok is false if atNs precedes every transition.
func interpolateFromTransitions(transitions []protocol.SignalTransition, atNs uint64) (protocol.SignalValue, bool) {
	if len(transitions) == 0 {
		return protocol.SignalValue{}, false
	}
	idx := sort.Search(len(transitions), func(i int) bool {
		return transitions[i].TimeNs > atNs
	})
	if idx == 0 {
		return protocol.SignalValue{}, false
	}
	return protocol.Present(transitions[idx-1].Value), true
}
