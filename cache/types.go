// Package cache implements the unified timeline cache and query service
// (spec §4.3): the mediator between selection/viewport state and the
// external waveform-parsing backend. It deduplicates overlapping
// requests, serves cursor and viewport reads from whatever is already
// cached, and reconciles backend responses back into state.
package cache

import (
	"time"

	"novywave/protocol"
	"novywave/timeline"
)

// RequestType tags which of the three query shapes a CacheRequestState
// represents.
type RequestType int

const (
	RequestViewport RequestType = iota
	RequestCursor
	RequestRaw
)

// ViewportSignalData is the decimated, viewport-scoped transition set for
// one signal, as handed to the renderer.
type ViewportSignalData struct {
	Transitions            []protocol.SignalTransition
	Viewport               timeline.Viewport
	LastUpdated            time.Time
	TotalSourceTransitions uint64
}

// CacheRequestState tracks one in-flight backend request.
type CacheRequestState struct {
	RequestID        string
	RequestedSignals []string
	CursorTime       *timeline.TimeNs
	Viewport         *timeline.Viewport
	TimestampNs      int64 // UnixNano of issue time
	RequestType      RequestType
	Signature        uint64 // xxhash of RequestType+sorted signal ids, for log correlation
}

// Statistics are the running counters from §4.3.
type Statistics struct {
	TotalRequests   uint64
	CacheHits       uint64
	LastQueryTimeMs float64
}

// HitRatio is cache_hits/total_requests, 0 when no requests have been made.
func (s Statistics) HitRatio() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.TotalRequests)
}

// Metadata is the cache's own bookkeeping of the current view.
type Metadata struct {
	CurrentViewport  timeline.Viewport
	CurrentCursor    timeline.TimeNs
	Statistics       Statistics
	LastInvalidation time.Time
	ViewportValid    bool
	CursorValid      bool
}

// BackendSink is the opaque backend collaborator (§1: "out of scope;
// addressed only through message types"). A real deployment wires this to
// whatever process speaks the wire protocol in protocol/messages.go; tests
// use a fake.
type BackendSink interface {
	SendQuery(q protocol.UnifiedSignalQuery)
}

// FormatLookup resolves which waveform Format backs a signal id, used to
// pick the format-dependent dedup window (§4.3).
type FormatLookup func(signalID string) protocol.Format

// dedupWindow returns the deduplication window for a signal, per §4.3:
// FST tolerates more staleness (1500ms) than VCD (500ms).
func dedupWindow(signalID string, lookup FormatLookup) time.Duration {
	if lookup == nil {
		return 500 * time.Millisecond
	}
	if lookup(signalID) == protocol.FormatFST {
		return 1500 * time.Millisecond
	}
	return 500 * time.Millisecond
}
