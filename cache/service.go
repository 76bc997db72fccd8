package cache

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/buntdb"

	"novywave/dataflow"
	"novywave/protocol"
	"novywave/timeline"
)

const maxViewportTransitions = 10_000

// Service is the unified timeline cache and query service (§4.3): the
// single owner of cached viewport/cursor/raw-transition data, in-flight
// request bookkeeping, and the running hit/miss statistics.
type Service struct {
	mu sync.Mutex

	viewportMeta map[string]timeline.Viewport // signalID -> viewport it was last served for
	viewport     *dataflow.ActorMap[string, ViewportSignalData]
	cursor       *dataflow.ActorMap[string, protocol.SignalValue]
	rawCache     map[string][]protocol.SignalTransition

	meta Metadata

	requests *requestStore
	backend  BackendSink
	formatOf FormatLookup
	metrics  *metricsSet
	log      *logrus.Entry

	viewportCmds chan mapCmd[ViewportSignalData]
	cursorCmds   chan mapCmd[protocol.SignalValue]

	stopSweep func()
}

type cmdKind int

const (
	cmdSet cmdKind = iota
	cmdDelete
	cmdClear
)

// mapCmd is a single mutation request sent to an ActorMap's owning
// processor goroutine. The map itself only ever changes from inside that
// goroutine, keeping "one writer per actor" true even though several
// Service methods (called from arbitrary goroutines) want to mutate it.
type mapCmd[V any] struct {
	kind cmdKind
	key  string
	val  V
}

func runMapProcessor[V any](cmds chan mapCmd[V]) func(context.Context, *dataflow.MapHandle[string, V]) {
	return func(ctx context.Context, h *dataflow.MapHandle[string, V]) {
		for {
			select {
			case <-ctx.Done():
				return
			case cmd := <-cmds:
				switch cmd.kind {
				case cmdSet:
					h.Set(cmd.key, cmd.val)
				case cmdDelete:
					h.Delete(cmd.key)
				case cmdClear:
					h.Clear()
				}
			}
		}
	}
}

// NewService wires a cache around backend (the opaque query collaborator)
// and formatOf (used to pick the per-signal dedup window).
func NewService(ctx context.Context, backend BackendSink, formatOf FormatLookup, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Service{
		viewportMeta: make(map[string]timeline.Viewport),
		rawCache:     make(map[string][]protocol.SignalTransition),
		requests:     newRequestStore(log),
		backend:      backend,
		formatOf:     formatOf,
		metrics:      newMetricsSet(),
		log:          log,
	}
	s.viewportCmds = make(chan mapCmd[ViewportSignalData], 256)
	s.cursorCmds = make(chan mapCmd[protocol.SignalValue], 256)
	s.viewport = dataflow.NewActorMap[string, ViewportSignalData](ctx, runMapProcessor(s.viewportCmds))
	s.cursor = dataflow.NewActorMap[string, protocol.SignalValue](ctx, runMapProcessor(s.cursorCmds))
	s.stopSweep = s.requests.runSweeper()
	go func() {
		<-ctx.Done()
		s.stopSweep()
		s.requests.close()
		s.viewport.Stop()
		s.cursor.Stop()
	}()
	return s
}

// ViewportSignal gives a reactive handle to one signal's cached viewport
// data; nil until the first response lands.
func (s *Service) ViewportSignal(signalID string) *dataflow.Signal[*ViewportSignalData] {
	return s.viewport.KeySignal(signalID)
}

// CursorValueSignal gives a reactive handle to one signal's cursor value.
func (s *Service) CursorValueSignal(signalID string) *dataflow.Signal[*protocol.SignalValue] {
	return s.cursor.KeySignal(signalID)
}

// Statistics returns a snapshot of the running counters.
func (s *Service) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.Statistics
}

// RequestViewportData is the viewport-scoped query operation. It resolves
// as much as possible from cache, applies the §4.3 invalidation rule, and
// issues a backend request only for the signals that still miss after
// dedup. Returns the signal ids for which this call issued a new backend
// request; ids suppressed as duplicates of an in-flight request are not
// included.
func (s *Service) RequestViewportData(signalIDs []string, vp timeline.Viewport) []string {
	start := time.Now()
	s.mu.Lock()
	s.meta.CurrentViewport = vp
	s.meta.ViewportValid = true

	miss := lo.Filter(signalIDs, func(id string, _ int) bool {
		cachedVP, ok := s.viewportMeta[id]
		if !ok {
			return true
		}
		if viewportStale(cachedVP, vp) {
			return true
		}
		return !cachedVP.Covers(vp)
	})
	hits := len(signalIDs) - len(miss)

	vpStart, vpEnd := uint64(vp.Start), uint64(vp.End)
	pending := lo.Filter(miss, func(id string, _ int) bool {
		return !s.requests.recentlyRequested(id, RequestViewport, &vpStart, &vpEnd, nil)
	})
	dedupedAway := len(miss) - len(pending)
	s.mu.Unlock()

	s.recordQuery(len(signalIDs), hits+dedupedAway, start)

	if len(pending) == 0 {
		return nil
	}
	s.issueQuery(RequestViewport, pending, nil, &vp)
	return pending
}

// RequestCursorValues is the cursor-scoped query operation: direct cache,
// then raw-transition interpolation, then a pending/new backend request,
// in that priority order (§4.3).
func (s *Service) RequestCursorValues(signalIDs []string, cursor timeline.TimeNs) map[string]protocol.SignalValue {
	start := time.Now()
	s.mu.Lock()
	viewport := s.meta.CurrentViewport
	lastCursor := s.meta.CurrentCursor
	cursorWasValid := s.meta.CursorValid
	s.meta.CurrentCursor = cursor
	s.meta.CursorValid = true

	out := make(map[string]protocol.SignalValue, len(signalIDs))
	var needBackend []string
	hits := 0
	cursorNs := cursor.Nanos()

	for _, id := range signalIDs {
		if cursorWasValid && !cursorStale(lastCursor, cursor, viewport) {
			if v, ok := s.cursor.Lookup(id); ok {
				out[id] = v
				hits++
				continue
			}
		}
		if v, ok := interpolateFromTransitions(s.rawCache[id], cursor.Nanos()); ok {
			out[id] = v
			hits++
			continue
		}
		if s.requests.recentlyRequested(id, RequestCursor, nil, nil, &cursorNs) {
			out[id] = protocol.Loading()
			hits++
			continue
		}
		out[id] = protocol.Loading()
		needBackend = append(needBackend, id)
	}
	s.mu.Unlock()

	s.recordQuery(len(signalIDs), hits, start)
	if len(needBackend) > 0 {
		s.issueQuery(RequestCursor, needBackend, &cursor, nil)
	}
	return out
}

func (s *Service) issueQuery(kind RequestType, signals []string, cursor *timeline.TimeNs, vp *timeline.Viewport) {
	windows := signalFormatWindows(signals, s.formatOf)
	st := CacheRequestState{
		RequestedSignals: signals,
		CursorTime:       cursor,
		Viewport:         vp,
		TimestampNs:      time.Now().UnixNano(),
		RequestType:      kind,
		Signature:        requestSignature(kind, signals),
	}
	if err := s.requests.open(st, windows); err != nil {
		s.log.WithError(err).Error("cache: failed to record in-flight request")
		return
	}
	s.log.WithFields(logrus.Fields{"signature": st.Signature, "signals": len(signals)}).Debug("cache: issuing backend query")

	reqs := make([]protocol.UnifiedSignalRequest, 0, len(signals))
	for _, id := range signals {
		filePath, scopePath, varName, ok := protocol.SplitSignalID(id)
		if !ok {
			continue
		}
		req := protocol.UnifiedSignalRequest{FilePath: filePath, ScopePath: scopePath, VariableName: varName}
		if vp != nil {
			startSecs, endSecs := vp.Start.Seconds(), vp.End.Seconds()
			req.RangeStartSecs = &startSecs
			req.RangeEndSecs = &endSecs
			max := uint32(maxViewportTransitions)
			req.MaxTransitions = &max
		}
		reqs = append(reqs, req)
	}
	query := protocol.UnifiedSignalQuery{SignalRequests: reqs}
	if cursor != nil {
		secs := cursor.Seconds()
		query.CursorTimeSecs = &secs
	}
	if s.backend != nil {
		s.backend.SendQuery(query)
	}
}

// HandleResponse reconciles a backend UnifiedSignalResponse into cache
// state (the Committed transition), notifying every reactive reader.
func (s *Service) HandleResponse(resp protocol.UnifiedSignalResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests.complete(resp.RequestID)

	for _, sd := range resp.SignalData {
		decimated := decimate(sd.Transitions, maxViewportTransitions)
		data := ViewportSignalData{
			Transitions:            decimated,
			Viewport:               timeline.NewViewport(timeline.FromSeconds(sd.RangeStartSecs), timeline.FromSeconds(sd.RangeEndSecs)),
			LastUpdated:            time.Now(),
			TotalSourceTransitions: sd.TotalSourceCount,
		}
		s.viewportMeta[sd.SignalID] = data.Viewport
		s.viewportCmds <- mapCmd[ViewportSignalData]{kind: cmdSet, key: sd.SignalID, val: data}
		s.rawCache[sd.SignalID] = sd.Transitions
	}
	for id, v := range resp.CursorValues {
		s.cursorCmds <- mapCmd[protocol.SignalValue]{kind: cmdSet, key: id, val: v}
	}
	if resp.Statistics != nil {
		s.meta.Statistics.TotalRequests = resp.Statistics.TotalRequests
		s.meta.Statistics.CacheHits = resp.Statistics.CacheHits
	}
}

// HandleError reconciles a failed backend request by releasing its
// request record. For a cursor request every signal it covered is also
// marked Missing rather than left in Loading; a viewport request's cached
// data is left as it is.
func (s *Service) HandleError(requestID string, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.requests.complete(requestID)
	if !ok {
		return
	}
	s.log.WithFields(logrus.Fields{"requestId": requestID, "reason": reason}).Warn("cache: backend query failed")
	if st.RequestType == RequestCursor {
		for _, id := range st.RequestedSignals {
			s.cursorCmds <- mapCmd[protocol.SignalValue]{kind: cmdSet, key: id, val: protocol.Missing()}
		}
	}
}

// ClearAll drops every cached value and in-flight request (file reload,
// §4.3 invalidation rule "file reload clears everything").
func (s *Service) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewportMeta = make(map[string]timeline.Viewport)
	s.rawCache = make(map[string][]protocol.SignalTransition)
	s.meta = Metadata{}
	_ = s.requests.db.Update(func(tx *buntdb.Tx) error { return tx.DeleteAll() })
	s.viewportCmds <- mapCmd[ViewportSignalData]{kind: cmdClear}
	s.cursorCmds <- mapCmd[protocol.SignalValue]{kind: cmdClear}
}

// CleanupVariables drops cached data and dedup marks only for the given
// signals (selection removal invalidation: "drops only that signal"), so
// a later request for one of them goes to the backend again.
func (s *Service) CleanupVariables(removedIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range removedIDs {
		delete(s.viewportMeta, id)
		delete(s.rawCache, id)
		_ = s.requests.db.Update(func(tx *buntdb.Tx) error {
			_, _ = tx.Delete("sig:" + id)
			return nil
		})
		s.viewportCmds <- mapCmd[ViewportSignalData]{kind: cmdDelete, key: id}
		s.cursorCmds <- mapCmd[protocol.SignalValue]{kind: cmdDelete, key: id}
	}
}

func (s *Service) recordQuery(total, hits int, start time.Time) {
	s.mu.Lock()
	s.meta.Statistics.TotalRequests += uint64(total)
	s.meta.Statistics.CacheHits += uint64(hits)
	elapsed := time.Since(start)
	s.meta.Statistics.LastQueryTimeMs = float64(elapsed.Microseconds()) / 1000.0
	s.mu.Unlock()
	s.metrics.recordRequest(hits > 0)
	s.metrics.recordQueryDuration(elapsed)
}

// decimate keeps a representative sample of at most max transitions,
// always preserving the first and last (§4.3 decimation policy).
func decimate(in []protocol.SignalTransition, max int) []protocol.SignalTransition {
	if len(in) <= max || max < 2 {
		return in
	}
	out := make([]protocol.SignalTransition, 0, max)
	step := float64(len(in)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(float64(i) * step)
		out = append(out, in[idx])
	}
	out[len(out)-1] = in[len(in)-1]
	return out
}
