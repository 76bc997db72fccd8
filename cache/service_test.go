package cache_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"novywave/cache"
	"novywave/protocol"
	"novywave/timeline"
)

// fakeBackend records every query it's handed so specs can assert on
// how many backend round trips a sequence of cache calls actually cost.
type fakeBackend struct {
	mu      sync.Mutex
	queries []protocol.UnifiedSignalQuery
}

func (b *fakeBackend) SendQuery(q protocol.UnifiedSignalQuery) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, q)
}

func (b *fakeBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queries)
}

func (b *fakeBackend) last() protocol.UnifiedSignalQuery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries[len(b.queries)-1]
}

func vcdOnly(string) protocol.Format { return protocol.FormatVCD }

var _ = Describe("timeline cache", func() {
	var (
		ctx     context.Context
		cancel  context.CancelFunc
		backend *fakeBackend
		svc     *cache.Service
		vp      timeline.Viewport
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		backend = &fakeBackend{}
		svc = cache.NewService(ctx, backend, vcdOnly, nil)
		vp = timeline.NewViewport(timeline.FromSeconds(0), timeline.FromSeconds(1))
	})

	AfterEach(func() { cancel() })

	It("issues exactly one backend query for a fresh viewport request", func() {
		pending := svc.RequestViewportData([]string{"a.vcd|top|clk"}, vp)
		Expect(pending).To(ConsistOf("a.vcd|top|clk"))
		Expect(backend.count()).To(Equal(1))
	})

	It("dedups an identical in-flight viewport request instead of re-querying", func() {
		svc.RequestViewportData([]string{"a.vcd|top|clk"}, vp)
		Expect(backend.count()).To(Equal(1))

		again := svc.RequestViewportData([]string{"a.vcd|top|clk"}, vp)
		Expect(again).To(BeEmpty())
		Expect(backend.count()).To(Equal(1))
	})

	It("serves a repeat request from cache once the backend has responded", func() {
		svc.RequestViewportData([]string{"a.vcd|top|clk"}, vp)
		reqID := backend.last().RequestID

		svc.HandleResponse(protocol.UnifiedSignalResponse{
			RequestID: reqID,
			SignalData: []protocol.UnifiedSignalData{{
				SignalID:       "a.vcd|top|clk",
				Transitions:    []protocol.SignalTransition{{TimeNs: 0, Value: "0"}, {TimeNs: 500_000_000, Value: "1"}},
				RangeStartSecs: 0,
				RangeEndSecs:   1,
			}},
		})

		pending := svc.RequestViewportData([]string{"a.vcd|top|clk"}, vp)
		Expect(pending).To(BeEmpty())
		Expect(backend.count()).To(Equal(1), "a covered, non-stale viewport should be a pure cache hit")

		stats := svc.Statistics()
		Expect(stats.TotalRequests).To(BeNumerically(">", 0))
		Expect(stats.CacheHits).To(BeNumerically(">", 0))
	})

	It("re-queries when the viewport duration changes by more than 20 percent", func() {
		svc.RequestViewportData([]string{"a.vcd|top|clk"}, vp)
		reqID := backend.last().RequestID
		svc.HandleResponse(protocol.UnifiedSignalResponse{
			RequestID:  reqID,
			SignalData: []protocol.UnifiedSignalData{{SignalID: "a.vcd|top|clk", RangeStartSecs: 0, RangeEndSecs: 1}},
		})

		zoomed := timeline.NewViewport(timeline.FromSeconds(0), timeline.FromSeconds(2))
		pending := svc.RequestViewportData([]string{"a.vcd|top|clk"}, zoomed)
		Expect(pending).To(ConsistOf("a.vcd|top|clk"))
		Expect(backend.count()).To(Equal(2))
	})

	It("resolves cursor values by interpolating from cached raw transitions", func() {
		svc.RequestViewportData([]string{"a.vcd|top|clk"}, vp)
		reqID := backend.last().RequestID
		svc.HandleResponse(protocol.UnifiedSignalResponse{
			RequestID: reqID,
			SignalData: []protocol.UnifiedSignalData{{
				SignalID:       "a.vcd|top|clk",
				Transitions:    []protocol.SignalTransition{{TimeNs: 0, Value: "0"}, {TimeNs: 300_000_000, Value: "1"}},
				RangeStartSecs: 0,
				RangeEndSecs:   1,
			}},
		})

		values := svc.RequestCursorValues([]string{"a.vcd|top|clk"}, timeline.FromSeconds(0.5))
		Expect(values["a.vcd|top|clk"].Kind).To(Equal(protocol.ValuePresent))
		Expect(values["a.vcd|top|clk"].Value).To(Equal("1"))
		Expect(backend.count()).To(Equal(1), "interpolation should avoid a second backend round trip")
	})

	It("marks unresolved cursor values Loading and issues a backend query", func() {
		values := svc.RequestCursorValues([]string{"a.vcd|top|unseen"}, timeline.FromSeconds(0.1))
		Expect(values["a.vcd|top|unseen"].Kind).To(Equal(protocol.ValueLoading))
		Expect(backend.count()).To(Equal(1))
	})

	It("clears everything on ClearAll", func() {
		svc.RequestViewportData([]string{"a.vcd|top|clk"}, vp)
		reqID := backend.last().RequestID
		svc.HandleResponse(protocol.UnifiedSignalResponse{
			RequestID:  reqID,
			SignalData: []protocol.UnifiedSignalData{{SignalID: "a.vcd|top|clk", RangeStartSecs: 0, RangeEndSecs: 1}},
		})

		svc.ClearAll()
		pending := svc.RequestViewportData([]string{"a.vcd|top|clk"}, vp)
		Expect(pending).To(ConsistOf("a.vcd|top|clk"), "a cleared cache should miss again")
	})

	It("drops only the removed signal on CleanupVariables", func() {
		svc.RequestViewportData([]string{"a.vcd|top|clk", "a.vcd|top|rst"}, vp)
		reqID := backend.last().RequestID
		svc.HandleResponse(protocol.UnifiedSignalResponse{
			RequestID: reqID,
			SignalData: []protocol.UnifiedSignalData{
				{SignalID: "a.vcd|top|clk", RangeStartSecs: 0, RangeEndSecs: 1},
				{SignalID: "a.vcd|top|rst", RangeStartSecs: 0, RangeEndSecs: 1},
			},
		})

		svc.CleanupVariables([]string{"a.vcd|top|rst"})
		pending := svc.RequestViewportData([]string{"a.vcd|top|clk", "a.vcd|top|rst"}, vp)
		Expect(pending).To(ConsistOf("a.vcd|top|rst"))
	})
})
