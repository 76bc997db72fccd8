package cache

import (
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/buntdb"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// requestSignature hashes a request's sorted signal set so equal-shaped
// requests (same signals, same type) can be recognised at a glance in
// logs and tests without comparing slices.
func requestSignature(requestType RequestType, signals []string) uint64 {
	h := xxhash.New()
	h.Write([]byte{byte(requestType)})
	sorted := append([]string(nil), signals...)
	sort.Strings(sorted)
	for _, s := range sorted {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// requestStore is the per-request state machine from §4.3: Idle (never
// persisted) -> InFlight (a key exists) -> Committed/Released (key gone).
// It is backed by an in-memory buntdb database so TTL expiry and the
// periodic sweep are the database's job, not hand-rolled timers.
type requestStore struct {
	db  *buntdb.DB
	log *logrus.Entry
}

const (
	requestTTL  = 10 * time.Second
	sweepPeriod = 30 * time.Second
)

func newRequestStore(log *logrus.Entry) *requestStore {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		// buntdb's in-memory backend only fails on invalid config; it
		// never touches disk here, so this is unreachable in practice.
		panic(fmt.Sprintf("cache: open in-memory request store: %v", err))
	}
	return &requestStore{db: db, log: log}
}

func (rs *requestStore) close() { rs.db.Close() }

// open transitions Idle -> InFlight: persists the request under a fresh
// uuid key with a requestTTL backstop, and records a dedup timestamp for
// every signal it covers.
func (rs *requestStore) open(st CacheRequestState, windows map[string]time.Duration) error {
	st.RequestID = uuid.NewString()
	payload, err := jsonCodec.Marshal(st)
	if err != nil {
		return errWrap(err, "marshal request state")
	}
	return rs.db.Update(func(tx *buntdb.Tx) error {
		if _, _, err := tx.Set("req:"+st.RequestID, string(payload), &buntdb.SetOptions{Expires: true, TTL: requestTTL}); err != nil {
			return err
		}
		for _, sig := range st.RequestedSignals {
			w := windows[sig]
			if w <= 0 {
				w = 500 * time.Millisecond
			}
			mark := sigMark{
				RequestID:   st.RequestID,
				TimestampNs: st.TimestampNs,
				Kind:        st.RequestType,
			}
			if st.Viewport != nil {
				start, end := uint64(st.Viewport.Start), uint64(st.Viewport.End)
				mark.ViewportStartNs, mark.ViewportEndNs = &start, &end
			}
			if st.CursorTime != nil {
				cursor := uint64(*st.CursorTime)
				mark.CursorNs = &cursor
			}
			raw, _ := jsonCodec.Marshal(mark)
			if _, _, err := tx.Set("sig:"+sig, string(raw), &buntdb.SetOptions{Expires: true, TTL: w}); err != nil {
				return err
			}
		}
		return nil
	})
}

// sigMark is the dedup bookkeeping value stored per in-flight signal: the
// exact query shape that's already outstanding for it, so a later call
// can tell a true duplicate (same viewport/cursor target) from a request
// that merely targets the same signal with fresh parameters.
type sigMark struct {
	RequestID       string
	TimestampNs     int64
	Kind            RequestType
	ViewportStartNs *uint64
	ViewportEndNs   *uint64
	CursorNs        *uint64
}

// isDuplicateOf reports whether this mark represents the same query shape
// a new request for kind/viewport/cursor would make.
func (m sigMark) isDuplicateOf(kind RequestType, viewportStartNs, viewportEndNs, cursorNs *uint64) bool {
	if m.Kind != kind {
		return false
	}
	switch kind {
	case RequestViewport:
		return m.ViewportStartNs != nil && m.ViewportEndNs != nil &&
			viewportStartNs != nil && viewportEndNs != nil &&
			*m.ViewportStartNs == *viewportStartNs && *m.ViewportEndNs == *viewportEndNs
	case RequestCursor:
		return m.CursorNs != nil && cursorNs != nil && *m.CursorNs == *cursorNs
	default:
		return true
	}
}

// recentlyRequested reports whether signalID already has an unexpired
// dedup mark for the exact same query shape — i.e. a request of the same
// type and target, issued within its format-dependent window, that
// hasn't aged out yet. A shape change (different viewport or cursor)
// never dedups: it's new data, not a repeat.
func (rs *requestStore) recentlyRequested(signalID string, kind RequestType, viewportStartNs, viewportEndNs, cursorNs *uint64) bool {
	var found bool
	_ = rs.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get("sig:" + signalID)
		if err != nil {
			return nil
		}
		var mark sigMark
		if jerr := jsonCodec.Unmarshal([]byte(val), &mark); jerr == nil {
			found = mark.isDuplicateOf(kind, viewportStartNs, viewportEndNs, cursorNs)
		}
		return nil
	})
	return found
}

// complete transitions InFlight -> Committed by request id: removes the
// request record (signal marks are left to expire naturally, so a
// response doesn't retroactively shrink the dedup window for a request
// that raced it).
func (rs *requestStore) complete(requestID string) (CacheRequestState, bool) {
	var st CacheRequestState
	var ok bool
	_ = rs.db.Update(func(tx *buntdb.Tx) error {
		val, err := tx.Get("req:" + requestID)
		if err != nil {
			return nil
		}
		if jerr := jsonCodec.Unmarshal([]byte(val), &st); jerr == nil {
			ok = true
		}
		_, err = tx.Delete("req:" + requestID)
		return err
	})
	return st, ok
}

// sweepExpired is the 30s housekeeping pass (§4.3): buntdb already evicts
// expired keys lazily on access, but requests with no further reads would
// otherwise sit until the database happens to be touched. This forces the
// issue and logs what it released, giving the Idle/InFlight/Released
// machine an observable "Released (timeout)" transition.
func (rs *requestStore) sweepExpired() {
	now := time.Now()
	var released []string
	_ = rs.db.Update(func(tx *buntdb.Tx) error {
		var stale []string
		_ = tx.AscendKeys("req:*", func(key, value string) bool {
			var st CacheRequestState
			if err := jsonCodec.Unmarshal([]byte(value), &st); err == nil {
				if now.Sub(time.Unix(0, st.TimestampNs)) > requestTTL {
					stale = append(stale, key)
				}
			}
			return true
		})
		for _, key := range stale {
			if _, err := tx.Delete(key); err == nil {
				released = append(released, key)
			}
		}
		return nil
	})
	if len(released) > 0 && rs.log != nil {
		rs.log.WithField("count", len(released)).Debug("cache: swept stale in-flight requests")
	}
}

// runSweeper starts the 30s background sweep; call the returned function
// to stop it.
func (rs *requestStore) runSweeper() func() {
	ticker := time.NewTicker(sweepPeriod)
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				rs.sweepExpired()
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(stop) }
}

func signalFormatWindows(signals []string, lookup FormatLookup) map[string]time.Duration {
	out := make(map[string]time.Duration, len(signals))
	for _, s := range signals {
		out[s] = dedupWindow(s, lookup)
	}
	return out
}
