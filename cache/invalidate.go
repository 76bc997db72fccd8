package cache

import "novywave/timeline"

// viewportStale applies the §4.3 viewport invalidation rule: a cached
// viewport is stale when the requested viewport's duration differs from
// it by more than 20%, or when the requested viewport's centre falls
// outside the cached range. The caller treats a stale entry as a miss,
// the same as one that doesn't cover; the cached data itself is not
// dropped here.
func viewportStale(cached, requested timeline.Viewport) bool {
	cachedDur := float64(cached.Duration().Nanos())
	reqDur := float64(requested.Duration().Nanos())
	if cachedDur == 0 {
		return true
	}
	ratio := reqDur / cachedDur
	if ratio > 1.2 || ratio < 0.8 {
		return true
	}
	return !cached.Contains(requested.Center())
}

// cursorStale applies the §4.3 cursor invalidation rule: more than 1%
// drift relative to the active viewport's duration, or the new cursor
// leaving the viewport entirely, invalidates a directly cached value.
func cursorStale(lastCursor, newCursor timeline.TimeNs, viewport timeline.Viewport) bool {
	if !viewport.Contains(newCursor) {
		return true
	}
	onePercent := viewport.Duration().MulF64(0.01)
	drift := newCursor.DurationSince(lastCursor)
	if newCursor < lastCursor {
		drift = lastCursor.DurationSince(newCursor)
	}
	return drift > onePercent
}
