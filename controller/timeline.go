// Package controller implements the interactive timeline controller
// (spec §4.4): cursor, viewport, zoom and pan, all as pure state+event
// reducers over a single dataflow.ReducerActor, plus the supplemented
// dialog manager.
package controller

import (
	"context"

	"novywave/dataflow"
	"novywave/timeline"
)

const (
	defaultZoomStep = 0.3 // keyboard W/S step, spec.md:224
	shiftZoomStep   = 0.5 // shift+W/shift+S step, spec.md:224
	cursorStepNs    = timeline.DurationNs(1_000) // Q/E cursor step: 1 microsecond, spec.md:223
)

// TimelineState is everything the timeline view needs to render: the
// visible range, the cursor, the current horizontal resolution, the
// point zooming is centred on, and the canvas width the latter two are
// derived against.
type TimelineState struct {
	Cursor        timeline.TimeNs
	Viewport      timeline.Viewport
	NsPerPixel    timeline.NsPerPixel
	ZoomCenter    timeline.TimeNs
	CanvasWidthPx uint32
}

// WaveformTimeline owns TimelineState and exposes every cursor/zoom/pan
// event as a named method, per §4.4.
type WaveformTimeline struct {
	ra *dataflow.ReducerActor[TimelineState]
}

// NewWaveformTimeline starts the controller with an empty [0,0] viewport;
// callers normally follow up with ViewportRestored or FileBoundsKnown
// once the first file loads.
func NewWaveformTimeline(ctx context.Context) *WaveformTimeline {
	initial := TimelineState{
		Viewport:   timeline.NewViewport(timeline.Zero, timeline.Zero),
		NsPerPixel: timeline.MinZoomNsPerPixel,
	}
	return &WaveformTimeline{ra: dataflow.NewReducerActor(ctx, initial, 128)}
}

// Signal exposes the reactive timeline state.
func (w *WaveformTimeline) Signal() *dataflow.Signal[TimelineState] { return w.ra.Signal() }

// Get reads a state snapshot.
func (w *WaveformTimeline) Get() TimelineState { return w.ra.Get() }

// Stop tears down the controller.
func (w *WaveformTimeline) Stop() { w.ra.Stop() }

// CursorClicked moves the cursor to an absolute time, e.g. from a canvas
// click converted via timeline.MouseToTimeNs upstream.
func (w *WaveformTimeline) CursorClicked(at timeline.TimeNs) {
	w.ra.Dispatch(func(s TimelineState) TimelineState { s.Cursor = at; return s })
}

// CursorSteppedToNextTransition moves the cursor to an already-resolved
// transition time (the controller doesn't know about signal data; the
// caller looks up the next/previous transition and passes the result) —
// the shift+Q/shift+E path (spec.md:217,223).
func (w *WaveformTimeline) CursorSteppedToNextTransition(at timeline.TimeNs) { w.CursorClicked(at) }

// CursorSteppedBy moves the cursor by one 1µs step, forward if dir >= 0,
// backward otherwise — the unshifted Q/E path (spec.md:217,223).
func (w *WaveformTimeline) CursorSteppedBy(dir int) {
	w.ra.Dispatch(func(s TimelineState) TimelineState {
		if dir < 0 {
			s.Cursor = s.Cursor.Sub(cursorStepNs)
		} else {
			s.Cursor = s.Cursor.Add(cursorStepNs)
		}
		return s
	})
}

// ViewportChanged replaces the visible range outright (drag-to-pan end,
// or a restored viewport from config).
func (w *WaveformTimeline) ViewportChanged(vp timeline.Viewport) {
	w.ra.Dispatch(func(s TimelineState) TimelineState { s.Viewport = vp; return s })
}

// ViewportRestored is ViewportChanged named for the config-load path.
func (w *WaveformTimeline) ViewportRestored(vp timeline.Viewport, nsPerPixel timeline.NsPerPixel, cursor timeline.TimeNs) {
	w.ra.Dispatch(func(s TimelineState) TimelineState {
		s.Viewport = vp
		s.NsPerPixel = nsPerPixel.Clamp()
		s.Cursor = cursor
		return s
	})
}

// CanvasResized updates the canvas width and recomputes ns_per_pixel from
// the current viewport duration and the new width, so the visible range
// stays the same across a resize (spec.md:226).
func (w *WaveformTimeline) CanvasResized(widthPx uint32) {
	w.ra.Dispatch(func(s TimelineState) TimelineState {
		s.CanvasWidthPx = widthPx
		s.NsPerPixel = timeline.ResetZoom(s.Viewport.Duration(), widthPx)
		return s
	})
}

// ZoomCenterChanged updates the point zoom operations are anchored on
// (typically tracks the mouse while hovering the canvas).
func (w *WaveformTimeline) ZoomCenterChanged(at timeline.TimeNs) {
	w.ra.Dispatch(func(s TimelineState) TimelineState { s.ZoomCenter = at; return s })
}

// ZoomedIn tightens resolution by defaultZoomStep (shiftZoomStep with
// shift held), recentring the viewport so ZoomCenter becomes its
// midpoint (spec.md:218,224).
func (w *WaveformTimeline) ZoomedIn(shift bool) {
	f := zoomStep(shift)
	w.zoom(func(p timeline.NsPerPixel) timeline.NsPerPixel { return p.ZoomInSmooth(f) })
}

// ZoomedOut loosens resolution by defaultZoomStep (shiftZoomStep with
// shift held).
func (w *WaveformTimeline) ZoomedOut(shift bool) {
	f := zoomStep(shift)
	w.zoom(func(p timeline.NsPerPixel) timeline.NsPerPixel { return p.ZoomOutSmooth(f) })
}

func zoomStep(shift bool) float64 {
	if shift {
		return shiftZoomStep
	}
	return defaultZoomStep
}

func (w *WaveformTimeline) zoom(step func(timeline.NsPerPixel) timeline.NsPerPixel) {
	w.ra.Dispatch(func(s TimelineState) TimelineState {
		s.NsPerPixel = step(s.NsPerPixel)
		if s.CanvasWidthPx > 0 {
			half := timeline.DurationNs(uint64(s.NsPerPixel) * uint64(s.CanvasWidthPx) / 2)
			s.Viewport = timeline.NewViewport(s.ZoomCenter.Sub(half), s.ZoomCenter.Add(half))
		}
		return s
	})
}

// FitAllClicked recomputes ns_per_pixel to fit the current viewport's full
// duration into the canvas width (the "fit to window" ns_per_pixel step
// that reset_zoom_pressed also re-emits, spec.md:225).
func (w *WaveformTimeline) FitAllClicked() {
	w.ra.Dispatch(func(s TimelineState) TimelineState {
		s.NsPerPixel = timeline.ResetZoom(s.Viewport.Duration(), s.CanvasWidthPx)
		return s
	})
}

// ResetZoomCenterPressed resets zoom_center back to the timeline origin.
func (w *WaveformTimeline) ResetZoomCenterPressed() {
	w.ra.Dispatch(func(s TimelineState) TimelineState { s.ZoomCenter = timeline.Zero; return s })
}

// ZoomReset is reset_zoom_pressed (spec.md:225): recomputes ns_per_pixel
// as FitAllClicked does, then re-centres the cursor at the viewport's
// midpoint and resets zoom_center to the origin.
func (w *WaveformTimeline) ZoomReset() {
	w.ra.Dispatch(func(s TimelineState) TimelineState {
		s.NsPerPixel = timeline.ResetZoom(s.Viewport.Duration(), s.CanvasWidthPx)
		s.Cursor = s.Viewport.Center()
		s.ZoomCenter = timeline.Zero
		return s
	})
}

// PannedBy shifts the viewport by offsetNs (positive = forward in time),
// e.g. from a click-drag delta converted to nanoseconds.
func (w *WaveformTimeline) PannedBy(offsetNs int64) {
	w.ra.Dispatch(func(s TimelineState) TimelineState { s.Viewport = s.Viewport.Pan(offsetNs); return s })
}

// JumpedToStart moves both cursor and viewport to the timeline origin,
// keeping the current zoom level.
func (w *WaveformTimeline) JumpedToStart() {
	w.ra.Dispatch(func(s TimelineState) TimelineState {
		dur := s.Viewport.Duration()
		s.Cursor = timeline.Zero
		s.Viewport = timeline.NewViewport(timeline.Zero, timeline.Zero.Add(dur))
		return s
	})
}

// JumpedToEnd moves cursor and viewport to end (the waveform's known max
// time, supplied by the caller since the controller has no file state).
func (w *WaveformTimeline) JumpedToEnd(maxTime timeline.TimeNs) {
	w.ra.Dispatch(func(s TimelineState) TimelineState {
		dur := s.Viewport.Duration()
		s.Cursor = maxTime
		s.Viewport = timeline.NewViewport(maxTime.Sub(dur), maxTime)
		return s
	})
}

// FileBoundsKnown initialises the viewport to the full range of a newly
// loaded file and resets zoom/cursor to its start — the first-load path.
func (w *WaveformTimeline) FileBoundsKnown(minTime, maxTime timeline.TimeNs) {
	w.ra.Dispatch(func(s TimelineState) TimelineState {
		s.Viewport = timeline.NewViewport(minTime, maxTime)
		s.Cursor = minTime
		s.NsPerPixel = timeline.ResetZoom(s.Viewport.Duration(), s.CanvasWidthPx)
		return s
	})
}
