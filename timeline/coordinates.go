package timeline

// Coordinates bundles everything needed to map time to pixels (and back)
// without floating point drift: the current cursor, the visible
// viewport's start, the horizontal resolution, and the canvas width.
type Coordinates struct {
	Cursor        TimeNs
	ViewportStart TimeNs
	NsPerPixel    NsPerPixel
	CanvasWidthPx uint32
}

// MouseToTimeNs converts a pixel X coordinate into an absolute time:
// viewport_start + pixel_x * ns_per_pixel.
func MouseToTimeNs(pixelX int64, nsPerPixel NsPerPixel, viewportStart TimeNs) TimeNs {
	if pixelX <= 0 {
		return viewportStart
	}
	return viewportStart.Add(DurationNs(uint64(pixelX) * uint64(nsPerPixel)))
}

// TimeToPixel converts an absolute time into a pixel X coordinate. The
// second return value is false when t is before the viewport start or the
// resulting pixel falls outside [0, canvasWidthPx) — i.e. the time is not
// presently visible. A canvasWidthPx of 0 disables the right-edge check.
func TimeToPixel(t TimeNs, nsPerPixel NsPerPixel, viewportStart TimeNs, canvasWidthPx uint32) (int64, bool) {
	if t < viewportStart || nsPerPixel == 0 {
		return 0, false
	}
	offset := t.DurationSince(viewportStart)
	px := int64(offset.Nanos() / uint64(nsPerPixel))
	if canvasWidthPx > 0 && px >= int64(canvasWidthPx) {
		return px, false
	}
	return px, true
}
