package timeline

import "math"

// NsPerPixel is the timeline's horizontal resolution: how many
// nanoseconds one canvas pixel represents. It is always strictly
// positive.
type NsPerPixel uint64

const (
	// MinZoomNsPerPixel is the most zoomed-in resolution allowed: one
	// nanosecond per pixel.
	MinZoomNsPerPixel NsPerPixel = 1
	// MaxZoomNsPerPixel is the most zoomed-out resolution allowed.
	MaxZoomNsPerPixel NsPerPixel = 1_000_000_000_000 // ~1000s per pixel
)

// Clamp constrains p to [MinZoomNsPerPixel, MaxZoomNsPerPixel].
func (p NsPerPixel) Clamp() NsPerPixel {
	if p < MinZoomNsPerPixel {
		return MinZoomNsPerPixel
	}
	if p > MaxZoomNsPerPixel {
		return MaxZoomNsPerPixel
	}
	return p
}

// ZoomInSmooth tightens resolution by factor f (clamped to [0,10]): new = max(1,
// value*(1-f)). The result is never less than 1ns/pixel (invariant 3).
func (p NsPerPixel) ZoomInSmooth(f float64) NsPerPixel {
	f = clampUnit(f)
	scaled := math.Max(1, float64(p)*(1-f))
	return NsPerPixel(scaled).Clamp()
}

// ZoomOutSmooth loosens resolution by factor f (clamped to [0,10]): new =
// value*(1+f).
func (p NsPerPixel) ZoomOutSmooth(f float64) NsPerPixel {
	f = clampUnit(f)
	return NsPerPixel(float64(p) * (1 + f)).Clamp()
}

func clampUnit(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 10 {
		return 10
	}
	return f
}

// ResetZoom computes ns_per_pixel = ceil(duration/width) clamped to the
// allowed range, per §4.2 reset_zoom.
func ResetZoom(viewportDuration DurationNs, canvasWidthPx uint32) NsPerPixel {
	if canvasWidthPx == 0 {
		return MinZoomNsPerPixel
	}
	raw := math.Ceil(float64(viewportDuration.Nanos()) / float64(canvasWidthPx))
	return NsPerPixel(raw).Clamp()
}
