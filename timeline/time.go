// Package timeline implements the integer-nanosecond time and coordinate
// model: TimeNs, DurationNs, NsPerPixel, Viewport and the pixel<->time
// mapping functions that drive cursor, viewport, zoom and rendering.
// Every externally produced f64 second value is converted to TimeNs on
// entry; only display formatting emits floating point again.
package timeline

import (
	"fmt"
	"math"
)

// TimeNs is a point in time, in nanoseconds since a waveform file's
// origin. Arithmetic saturates instead of wrapping.
type TimeNs uint64

// Zero is the origin of the timeline.
const Zero TimeNs = 0

// FromSeconds converts an externally produced f64 seconds value into
// TimeNs. This is the only place seconds should enter the core other than
// display formatting's inverse.
func FromSeconds(seconds float64) TimeNs {
	if seconds <= 0 {
		return 0
	}
	return TimeNs(seconds * 1e9)
}

// Seconds converts back to floating point seconds, for display only.
func (t TimeNs) Seconds() float64 { return float64(t) / 1e9 }

// Nanos returns the raw nanosecond count.
func (t TimeNs) Nanos() uint64 { return uint64(t) }

// DurationSince returns max(0, t-earlier), per invariant 1 in spec §8.
func (t TimeNs) DurationSince(earlier TimeNs) DurationNs {
	if t <= earlier {
		return 0
	}
	return DurationNs(t - earlier)
}

// Add returns t+d, saturating at the TimeNs maximum.
func (t TimeNs) Add(d DurationNs) TimeNs {
	sum := uint64(t) + uint64(d)
	if sum < uint64(t) { // overflow
		return TimeNs(math.MaxUint64)
	}
	return TimeNs(sum)
}

// Sub returns t-d, saturating at zero.
func (t TimeNs) Sub(d DurationNs) TimeNs {
	if uint64(d) >= uint64(t) {
		return 0
	}
	return TimeNs(uint64(t) - uint64(d))
}

// Min returns the earlier of t and other.
func (t TimeNs) Min(other TimeNs) TimeNs {
	if t < other {
		return t
	}
	return other
}

// Max returns the later of t and other.
func (t TimeNs) Max(other TimeNs) TimeNs {
	if t > other {
		return t
	}
	return other
}

func (t TimeNs) String() string { return formatNs(uint64(t)) }

// DurationNs is a non-negative elapsed time, in nanoseconds.
type DurationNs uint64

// ZeroDuration is the empty duration.
const ZeroDuration DurationNs = 0

// DurationFromSeconds converts seconds to a DurationNs.
func DurationFromSeconds(seconds float64) DurationNs {
	if seconds <= 0 {
		return 0
	}
	return DurationNs(seconds * 1e9)
}

// Seconds converts back to float seconds, for display only.
func (d DurationNs) Seconds() float64 { return float64(d) / 1e9 }

// Nanos returns the raw nanosecond count.
func (d DurationNs) Nanos() uint64 { return uint64(d) }

// Add returns d+other, saturating.
func (d DurationNs) Add(other DurationNs) DurationNs {
	sum := uint64(d) + uint64(other)
	if sum < uint64(d) {
		return DurationNs(math.MaxUint64)
	}
	return DurationNs(sum)
}

// Sub returns d-other, saturating at zero.
func (d DurationNs) Sub(other DurationNs) DurationNs {
	if uint64(other) >= uint64(d) {
		return 0
	}
	return DurationNs(uint64(d) - uint64(other))
}

// MulF64 scales a duration by a floating point factor, rounding to the
// nearest nanosecond. Used for zoom and buffer calculations.
func (d DurationNs) MulF64(factor float64) DurationNs {
	if factor <= 0 {
		return 0
	}
	return DurationNs(math.Round(float64(d) * factor))
}

// DivF64 divides a duration by a floating point factor, rounding to the
// nearest nanosecond.
func (d DurationNs) DivF64(divisor float64) DurationNs {
	if divisor <= 0 {
		return d
	}
	return DurationNs(math.Round(float64(d) / divisor))
}

func (d DurationNs) String() string { return formatNs(uint64(d)) }

// formatNs implements the shared display-formatting rule (§4.2): pick
// units from magnitude (s / ms / µs / ns), round to 0-3 fractional
// digits, and strip trailing zeros.
func formatNs(ns uint64) string {
	const (
		perUs = 1_000.0
		perMs = 1_000_000.0
		perS  = 1_000_000_000.0
	)
	v := float64(ns)
	var scaled float64
	var unit string
	switch {
	case v >= perS:
		scaled, unit = v/perS, "s"
	case v >= 100_000: // >= 100µs displays as ms per §4.2
		scaled, unit = v/perMs, "ms"
	case v >= perUs:
		scaled, unit = v/perUs, "µs"
	default:
		return fmt.Sprintf("%dns", ns)
	}
	return trimTrailingZeros(scaled) + unit
}

func trimTrailingZeros(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
