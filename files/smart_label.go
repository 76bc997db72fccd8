package files

import "strings"

// smartLabel picks the shortest path suffix (split on '/') that no other
// tracked path shares, so files with colliding basenames still read
// unambiguously in the file list (§3.2 supplemented feature). A file with
// no collisions gets just its basename.
func smartLabel(path string, others []string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	otherSegments := make([][]string, 0, len(others))
	for _, other := range others {
		if other == path {
			continue
		}
		otherSegments = append(otherSegments, strings.Split(strings.Trim(other, "/"), "/"))
	}

	for n := 1; n <= len(segments); n++ {
		candidate := suffixOf(segments, n)
		collides := false
		for _, os := range otherSegments {
			if suffixOf(os, n) == candidate {
				collides = true
				break
			}
		}
		if !collides {
			return candidate
		}
	}
	return path
}

func suffixOf(segments []string, n int) string {
	if n > len(segments) {
		n = len(segments)
	}
	return strings.Join(segments[len(segments)-n:], "/")
}

// withTimeRange appends the waveform's time bounds to a label once a file
// has finished loading, e.g. "top.vcd (0s - 1.2ms)".
func withTimeRange(label string, rangeText string) string {
	if rangeText == "" {
		return label
	}
	return label + " (" + rangeText + ")"
}
