package protocol

import "strings"

// SignalID builds the canonical "file|scope|var" unique id (§6.1).
func SignalID(filePath, scopePath, variableName string) string {
	return filePath + "|" + scopePath + "|" + variableName
}

// SplitSignalID reverses SignalID. ok is false if id has fewer than two
// separators; any separators after the second stay in variableName.
func SplitSignalID(id string) (filePath, scopePath, variableName string, ok bool) {
	parts := strings.SplitN(id, "|", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
