package protocol

// This file defines the wire shapes of §6.1: messages the wails-bound App
// methods accept (upstream, client->core) and the events the core pushes
// back via runtime.EventsEmit (downstream, core->client). Field names use
// the same camelCase the wails JS binding layer expects.

// --- Upstream (client -> core) ---

// LoadWaveformFileRequest begins a parse.
type LoadWaveformFileRequest struct {
	Path string `json:"path"`
}

// GetParsingProgressRequest polls parse progress for a file.
type GetParsingProgressRequest struct {
	FileID string `json:"fileId"`
}

// BrowseDirectoryRequest lists one directory.
type BrowseDirectoryRequest struct {
	Path string `json:"path"`
}

// BrowseDirectoriesRequest lists several directories in one round trip.
type BrowseDirectoriesRequest struct {
	Paths []string `json:"paths"`
}

// UnifiedSignalRequest is one signal's query parameters within a
// UnifiedSignalQuery.
type UnifiedSignalRequest struct {
	FilePath       string     `json:"filePath"`
	ScopePath      string     `json:"scopePath"`
	VariableName   string     `json:"variableName"`
	RangeStartSecs *float64   `json:"rangeStartSecs,omitempty"`
	RangeEndSecs   *float64   `json:"rangeEndSecs,omitempty"`
	MaxTransitions *uint32    `json:"maxTransitions,omitempty"`
	Format         VarFormat  `json:"format"`
}

// UnifiedSignalQuery is the single upstream message that drives both
// viewport and cursor queries (§4.3, §6.1).
type UnifiedSignalQuery struct {
	RequestID      string                 `json:"requestId"`
	SignalRequests []UnifiedSignalRequest `json:"signalRequests"`
	CursorTimeSecs *float64               `json:"cursorTimeSecs,omitempty"`
}

// --- Downstream (core -> client) ---

const (
	EventParsingStarted       = "parsingStarted"
	EventParsingProgress      = "parsingProgress"
	EventParsingError         = "parsingError"
	EventFileLoaded           = "fileLoaded"
	EventConfigLoaded         = "configLoaded"
	EventConfigSaved          = "configSaved"
	EventConfigError          = "configError"
	EventDirectoryContents    = "directoryContents"
	EventDirectoryError       = "directoryError"
	EventBatchDirectoryResult = "batchDirectoryContents"
	EventUnifiedSignalResult  = "unifiedSignalResponse"
	EventUnifiedSignalError   = "unifiedSignalError"
	EventTrackedFilesChanged  = "trackedFilesChanged"
	EventCursorValueChanged   = "cursorValueChanged"
	EventViewportDataChanged  = "viewportDataChanged"

	// Backend-facing events: the core's side of the opaque trace-parsing
	// backend interface (§1 Out of scope). Nothing outside the backend
	// adapter and the external parser process should depend on these.
	EventBackendLoadWaveformFile = "backendLoadWaveformFile"
	EventBackendSignalQuery      = "backendSignalQuery"
)

// TrackedFilesChangedEvent mirrors the full TrackedFiles snapshot; the
// client keeps its file list in sync by replacing wholesale on each one
// of these rather than diffing individual entries.
type TrackedFilesChangedEvent struct {
	Files []TrackedFile `json:"files"`
}

// CursorValueChangedEvent reports one signal's cursor-resolved value.
type CursorValueChangedEvent struct {
	SignalID string      `json:"signalId"`
	Value    SignalValue `json:"value"`
}

// ViewportDataChangedEvent reports one signal's viewport-resolved,
// decimated transition set.
type ViewportDataChangedEvent struct {
	SignalID         string             `json:"signalId"`
	Transitions      []SignalTransition `json:"transitions"`
	TotalSourceCount uint64             `json:"totalSourceCount"`
	RangeStartSecs   float64            `json:"rangeStartSecs"`
	RangeEndSecs     float64            `json:"rangeEndSecs"`
}

// BackendLoadWaveformFileCommand asks the external parser to begin a
// parse; it reports back through ParsingStarted/ParsingProgress/
// FileLoaded/ParsingError, correlated by FileID.
type BackendLoadWaveformFileCommand struct {
	FileID string `json:"fileId"`
	Path   string `json:"path"`
}

// ParsingStartedEvent acks a LoadWaveformFile request.
type ParsingStartedEvent struct {
	FileID   string `json:"fileId"`
	Filename string `json:"filename"`
}

// ParsingProgressEvent reports fractional progress in [0,1].
type ParsingProgressEvent struct {
	FileID   string  `json:"fileId"`
	Progress float64 `json:"progress"`
}

// ParsingErrorEvent reports a parse failure.
type ParsingErrorEvent struct {
	FileID string    `json:"fileId"`
	Error  FileError `json:"error"`
}

// FileHierarchy is the parsed scope/signal tree plus bounds, as handed
// back by FileLoaded.
type FileHierarchy struct {
	Scopes    []ScopeData `json:"scopes"`
	MinTimeNs *uint64     `json:"minTimeNs,omitempty"`
	MaxTimeNs *uint64     `json:"maxTimeNs,omitempty"`
}

// FileLoadedEvent reports a completed parse.
type FileLoadedEvent struct {
	FileID    string        `json:"fileId"`
	Filename  string        `json:"filename"`
	Format    Format        `json:"format"`
	Hierarchy FileHierarchy `json:"hierarchy"`
}

// DirectoryItem is one entry returned by BrowseDirectory.
type DirectoryItem struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"isDir"`
}

// DirectoryContentsEvent answers a BrowseDirectoryRequest.
type DirectoryContentsEvent struct {
	Path  string          `json:"path"`
	Items []DirectoryItem `json:"items"`
}

// DirectoryErrorEvent reports a directory listing failure.
type DirectoryErrorEvent struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// BatchDirectoryContentsEvent answers a BrowseDirectoriesRequest.
type BatchDirectoryContentsEvent struct {
	Results []DirectoryContentsEvent `json:"results"`
}

// SignalStatistics mirrors the cache's running counters (§4.3
// Statistics) as handed back with a response, for UI display.
type SignalStatistics struct {
	TotalRequests  uint64  `json:"totalRequests"`
	CacheHits      uint64  `json:"cacheHits"`
	CacheHitRatio  float64 `json:"cacheHitRatio"`
	LastQueryTimeMs float64 `json:"lastQueryTimeMs"`
}

// UnifiedSignalData is one signal's payload within a response: decimated
// transitions for viewport rendering.
type UnifiedSignalData struct {
	SignalID          string             `json:"signalId"`
	Transitions       []SignalTransition `json:"transitions"`
	TotalSourceCount  uint64             `json:"totalSourceCount"`
	RangeStartSecs    float64            `json:"rangeStartSecs"`
	RangeEndSecs      float64            `json:"rangeEndSecs"`
}

// UnifiedSignalResponse answers a UnifiedSignalQuery.
type UnifiedSignalResponse struct {
	RequestID    string                  `json:"requestId"`
	SignalData   []UnifiedSignalData     `json:"signalData"`
	CursorValues map[string]SignalValue  `json:"cursorValues,omitempty"`
	Statistics   *SignalStatistics       `json:"statistics,omitempty"`
}

// UnifiedSignalErrorEvent reports a failed UnifiedSignalQuery.
type UnifiedSignalErrorEvent struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error"`
}
