package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"novywave/browse"
	"novywave/cache"
	"novywave/config"
	"novywave/controller"
	"novywave/files"
	"novywave/protocol"
	"novywave/selection"
	"novywave/timeline"
)

// App is the wails-bound core: every method the JS frontend can call
// (§6.1 upstream messages plus the locally-reactive selection/timeline/
// dialog commands) and every goroutine that turns a domain Signal into a
// runtime.EventsEmit push (§6.1 downstream messages). The frontend is an
// external collaborator reached only through this struct's bound methods
// and the wails event bus, the same separation the teacher's websocket
// Hub drew between hardware state and browser clients.
type App struct {
	ctx context.Context
	log *logrus.Entry

	files        *files.TrackedFiles
	cache        *cache.Service
	selectedVars *selection.SelectedVariables
	scopeTree    *selection.ScopeTree
	timelineCtl  *controller.WaveformTimeline
	dialogs      *controller.DialogManager
	browseSvc    browse.Service
	cfg          *config.Store

	subsMu sync.Mutex
	subs   map[string]func() // "viewport:"+id / "cursor:"+id -> unsubscribe
}

// NewApp creates the (not yet wired) App struct; domains are built in
// startup once the wails runtime context exists.
func NewApp() *App {
	return &App{subs: make(map[string]func())}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.log = logrus.NewEntry(logrus.StandardLogger())
	a.log.Info("startup")

	a.files = files.NewTrackedFiles(ctx, a.log.WithField("component", "files"), a.onFileWatchdogTimeout)
	a.selectedVars = selection.NewSelectedVariables(ctx)
	a.scopeTree = selection.NewScopeTree(ctx)
	a.timelineCtl = controller.NewWaveformTimeline(ctx)
	a.dialogs = controller.NewDialogManager(ctx)
	a.browseSvc = browse.NewService("vcd", "fst")
	a.cache = cache.NewService(ctx, a, a.formatOf, a.log.WithField("component", "cache"))

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	a.cfg = config.NewStore(ctx, filepath.Join(configDir, "novywave"), a.log.WithField("component", "config"))

	go a.forwardTrackedFiles(ctx)
	go a.forwardConfig(ctx)
	go a.syncConfigFromDomains(ctx)
	go a.restoreWorkspace(a.cfg.Get())
}

func (a *App) shutdown(ctx context.Context) {
	a.log.Info("shutdown")
	a.cfg.Stop()
	a.files.Stop()
	a.selectedVars.Stop()
	a.scopeTree.Stop()
	a.timelineCtl.Stop()
	a.dialogs.Stop()
}

// --- cache.BackendSink: forwards queries the core cannot itself answer
// to the opaque trace-parsing backend. ---

func (a *App) SendQuery(q protocol.UnifiedSignalQuery) {
	runtime.EventsEmit(a.ctx, protocol.EventBackendSignalQuery, q)
}

func (a *App) formatOf(signalID string) protocol.Format {
	filePath, _, _, ok := protocol.SplitSignalID(signalID)
	if !ok {
		return protocol.FormatVCD
	}
	for _, f := range a.files.Snapshot() {
		if f.Path == filePath || f.CanonicalPath == filePath {
			if f.State.Kind == protocol.StateLoaded && f.State.Waveform != nil {
				return f.State.Waveform.Format
			}
		}
	}
	return protocol.FormatVCD
}

// --- Forwarding goroutines: domain Signal -> runtime.EventsEmit. ---

func (a *App) forwardTrackedFiles(ctx context.Context) {
	ch, cancel := a.files.Signal().Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case list, ok := <-ch:
			if !ok {
				return
			}
			runtime.EventsEmit(a.ctx, protocol.EventTrackedFilesChanged, protocol.TrackedFilesChangedEvent{Files: list})
		}
	}
}

func (a *App) forwardConfig(ctx context.Context) {
	ch, cancel := a.cfg.Signal().Subscribe()
	defer cancel()
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-ch:
			if !ok {
				return
			}
			// The very first value is the just-loaded config; subsequent
			// ones follow each in-memory change as it happens (only the
			// disk write behind them is debounced), reported the same way
			// the frontend would react to either.
			_ = first
			first = false
			runtime.EventsEmit(a.ctx, protocol.EventConfigLoaded, cfg)
		}
	}
}

// syncConfigFromDomains feeds TrackedFiles/SelectedVariables/
// WaveformTimeline state into the config actor, debounced, per
// SPEC_FULL's user-configuration-actor supplement.
func (a *App) syncConfigFromDomains(ctx context.Context) {
	filesCh, cancelFiles := a.files.Signal().Subscribe()
	varsCh, cancelVars := a.selectedVars.Signal().Subscribe()
	scopeCh, cancelScope := a.scopeTree.Signal().Subscribe()
	timeCh, cancelTime := a.timelineCtl.Signal().Subscribe()
	defer cancelFiles()
	defer cancelVars()
	defer cancelScope()
	defer cancelTime()

	for {
		select {
		case <-ctx.Done():
			return
		case list, ok := <-filesCh:
			if !ok {
				return
			}
			paths := make([]string, 0, len(list))
			for _, f := range list {
				paths = append(paths, f.CanonicalPath)
			}
			a.cfg.Mutate(func(c protocol.AppConfig) protocol.AppConfig {
				c.Workspace.OpenedFiles = paths
				return c
			})
		case vars, ok := <-varsCh:
			if !ok {
				return
			}
			a.cfg.Mutate(func(c protocol.AppConfig) protocol.AppConfig {
				c.Workspace.SelectedVariables = vars
				return c
			})
		case scope, ok := <-scopeCh:
			if !ok {
				return
			}
			a.cfg.Mutate(func(c protocol.AppConfig) protocol.AppConfig {
				c.Workspace.ExpandedScopes = scope.ExpandedScopes.Items()
				c.Workspace.SelectedScopeID = scope.SelectedScopeID
				c.Workspace.VariablesSearchFilter = scope.SearchFilter
				return c
			})
		case t, ok := <-timeCh:
			if !ok {
				return
			}
			a.cfg.Mutate(func(c protocol.AppConfig) protocol.AppConfig {
				c.Workspace.TimelineCursorPositionNs = t.Cursor.Nanos()
				c.Workspace.TimelineZoomLevel = uint64(t.NsPerPixel)
				start, end := t.Viewport.Start.Nanos(), t.Viewport.End.Nanos()
				c.Workspace.TimelineVisibleRangeStart = &start
				c.Workspace.TimelineVisibleRangeEnd = &end
				return c
			})
		}
	}
}

// restoreWorkspace replays a loaded config's workspace back into the
// domains on startup: reopen tracked files and restore selection/
// timeline state.
func (a *App) restoreWorkspace(cfg protocol.AppConfig) {
	for _, path := range cfg.Workspace.OpenedFiles {
		a.LoadWaveformFile(protocol.LoadWaveformFileRequest{Path: path})
	}
	if len(cfg.Workspace.SelectedVariables) > 0 {
		a.selectedVars.VariablesRestored(cfg.Workspace.SelectedVariables)
	}
	if len(cfg.Workspace.ExpandedScopes) > 0 {
		a.scopeTree.ExpandedScopesRestored(cfg.Workspace.ExpandedScopes)
	}
	if cfg.Workspace.TimelineVisibleRangeStart != nil && cfg.Workspace.TimelineVisibleRangeEnd != nil {
		vp := timeline.NewViewport(
			timeline.TimeNs(*cfg.Workspace.TimelineVisibleRangeStart),
			timeline.TimeNs(*cfg.Workspace.TimelineVisibleRangeEnd),
		)
		a.timelineCtl.ViewportRestored(vp, timeline.NsPerPixel(cfg.Workspace.TimelineZoomLevel), timeline.TimeNs(cfg.Workspace.TimelineCursorPositionNs))
	}
}

// --- Upstream bound methods (§6.1), file lifecycle. ---

func (a *App) LoadWaveformFile(req protocol.LoadWaveformFileRequest) {
	canonical := filepath.Clean(req.Path)
	for _, f := range a.files.Snapshot() {
		if f.CanonicalPath == canonical {
			return // already tracked; dedup by canonical path per §3.2
		}
	}

	if _, ok := protocol.DetectFormat(filepath.Ext(req.Path)); !ok {
		file := a.files.Add(req.Path)
		a.files.MarkUnsupported(file.ID, "unrecognised extension")
		runtime.EventsEmit(a.ctx, protocol.EventParsingError, protocol.ParsingErrorEvent{
			FileID: file.ID,
			Error:  protocol.NewUnsupportedFormat(filepath.Ext(req.Path)),
		})
		return
	}

	file := a.files.Add(req.Path)
	runtime.EventsEmit(a.ctx, protocol.EventParsingStarted, protocol.ParsingStartedEvent{FileID: file.ID, Filename: file.Filename})
	runtime.EventsEmit(a.ctx, protocol.EventBackendLoadWaveformFile, protocol.BackendLoadWaveformFileCommand{FileID: file.ID, Path: req.Path})
}

func (a *App) GetParsingProgress(req protocol.GetParsingProgressRequest) {
	for _, f := range a.files.Snapshot() {
		if f.ID == req.FileID && f.State.IsLoading() {
			runtime.EventsEmit(a.ctx, protocol.EventParsingProgress, protocol.ParsingProgressEvent{FileID: f.ID})
			return
		}
	}
}

func (a *App) RemoveFile(fileID string) {
	var removedPath string
	for _, f := range a.files.Snapshot() {
		if f.ID == fileID {
			removedPath = f.CanonicalPath
		}
	}
	a.files.Remove(fileID)

	var removedSignalIDs []string
	for _, v := range a.selectedVars.Get() {
		if filePath, _, _, ok := protocol.SplitSignalID(v.UniqueID); ok && filePath == removedPath {
			removedSignalIDs = append(removedSignalIDs, v.UniqueID)
			a.selectedVars.VariableRemoved(v.UniqueID)
		}
	}
	a.cache.CleanupVariables(removedSignalIDs)
}

func (a *App) ReloadFile(fileID string) {
	a.files.Reload(fileID)
	for _, f := range a.files.Snapshot() {
		if f.ID == fileID {
			runtime.EventsEmit(a.ctx, protocol.EventBackendLoadWaveformFile, protocol.BackendLoadWaveformFileCommand{FileID: f.ID, Path: f.Path})
			return
		}
	}
}

func (a *App) TrackedFilesSnapshot() []protocol.TrackedFile { return a.files.Snapshot() }

// --- Backend callbacks: the opaque parser reports back through these. ---

func (a *App) ReportParsingProgress(fileID string, progress float64) {
	a.files.SetParsing(fileID)
	a.files.Touch(fileID)
	runtime.EventsEmit(a.ctx, protocol.EventParsingProgress, protocol.ParsingProgressEvent{FileID: fileID, Progress: progress})
}

func (a *App) ReportFileLoaded(fileID string, waveform protocol.WaveformFile, rangeText string) {
	a.files.MarkLoaded(fileID, waveform, rangeText)
	runtime.EventsEmit(a.ctx, protocol.EventFileLoaded, protocol.FileLoadedEvent{
		FileID:   fileID,
		Filename: waveform.Filename,
		Format:   waveform.Format,
		Hierarchy: protocol.FileHierarchy{
			Scopes:    waveform.Scopes,
			MinTimeNs: waveform.MinTimeNs,
			MaxTimeNs: waveform.MaxTimeNs,
		},
	})
	if waveform.MinTimeNs != nil && waveform.MaxTimeNs != nil {
		a.timelineCtl.FileBoundsKnown(timeline.TimeNs(*waveform.MinTimeNs), timeline.TimeNs(*waveform.MaxTimeNs))
	}
}

func (a *App) ReportParsingError(fileID string, cause protocol.FileError) {
	a.files.MarkFailed(fileID, cause)
	runtime.EventsEmit(a.ctx, protocol.EventParsingError, protocol.ParsingErrorEvent{FileID: fileID, Error: cause})
}

func (a *App) ReportFileMissing(fileID, path string) {
	a.files.MarkMissing(fileID, path)
	runtime.EventsEmit(a.ctx, protocol.EventParsingError, protocol.ParsingErrorEvent{FileID: fileID, Error: protocol.NewFileNotFound()})
}

// --- Upstream bound methods, config. ---

func (a *App) LoadConfig() {
	runtime.EventsEmit(a.ctx, protocol.EventConfigLoaded, a.cfg.Get())
}

func (a *App) SaveConfig(cfg protocol.AppConfig) {
	if err := a.cfg.Replace(cfg); err != nil {
		runtime.EventsEmit(a.ctx, protocol.EventConfigError, err.Error())
		return
	}
	runtime.EventsEmit(a.ctx, protocol.EventConfigSaved, nil)
}

// --- Upstream bound methods, directory browsing. ---

func (a *App) BrowseDirectory(req protocol.BrowseDirectoryRequest) {
	contents, err := a.browseSvc.Directory(req.Path)
	if err != nil {
		runtime.EventsEmit(a.ctx, protocol.EventDirectoryError, protocol.DirectoryErrorEvent{Path: req.Path, Error: err.Error()})
		return
	}
	runtime.EventsEmit(a.ctx, protocol.EventDirectoryContents, contents)
}

func (a *App) BrowseDirectories(req protocol.BrowseDirectoriesRequest) {
	runtime.EventsEmit(a.ctx, protocol.EventBatchDirectoryResult, a.browseSvc.Directories(req.Paths))
}

// --- Upstream bound methods, unified signal query (§4.3, §6.1). ---

// RequestSignalData is the UI's entry point into the timeline cache: it
// issues viewport and/or cursor reads, returning cache hits synchronously
// as events and leaving misses to resolve later through SubmitSignalResponse.
func (a *App) RequestSignalData(signalRequests []protocol.UnifiedSignalRequest, cursorTimeSecs *float64) {
	byRange := make(map[[2]uint64][]string)
	allIDs := make([]string, 0, len(signalRequests))
	for _, r := range signalRequests {
		id := protocol.SignalID(r.FilePath, r.ScopePath, r.VariableName)
		allIDs = append(allIDs, id)
		a.ensureSubscribed(id)
		if r.RangeStartSecs != nil && r.RangeEndSecs != nil {
			key := [2]uint64{timeline.FromSeconds(*r.RangeStartSecs).Nanos(), timeline.FromSeconds(*r.RangeEndSecs).Nanos()}
			byRange[key] = append(byRange[key], id)
		}
	}

	for key, ids := range byRange {
		vp := timeline.NewViewport(timeline.TimeNs(key[0]), timeline.TimeNs(key[1]))
		a.cache.RequestViewportData(ids, vp)
	}

	if cursorTimeSecs != nil && len(allIDs) > 0 {
		values := a.cache.RequestCursorValues(allIDs, timeline.FromSeconds(*cursorTimeSecs))
		for id, v := range values {
			runtime.EventsEmit(a.ctx, protocol.EventCursorValueChanged, protocol.CursorValueChangedEvent{SignalID: id, Value: v})
		}
	}
}

func (a *App) SubmitSignalResponse(resp protocol.UnifiedSignalResponse) {
	a.cache.HandleResponse(resp)
}

func (a *App) SubmitSignalError(requestID, reason string) {
	a.cache.HandleError(requestID, reason)
	runtime.EventsEmit(a.ctx, protocol.EventUnifiedSignalError, protocol.UnifiedSignalErrorEvent{RequestID: requestID, Error: reason})
}

// ensureSubscribed starts forwarding goroutines for signalID's viewport
// and cursor signals the first time it's queried, torn down again in
// unsubscribe.
func (a *App) ensureSubscribed(signalID string) {
	a.subsMu.Lock()
	defer a.subsMu.Unlock()

	if _, ok := a.subs["viewport:"+signalID]; !ok {
		ch, cancel := a.cache.ViewportSignal(signalID).Subscribe()
		a.subs["viewport:"+signalID] = cancel
		go func() {
			for v := range ch {
				if v == nil {
					continue
				}
				runtime.EventsEmit(a.ctx, protocol.EventViewportDataChanged, protocol.ViewportDataChangedEvent{
					SignalID:         signalID,
					Transitions:      v.Transitions,
					TotalSourceCount: v.TotalSourceTransitions,
					RangeStartSecs:   v.Viewport.Start.Seconds(),
					RangeEndSecs:     v.Viewport.End.Seconds(),
				})
			}
		}()
	}

	if _, ok := a.subs["cursor:"+signalID]; !ok {
		ch, cancel := a.cache.CursorValueSignal(signalID).Subscribe()
		a.subs["cursor:"+signalID] = cancel
		go func() {
			for v := range ch {
				if v == nil {
					continue
				}
				runtime.EventsEmit(a.ctx, protocol.EventCursorValueChanged, protocol.CursorValueChangedEvent{SignalID: signalID, Value: *v})
			}
		}()
	}
}

func (a *App) unsubscribe(signalID string) {
	a.subsMu.Lock()
	defer a.subsMu.Unlock()
	for _, key := range []string{"viewport:" + signalID, "cursor:" + signalID} {
		if cancel, ok := a.subs[key]; ok {
			cancel()
			delete(a.subs, key)
		}
	}
}

// --- Upstream bound methods, selection. ---

func (a *App) VariableClicked(uniqueID string, sig protocol.Signal) { a.selectedVars.VariableClicked(uniqueID, sig) }
func (a *App) VariableRemoved(uniqueID string) {
	a.selectedVars.VariableRemoved(uniqueID)
	a.cache.CleanupVariables([]string{uniqueID})
	a.unsubscribe(uniqueID)
}
func (a *App) SelectionCleared() {
	ids := make([]string, 0, len(a.selectedVars.Get()))
	for _, v := range a.selectedVars.Get() {
		ids = append(ids, v.UniqueID)
	}
	a.selectedVars.SelectionCleared()
	a.cache.CleanupVariables(ids)
	for _, id := range ids {
		a.unsubscribe(id)
	}
}
func (a *App) VariableFormatChanged(uniqueID string, format protocol.VarFormat) {
	a.selectedVars.VariableFormatChanged(uniqueID, format)
}
func (a *App) SelectedVariablesSnapshot() []protocol.SelectedVariable { return a.selectedVars.Get() }

// --- Upstream bound methods, scope tree. ---

func (a *App) ScopeExpanded(scopeID string)         { a.scopeTree.ScopeExpanded(scopeID) }
func (a *App) ScopeCollapsed(scopeID string)        { a.scopeTree.ScopeCollapsed(scopeID) }
func (a *App) TreeSelectionChanged(nodeIDs []string) { a.scopeTree.TreeSelectionChanged(nodeIDs) }
func (a *App) SearchFilterChanged(text string)      { a.scopeTree.SearchFilterChanged(text) }
func (a *App) SearchFocusChanged(focused bool)      { a.scopeTree.SearchFocusChanged(focused) }
func (a *App) ScopeTreeSnapshot() selection.ScopeTreeState { return a.scopeTree.Get() }

// --- Upstream bound methods, timeline. ---

func (a *App) CursorClicked(atNs uint64)   { a.timelineCtl.CursorClicked(timeline.TimeNs(atNs)) }
func (a *App) CursorSteppedToNextTransition(atNs uint64) {
	a.timelineCtl.CursorSteppedToNextTransition(timeline.TimeNs(atNs))
}
func (a *App) CursorSteppedBy(dir int) { a.timelineCtl.CursorSteppedBy(dir) }
func (a *App) ViewportChanged(startNs, endNs uint64) {
	a.timelineCtl.ViewportChanged(timeline.NewViewport(timeline.TimeNs(startNs), timeline.TimeNs(endNs)))
}
func (a *App) CanvasResized(widthPx uint32)      { a.timelineCtl.CanvasResized(widthPx) }
func (a *App) ZoomCenterChanged(atNs uint64)     { a.timelineCtl.ZoomCenterChanged(timeline.TimeNs(atNs)) }
func (a *App) ZoomedIn(shift bool)               { a.timelineCtl.ZoomedIn(shift) }
func (a *App) ZoomedOut(shift bool)              { a.timelineCtl.ZoomedOut(shift) }
func (a *App) ZoomReset()                        { a.timelineCtl.ZoomReset() }
func (a *App) FitAllClicked()                    { a.timelineCtl.FitAllClicked() }
func (a *App) ResetZoomCenterPressed()           { a.timelineCtl.ResetZoomCenterPressed() }
func (a *App) PannedBy(offsetNs int64)           { a.timelineCtl.PannedBy(offsetNs) }
func (a *App) JumpedToStart()                    { a.timelineCtl.JumpedToStart() }
func (a *App) JumpedToEnd(maxTimeNs uint64)      { a.timelineCtl.JumpedToEnd(timeline.TimeNs(maxTimeNs)) }
func (a *App) TimelineSnapshot() controller.TimelineState { return a.timelineCtl.Get() }

// --- Upstream bound methods, dialogs. ---

func (a *App) DialogOpened(kind controller.DialogKind, context string) {
	a.dialogs.Opened(controller.Dialog{Kind: kind, Context: context})
}
func (a *App) DialogClosed()    { a.dialogs.Closed() }
func (a *App) DialogClosedAll() { a.dialogs.ClosedAll() }

// --- internal wiring ---

func (a *App) onFileWatchdogTimeout(fileID string) {
	for _, f := range a.files.Snapshot() {
		if f.ID == fileID && f.State.Kind == protocol.StateFailed && f.State.Failed != nil {
			runtime.EventsEmit(a.ctx, protocol.EventParsingError, protocol.ParsingErrorEvent{FileID: fileID, Error: *f.State.Failed})
			return
		}
	}
}
