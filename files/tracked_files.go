// Package files implements file-lifecycle supervision (spec §3.2):
// tracked files moving through Loading -> Loaded/Failed/Missing/
// Unsupported, a parse watchdog, and smart-label disambiguation.
package files

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"novywave/dataflow"
	"novywave/protocol"
)

const (
	watchdogTimeout       = 60 * time.Second
	watchdogCheckInterval = 10 * time.Second
)

type cmdKind int

const (
	cmdAdd cmdKind = iota
	cmdSetState
	cmdRemove
	cmdClear
	cmdRelabel
)

type vecCmd struct {
	kind   cmdKind
	fileID string
	newID  string // cmdSetState only: if non-empty, also reassigns ID
	file   protocol.TrackedFile
	state  protocol.FileState
	labels map[string]string
}

// TrackedFiles is the ActorVec-backed registry of files the app knows
// about, plus the watchdog that fails parses stuck past watchdogTimeout.
type TrackedFiles struct {
	vec  *dataflow.ActorVec[protocol.TrackedFile]
	cmds chan vecCmd

	watchdogMu    chan struct{}
	watchdogStart map[string]time.Time

	log        *logrus.Entry
	stopWatch  func()
	onWatchdog func(fileID string)
}

// NewTrackedFiles starts the registry and its watchdog loop, both torn
// down when ctx is cancelled. onTimeout, if non-nil, is called (from the
// watchdog goroutine) whenever a parse is force-failed by timeout, so the
// caller can relay a ParsingErrorEvent.
func NewTrackedFiles(ctx context.Context, log *logrus.Entry, onTimeout func(fileID string)) *TrackedFiles {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	cmds := make(chan vecCmd, 64)
	tf := &TrackedFiles{
		cmds:          cmds,
		watchdogMu:    make(chan struct{}, 1),
		watchdogStart: make(map[string]time.Time),
		log:           log,
		onWatchdog:    onTimeout,
	}
	tf.watchdogMu <- struct{}{}

	tf.vec = dataflow.NewActorVec[protocol.TrackedFile](ctx, nil, func(ctx context.Context, h *dataflow.VecHandle[protocol.TrackedFile]) {
		for {
			select {
			case <-ctx.Done():
				return
			case cmd := <-cmds:
				tf.apply(h, cmd)
			}
		}
	})

	ticker := time.NewTicker(watchdogCheckInterval)
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				tf.checkWatchdog()
			case <-stop:
				ticker.Stop()
				return
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
	tf.stopWatch = func() { close(stop) }
	return tf
}

func (tf *TrackedFiles) apply(h *dataflow.VecHandle[protocol.TrackedFile], cmd vecCmd) {
	switch cmd.kind {
	case cmdAdd:
		h.Push(cmd.file)
	case cmdSetState:
		h.UpdateMatching(
			func(f protocol.TrackedFile) bool { return f.ID == cmd.fileID },
			func(f protocol.TrackedFile) protocol.TrackedFile {
				f.State = cmd.state
				if cmd.newID != "" {
					f.ID = cmd.newID
				}
				return f
			},
		)
	case cmdRemove:
		h.RetainFunc(func(f protocol.TrackedFile) bool { return f.ID != cmd.fileID })
	case cmdClear:
		h.Clear()
	case cmdRelabel:
		for id, label := range cmd.labels {
			h.UpdateMatching(
				func(f protocol.TrackedFile) bool { return f.ID == id },
				func(f protocol.TrackedFile) protocol.TrackedFile { f.SmartLabel = label; return f },
			)
		}
	}
}

// Snapshot returns the current tracked file list.
func (tf *TrackedFiles) Snapshot() []protocol.TrackedFile { return tf.vec.Get() }

// Signal exposes the whole-list snapshot stream for UI binding.
func (tf *TrackedFiles) Signal() *dataflow.Signal[[]protocol.TrackedFile] { return tf.vec.Signal() }

// Add registers a new file at path in the Loading state, returning the
// new TrackedFile (with its assigned id). Re-adding an already-tracked path is a caller error to
// filter out upstream (matched by canonical path).
func (tf *TrackedFiles) Add(path string) protocol.TrackedFile {
	id := uuid.NewString()
	file := protocol.TrackedFile{
		ID:            id,
		Path:          path,
		CanonicalPath: filepath.Clean(path),
		Filename:      filepath.Base(path),
		State:         protocol.LoadingState(protocol.LoadingStatus{Kind: protocol.LoadingStarting}),
	}
	paths := append(tf.canonicalPaths(), file.CanonicalPath)
	file.SmartLabel = smartLabel(file.CanonicalPath, paths)

	tf.cmds <- vecCmd{kind: cmdAdd, file: file}
	tf.relabelAllExcept(id)
	tf.armWatchdog(id)
	return file
}

func (tf *TrackedFiles) canonicalPaths() []string {
	return lo.Map(tf.vec.Get(), func(f protocol.TrackedFile, _ int) string { return f.CanonicalPath })
}

// canonicalPathOf looks up fileID's canonical path, which becomes its new
// id once the backend confirms the file (see MarkLoaded/MarkFailed).
func (tf *TrackedFiles) canonicalPathOf(fileID string) string {
	for _, f := range tf.vec.Get() {
		if f.ID == fileID {
			return f.CanonicalPath
		}
	}
	return fileID
}

// SetParsing marks a file as actively parsing (progress updates keep
// resetting the watchdog via Touch).
func (tf *TrackedFiles) SetParsing(fileID string) {
	tf.cmds <- vecCmd{kind: cmdSetState, fileID: fileID, state: protocol.LoadingState(protocol.LoadingStatus{Kind: protocol.LoadingParsing})}
}

// Touch resets the watchdog deadline for fileID, called on every progress
// event so a slow-but-alive parse isn't mistaken for a stuck one.
func (tf *TrackedFiles) Touch(fileID string) {
	<-tf.watchdogMu
	if _, tracked := tf.watchdogStart[fileID]; tracked {
		tf.watchdogStart[fileID] = time.Now()
	}
	tf.watchdogMu <- struct{}{}
}

// MarkLoaded transitions a file to Loaded, appending its time range to
// the smart label, disarms its watchdog, and reassigns ID to
// CanonicalPath — once the backend confirms a file, id and canonical_path
// become the same value (spec §3.2).
func (tf *TrackedFiles) MarkLoaded(fileID string, waveform protocol.WaveformFile, rangeText string) {
	tf.disarmWatchdog(fileID)
	canonical := tf.canonicalPathOf(fileID)
	tf.cmds <- vecCmd{kind: cmdSetState, fileID: fileID, newID: canonical, state: protocol.LoadedState(waveform)}
	tf.cmds <- vecCmd{kind: cmdRelabel, labels: tf.labelWithRange(fileID, canonical, rangeText)}
}

// MarkFailed transitions a file to Failed, disarms its watchdog, and
// reassigns ID to CanonicalPath, matching MarkLoaded (spec §3.2).
func (tf *TrackedFiles) MarkFailed(fileID string, cause protocol.FileError) {
	tf.disarmWatchdog(fileID)
	canonical := tf.canonicalPathOf(fileID)
	tf.cmds <- vecCmd{kind: cmdSetState, fileID: fileID, newID: canonical, state: protocol.FailedState(cause)}
}

// MarkMissing transitions a file to Missing (path no longer resolvable).
func (tf *TrackedFiles) MarkMissing(fileID, path string) {
	tf.disarmWatchdog(fileID)
	tf.cmds <- vecCmd{kind: cmdSetState, fileID: fileID, state: protocol.MissingState(path)}
}

// MarkUnsupported transitions a file to Unsupported.
func (tf *TrackedFiles) MarkUnsupported(fileID, reason string) {
	tf.disarmWatchdog(fileID)
	tf.cmds <- vecCmd{kind: cmdSetState, fileID: fileID, state: protocol.UnsupportedState(reason)}
}

// Remove drops a file entirely (drag-to-remove from the file list).
func (tf *TrackedFiles) Remove(fileID string) {
	tf.disarmWatchdog(fileID)
	tf.cmds <- vecCmd{kind: cmdRemove, fileID: fileID}
	tf.relabelAll()
}

// Reload re-arms the watchdog and resets a file back to Loading, for a
// user-triggered re-parse of an already-tracked file.
func (tf *TrackedFiles) Reload(fileID string) {
	tf.cmds <- vecCmd{kind: cmdSetState, fileID: fileID, state: protocol.LoadingState(protocol.LoadingStatus{Kind: protocol.LoadingStarting})}
	tf.armWatchdog(fileID)
}

// Clear drops every tracked file (used on full-workspace reset).
func (tf *TrackedFiles) Clear() {
	<-tf.watchdogMu
	tf.watchdogStart = make(map[string]time.Time)
	tf.watchdogMu <- struct{}{}
	tf.cmds <- vecCmd{kind: cmdClear}
}

func (tf *TrackedFiles) armWatchdog(fileID string) {
	<-tf.watchdogMu
	tf.watchdogStart[fileID] = time.Now()
	tf.watchdogMu <- struct{}{}
}

func (tf *TrackedFiles) disarmWatchdog(fileID string) {
	<-tf.watchdogMu
	delete(tf.watchdogStart, fileID)
	tf.watchdogMu <- struct{}{}
}

func (tf *TrackedFiles) checkWatchdog() {
	now := time.Now()
	<-tf.watchdogMu
	var stuck []string
	for id, started := range tf.watchdogStart {
		if now.Sub(started) > watchdogTimeout {
			stuck = append(stuck, id)
		}
	}
	for _, id := range stuck {
		delete(tf.watchdogStart, id)
	}
	tf.watchdogMu <- struct{}{}

	for _, id := range stuck {
		tf.log.WithField("fileId", id).Warn("files: parse watchdog timed out")
		var path string
		for _, f := range tf.vec.Get() {
			if f.ID == id {
				path = f.Path
				break
			}
		}
		canonical := tf.canonicalPathOf(id)
		tf.cmds <- vecCmd{kind: cmdSetState, fileID: id, newID: canonical, state: protocol.FailedState(protocol.NewTimeout(path, int(watchdogTimeout.Seconds())))}
		if tf.onWatchdog != nil {
			tf.onWatchdog(canonical)
		}
	}
}

// relabelAll recomputes every tracked file's SmartLabel from the current
// snapshot (used after a removal, which can make a previously-ambiguous
// suffix unique again).
func (tf *TrackedFiles) relabelAll() { tf.relabelAllExcept("") }

// relabelAllExcept recomputes labels for every file except exceptID
// (already labeled inline by the caller), using the full path set so
// collisions against it are still detected.
func (tf *TrackedFiles) relabelAllExcept(exceptID string) {
	snapshot := tf.vec.Get()
	paths := lo.Map(snapshot, func(f protocol.TrackedFile, _ int) string { return f.CanonicalPath })
	labels := make(map[string]string, len(snapshot))
	for _, f := range snapshot {
		if f.ID == exceptID {
			continue
		}
		labels[f.ID] = smartLabel(f.CanonicalPath, paths)
	}
	if len(labels) > 0 {
		tf.cmds <- vecCmd{kind: cmdRelabel, labels: labels}
	}
}

// labelWithRange reads fileID's current smart label (before MarkLoaded's
// cmdSetState has necessarily applied yet) and returns it keyed by newID,
// the id that entry will carry once that command does apply.
func (tf *TrackedFiles) labelWithRange(fileID, newID, rangeText string) map[string]string {
	for _, f := range tf.vec.Get() {
		if f.ID == fileID {
			return map[string]string{newID: withTimeRange(f.SmartLabel, rangeText)}
		}
	}
	return nil
}

// Stop tears down the watchdog loop (the ActorVec itself stops with ctx).
func (tf *TrackedFiles) Stop() { tf.stopWatch() }
