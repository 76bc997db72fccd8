package controller

import (
	"context"

	"novywave/dataflow"
)

// DialogKind enumerates the app's modal dialogs (supplemented feature,
// SPEC_FULL §Supplemented Features #1 — ported from the original's
// actors/dialog_manager.rs).
type DialogKind int

const (
	DialogNone DialogKind = iota
	DialogFileRemoveConfirm
	DialogUnsupportedFormat
	DialogAbout
	DialogSettings
)

// Dialog is one entry on the dialog stack: at most the top one is shown,
// matching the original's "dialogs nest, only the newest is visible"
// behaviour (e.g. a settings dialog opened while a confirm dialog is
// already up).
type Dialog struct {
	Kind    DialogKind
	Context string // e.g. a file id for DialogFileRemoveConfirm
}

// DialogManager owns the modal dialog stack.
type DialogManager struct {
	ra *dataflow.ReducerActor[[]Dialog]
}

// NewDialogManager starts the manager with no dialogs open.
func NewDialogManager(ctx context.Context) *DialogManager {
	return &DialogManager{ra: dataflow.NewReducerActor[[]Dialog](ctx, nil, 32)}
}

// Signal exposes the dialog stack.
func (m *DialogManager) Signal() *dataflow.Signal[[]Dialog] { return m.ra.Signal() }

// Active returns the topmost dialog, or false if none is open.
func (m *DialogManager) Active() (Dialog, bool) {
	stack := m.ra.Get()
	if len(stack) == 0 {
		return Dialog{}, false
	}
	return stack[len(stack)-1], true
}

// Opened pushes a new dialog onto the stack, becoming the active one.
func (m *DialogManager) Opened(d Dialog) {
	m.ra.Dispatch(func(stack []Dialog) []Dialog { return append(append([]Dialog{}, stack...), d) })
}

// Closed pops the active dialog, revealing whatever was under it (if
// anything). A no-op if nothing is open.
func (m *DialogManager) Closed() {
	m.ra.Dispatch(func(stack []Dialog) []Dialog {
		if len(stack) == 0 {
			return stack
		}
		return stack[:len(stack)-1]
	})
}

// ClosedAll empties the whole stack, e.g. on Escape with modifiers or a
// full workspace reset.
func (m *DialogManager) ClosedAll() {
	m.ra.Dispatch(func([]Dialog) []Dialog { return nil })
}

// Stop tears down the manager.
func (m *DialogManager) Stop() { m.ra.Stop() }
