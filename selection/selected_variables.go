package selection

import (
	"context"

	"github.com/samber/lo"

	"novywave/dataflow"
	"novywave/protocol"
)

// SelectedVariables is the ActorVec-backed list of variables the user has
// added to the waveform panel (spec §3.4). Clicking an already-selected
// variable is a no-op: selection never grows duplicate entries for the
// same unique id (the invariant covered by
// dataflow.TestActorVecClickThenClickAgainDoesNotDuplicate at the
// primitive level).
type SelectedVariables struct {
	vec  *dataflow.ActorVec[protocol.SelectedVariable]
	cmds chan func(*dataflow.VecHandle[protocol.SelectedVariable])
}

// NewSelectedVariables starts the actor.
func NewSelectedVariables(ctx context.Context) *SelectedVariables {
	cmds := make(chan func(*dataflow.VecHandle[protocol.SelectedVariable]), 64)
	sv := &SelectedVariables{cmds: cmds}
	sv.vec = dataflow.NewActorVec[protocol.SelectedVariable](ctx, nil, func(ctx context.Context, h *dataflow.VecHandle[protocol.SelectedVariable]) {
		for {
			select {
			case <-ctx.Done():
				return
			case f := <-cmds:
				f(h)
			}
		}
	})
	return sv
}

// Signal exposes the whole-list snapshot stream.
func (sv *SelectedVariables) Signal() *dataflow.Signal[[]protocol.SelectedVariable] { return sv.vec.Signal() }

// SignalVec exposes the incremental diff stream, for UIs that apply
// updates incrementally instead of re-rendering the whole panel.
func (sv *SelectedVariables) SignalVec(ctx context.Context) <-chan dataflow.VecOp[protocol.SelectedVariable] {
	return sv.vec.SignalVec(ctx)
}

// Get returns a snapshot of the current selection.
func (sv *SelectedVariables) Get() []protocol.SelectedVariable { return sv.vec.Get() }

// Contains reports whether uniqueID is already selected.
func (sv *SelectedVariables) Contains(uniqueID string) bool {
	return lo.ContainsBy(sv.vec.Get(), func(v protocol.SelectedVariable) bool { return v.UniqueID == uniqueID })
}

// VariableClicked adds uniqueID with a format default picked from sig if
// not already present; a repeat click on an already-selected row is a
// no-op (removal goes through VariableRemoved instead).
func (sv *SelectedVariables) VariableClicked(uniqueID string, sig protocol.Signal) {
	sv.cmds <- func(h *dataflow.VecHandle[protocol.SelectedVariable]) {
		if lo.ContainsBy(h.Snapshot(), func(v protocol.SelectedVariable) bool { return v.UniqueID == uniqueID }) {
			return
		}
		format := protocol.DefaultFormatFor(sig)
		h.Push(protocol.SelectedVariable{UniqueID: uniqueID, Formatter: &format})
	}
}

// VariableRemoved drops one selected variable by id.
func (sv *SelectedVariables) VariableRemoved(uniqueID string) {
	sv.cmds <- func(h *dataflow.VecHandle[protocol.SelectedVariable]) {
		h.RetainFunc(func(v protocol.SelectedVariable) bool { return v.UniqueID != uniqueID })
	}
}

// SelectionCleared drops every selected variable.
func (sv *SelectedVariables) SelectionCleared() {
	sv.cmds <- func(h *dataflow.VecHandle[protocol.SelectedVariable]) { h.Clear() }
}

// VariablesRestored replaces the whole selection wholesale, for config
// load at startup.
func (sv *SelectedVariables) VariablesRestored(vars []protocol.SelectedVariable) {
	sv.cmds <- func(h *dataflow.VecHandle[protocol.SelectedVariable]) { h.ReplaceAll(vars) }
}

// VariableFormatChanged updates one variable's display format.
func (sv *SelectedVariables) VariableFormatChanged(uniqueID string, format protocol.VarFormat) {
	sv.cmds <- func(h *dataflow.VecHandle[protocol.SelectedVariable]) {
		h.UpdateMatching(
			func(v protocol.SelectedVariable) bool { return v.UniqueID == uniqueID },
			func(v protocol.SelectedVariable) protocol.SelectedVariable { v.Formatter = &format; return v },
		)
	}
}

// Stop tears down the actor.
func (sv *SelectedVariables) Stop() { sv.vec.Stop() }
