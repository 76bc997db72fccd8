// Package selection implements the variable-selection and scope-tree
// state (spec §3.4/§4.?): SelectedVariables, a dataflow.ActorVec fed by
// its own command channel, plus the scope tree's selected/expanded/search
// state, driven by pure state+event reducers dispatched onto
// dataflow.ReducerActor.
package selection

import (
	"context"
	"strings"

	"novywave/dataflow"
)

// scopeIDPrefix is the node-id prefix that marks a tree_selection entry as
// a scope (as opposed to a variable row); selected_scope derives from the
// first tree_selection entry carrying it.
const scopeIDPrefix = "scope_"

// ScopeTreeState is the scope/variable tree's UI state: which scope is
// selected (derived from TreeSelection), which scopes are expanded, the
// current tree-widget selection, and the variable search box.
type ScopeTreeState struct {
	SelectedScopeID *string
	ExpandedScopes  dataflow.OrderedSet[string]
	TreeSelection   dataflow.OrderedSet[string]
	SearchFilter    string
	SearchFocused   bool
}

func newScopeTreeState() ScopeTreeState {
	return ScopeTreeState{
		ExpandedScopes: dataflow.NewOrderedSet[string](),
		TreeSelection:  dataflow.NewOrderedSet[string](),
	}
}

func (s ScopeTreeState) clone() ScopeTreeState {
	s.ExpandedScopes = s.ExpandedScopes.Clone()
	s.TreeSelection = s.TreeSelection.Clone()
	return s
}

// selectedScopeFrom returns the first tree_selection entry with prefix
// "scope_", or nil if none — the derivation rule tree_selection_changed
// applies to selected_scope.
func selectedScopeFrom(sel dataflow.OrderedSet[string]) *string {
	for _, id := range sel.Items() {
		if strings.HasPrefix(id, scopeIDPrefix) {
			id := id
			return &id
		}
	}
	return nil
}

// ScopeTree wraps a ReducerActor of ScopeTreeState with named event
// methods, so callers never construct raw update funcs.
type ScopeTree struct {
	ra *dataflow.ReducerActor[ScopeTreeState]
}

// NewScopeTree starts the scope-tree actor.
func NewScopeTree(ctx context.Context) *ScopeTree {
	return &ScopeTree{ra: dataflow.NewReducerActor(ctx, newScopeTreeState(), 64)}
}

// Signal exposes the reactive scope-tree state.
func (t *ScopeTree) Signal() *dataflow.Signal[ScopeTreeState] { return t.ra.Signal() }

// Get reads a state snapshot.
func (t *ScopeTree) Get() ScopeTreeState { return t.ra.Get() }

// Stop tears down the actor.
func (t *ScopeTree) Stop() { t.ra.Stop() }

// ScopeExpanded adds scopeID to the expanded set.
func (t *ScopeTree) ScopeExpanded(scopeID string) {
	t.ra.Dispatch(func(s ScopeTreeState) ScopeTreeState {
		s = s.clone()
		s.ExpandedScopes.Insert(scopeID)
		return s
	})
}

// ScopeCollapsed removes scopeID from the expanded set.
func (t *ScopeTree) ScopeCollapsed(scopeID string) {
	t.ra.Dispatch(func(s ScopeTreeState) ScopeTreeState {
		s = s.clone()
		s.ExpandedScopes.Remove(scopeID)
		return s
	})
}

// ExpandedScopesRestored replaces the whole expanded set wholesale, used
// when a persisted config is loaded on startup.
func (t *ScopeTree) ExpandedScopesRestored(ids []string) {
	t.ra.Dispatch(func(s ScopeTreeState) ScopeTreeState {
		s = s.clone()
		s.ExpandedScopes = dataflow.NewOrderedSet[string]()
		for _, id := range ids {
			s.ExpandedScopes.Insert(id)
		}
		return s
	})
}

// TreeSelectionChanged replaces the whole tree-widget selection; it also
// derives SelectedScopeID from the new set by taking its first entry with
// prefix "scope_" (nil if none qualifies).
func (t *ScopeTree) TreeSelectionChanged(nodeIDs []string) {
	t.ra.Dispatch(func(s ScopeTreeState) ScopeTreeState {
		s = s.clone()
		s.TreeSelection = dataflow.NewOrderedSet(nodeIDs...)
		s.SelectedScopeID = selectedScopeFrom(s.TreeSelection)
		return s
	})
}

// SearchFilterChanged updates the variable search box text.
func (t *ScopeTree) SearchFilterChanged(text string) {
	t.ra.Dispatch(func(s ScopeTreeState) ScopeTreeState {
		s = s.clone()
		s.SearchFilter = text
		return s
	})
}

// SearchFocusChanged updates whether the search box has focus.
func (t *ScopeTree) SearchFocusChanged(focused bool) {
	t.ra.Dispatch(func(s ScopeTreeState) ScopeTreeState {
		s = s.clone()
		s.SearchFocused = focused
		return s
	})
}
