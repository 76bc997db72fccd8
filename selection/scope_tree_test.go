package selection_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"novywave/selection"
)

var _ = Describe("scope tree", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		tree   *selection.ScopeTree
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		tree = selection.NewScopeTree(ctx)
	})

	AfterEach(func() { cancel() })

	It("expands and collapses scopes", func() {
		tree.ScopeExpanded("top.core")
		Eventually(func() bool { return tree.Get().ExpandedScopes.Contains("top.core") }).Should(BeTrue())

		tree.ScopeCollapsed("top.core")
		Eventually(func() bool { return tree.Get().ExpandedScopes.Contains("top.core") }).Should(BeFalse())
	})

	It("restores the whole expanded set wholesale", func() {
		tree.ExpandedScopesRestored([]string{"top", "top.core", "top.mem"})
		Eventually(func() int { return tree.Get().ExpandedScopes.Len() }).Should(Equal(3))
	})

	It("derives the selected scope from the first scope_-prefixed tree selection entry", func() {
		tree.TreeSelectionChanged([]string{"top.core.clk", "scope_top.core"})
		Eventually(func() string {
			s := tree.Get()
			if s.SelectedScopeID == nil {
				return ""
			}
			return *s.SelectedScopeID
		}).Should(Equal("scope_top.core"))
		Eventually(func() []string { return tree.Get().TreeSelection.Items() }).Should(Equal([]string{"top.core.clk", "scope_top.core"}))
	})

	It("clears the selected scope when the tree selection has no scope_ entry", func() {
		tree.TreeSelectionChanged([]string{"scope_top.core"})
		Eventually(func() bool { return tree.Get().SelectedScopeID != nil }).Should(BeTrue())

		tree.TreeSelectionChanged([]string{"top.core.clk"})
		Eventually(func() bool { return tree.Get().SelectedScopeID == nil }).Should(BeTrue())
	})

	It("tracks search filter text and focus", func() {
		tree.SearchFilterChanged("clk")
		tree.SearchFocusChanged(true)
		Eventually(func() string { return tree.Get().SearchFilter }).Should(Equal("clk"))
		Eventually(func() bool { return tree.Get().SearchFocused }).Should(BeTrue())
	})
})
