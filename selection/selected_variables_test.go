package selection_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"novywave/protocol"
	"novywave/selection"
)

var _ = Describe("selected variables", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		sv     *selection.SelectedVariables
		clk    protocol.Signal
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		sv = selection.NewSelectedVariables(ctx)
		clk = protocol.Signal{ID: "clk", Name: "clk", WidthBits: 1}
	})

	AfterEach(func() { cancel() })

	It("adds a variable on click with a sensible default format", func() {
		sv.VariableClicked("a.vcd|top|clk", clk)
		Eventually(func() []protocol.SelectedVariable { return sv.Get() }).Should(HaveLen(1))
		got := sv.Get()[0]
		Expect(got.UniqueID).To(Equal("a.vcd|top|clk"))
		Expect(*got.Formatter).To(Equal(protocol.FormatBinary))
	})

	It("does not duplicate an entry on a repeated click", func() {
		sv.VariableClicked("a.vcd|top|clk", clk)
		sv.VariableClicked("a.vcd|top|clk", clk)
		sv.VariableClicked("a.vcd|top|clk", clk)
		Eventually(func() []protocol.SelectedVariable { return sv.Get() }).Should(HaveLen(1))
		Consistently(func() []protocol.SelectedVariable { return sv.Get() }).Should(HaveLen(1))
	})

	It("removes a variable by id", func() {
		sv.VariableClicked("a.vcd|top|clk", clk)
		Eventually(func() []protocol.SelectedVariable { return sv.Get() }).Should(HaveLen(1))
		sv.VariableRemoved("a.vcd|top|clk")
		Eventually(func() []protocol.SelectedVariable { return sv.Get() }).Should(BeEmpty())
	})

	It("restores a whole selection wholesale", func() {
		fmtHex := protocol.FormatHexadecimal
		sv.VariablesRestored([]protocol.SelectedVariable{{UniqueID: "a.vcd|top|x", Formatter: &fmtHex}})
		Eventually(func() []protocol.SelectedVariable { return sv.Get() }).Should(HaveLen(1))
		Expect(sv.Get()[0].UniqueID).To(Equal("a.vcd|top|x"))
	})

	It("changes a variable's display format", func() {
		sv.VariableClicked("a.vcd|top|clk", clk)
		Eventually(func() []protocol.SelectedVariable { return sv.Get() }).Should(HaveLen(1))
		sv.VariableFormatChanged("a.vcd|top|clk", protocol.FormatOctal)
		Eventually(func() protocol.VarFormat {
			for _, v := range sv.Get() {
				if v.UniqueID == "a.vcd|top|clk" {
					return *v.Formatter
				}
			}
			return ""
		}).Should(Equal(protocol.FormatOctal))
	})

	It("clears the whole selection", func() {
		sv.VariableClicked("a.vcd|top|clk", clk)
		Eventually(func() []protocol.SelectedVariable { return sv.Get() }).Should(HaveLen(1))
		sv.SelectionCleared()
		Eventually(func() []protocol.SelectedVariable { return sv.Get() }).Should(BeEmpty())
	})
})
