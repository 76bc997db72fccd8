package files_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"novywave/files"
	"novywave/protocol"
)

func labelOf(tf *files.TrackedFiles, id string) string {
	for _, f := range tf.Snapshot() {
		if f.ID == id {
			return f.SmartLabel
		}
	}
	return ""
}

func stateOf(tf *files.TrackedFiles, id string) protocol.FileStateKind {
	for _, f := range tf.Snapshot() {
		if f.ID == id {
			return f.State.Kind
		}
	}
	return -1
}

var _ = Describe("tracked files", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		tf     *files.TrackedFiles
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		tf = files.NewTrackedFiles(ctx, nil, nil)
	})

	AfterEach(func() { cancel() })

	It("starts a newly added file in Loading state", func() {
		f := tf.Add("/home/a/top.vcd")
		Eventually(func() protocol.FileStateKind { return stateOf(tf, f.ID) }).Should(Equal(protocol.StateLoading))
	})

	It("disambiguates colliding basenames", func() {
		a := tf.Add("/home/a/top.vcd")
		b := tf.Add("/home/b/top.vcd")
		Eventually(func() string { return labelOf(tf, a.ID) }).Should(Equal("a/top.vcd"))
		Eventually(func() string { return labelOf(tf, b.ID) }).Should(Equal("b/top.vcd"))
	})

	It("appends the time range to the label once loaded", func() {
		f := tf.Add("/home/a/top.vcd")
		tf.MarkLoaded(f.ID, protocol.WaveformFile{ID: f.ID}, "0s - 1.2ms")
		Eventually(func() string { return labelOf(tf, f.CanonicalPath) }).Should(Equal("top.vcd (0s - 1.2ms)"))
		Eventually(func() protocol.FileStateKind { return stateOf(tf, f.CanonicalPath) }).Should(Equal(protocol.StateLoaded))
	})

	It("transitions to Failed on a parse error", func() {
		f := tf.Add("/home/a/bad.vcd")
		tf.MarkFailed(f.ID, protocol.NewParseError("unexpected EOF"))
		Eventually(func() protocol.FileStateKind { return stateOf(tf, f.CanonicalPath) }).Should(Equal(protocol.StateFailed))
	})

	It("reassigns id to canonical_path once the backend confirms the file (spec §3.2)", func() {
		f := tf.Add("/home/a/top.vcd")
		tf.MarkLoaded(f.ID, protocol.WaveformFile{ID: f.ID}, "0s - 1s")
		Eventually(func() []protocol.TrackedFile { return tf.Snapshot() }).Should(ContainElement(
			WithTransform(func(tf protocol.TrackedFile) string { return tf.ID }, Equal(f.CanonicalPath)),
		))

		g := tf.Add("/home/a/bad.vcd")
		tf.MarkFailed(g.ID, protocol.NewParseError("unexpected EOF"))
		Eventually(func() []protocol.TrackedFile { return tf.Snapshot() }).Should(ContainElement(
			WithTransform(func(tf protocol.TrackedFile) string { return tf.ID }, Equal(g.CanonicalPath)),
		))
	})

	It("removes a file and re-disambiguates the remaining ones", func() {
		a := tf.Add("/home/a/top.vcd")
		b := tf.Add("/home/b/top.vcd")
		Eventually(func() string { return labelOf(tf, b.ID) }).Should(Equal("b/top.vcd"))

		tf.Remove(a.ID)
		Eventually(func() []protocol.TrackedFile { return tf.Snapshot() }).Should(HaveLen(1))
		Eventually(func() string { return labelOf(tf, b.ID) }).Should(Equal("top.vcd"))
	})

	It("clears every tracked file", func() {
		tf.Add("/home/a/top.vcd")
		tf.Add("/home/b/top.vcd")
		Eventually(func() []protocol.TrackedFile { return tf.Snapshot() }).Should(HaveLen(2))
		tf.Clear()
		Eventually(func() []protocol.TrackedFile { return tf.Snapshot() }).Should(BeEmpty())
	})
})
