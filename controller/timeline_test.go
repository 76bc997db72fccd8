package controller_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"novywave/controller"
	"novywave/timeline"
)

var _ = Describe("waveform timeline controller", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		wt     *controller.WaveformTimeline
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		wt = controller.NewWaveformTimeline(ctx)
	})

	AfterEach(func() { cancel() })

	It("initialises the viewport from a newly loaded file's bounds", func() {
		wt.CanvasResized(1000)
		wt.FileBoundsKnown(timeline.Zero, timeline.FromSeconds(1))
		Eventually(func() timeline.TimeNs { return wt.Get().Viewport.End }).Should(Equal(timeline.FromSeconds(1)))
		Eventually(func() timeline.TimeNs { return wt.Get().Cursor }).Should(Equal(timeline.Zero))
	})

	It("moves the cursor on a click", func() {
		wt.CursorClicked(timeline.FromSeconds(0.5))
		Eventually(func() timeline.TimeNs { return wt.Get().Cursor }).Should(Equal(timeline.FromSeconds(0.5)))
	})

	It("pans the viewport forward and backward", func() {
		wt.ViewportChanged(timeline.NewViewport(timeline.FromSeconds(1), timeline.FromSeconds(2)))
		wt.PannedBy(int64(timeline.DurationFromSeconds(1).Nanos()))
		Eventually(func() timeline.TimeNs { return wt.Get().Viewport.Start }).Should(Equal(timeline.FromSeconds(2)))
	})

	It("never zooms in past 1ns per pixel", func() {
		for i := 0; i < 200; i++ {
			wt.ZoomedIn(false)
		}
		Eventually(func() timeline.NsPerPixel { return wt.Get().NsPerPixel }).Should(Equal(timeline.MinZoomNsPerPixel))
	})

	It("zooms in by 30% unshifted and 50% shifted", func() {
		wt.ViewportRestored(timeline.NewViewport(timeline.Zero, timeline.FromSeconds(1)), timeline.NsPerPixel(1_000_000), timeline.Zero)
		wt.ZoomedIn(false)
		Eventually(func() timeline.NsPerPixel { return wt.Get().NsPerPixel }).Should(Equal(timeline.NsPerPixel(700_000)))

		wt.ViewportRestored(timeline.NewViewport(timeline.Zero, timeline.FromSeconds(1)), timeline.NsPerPixel(1_000_000), timeline.Zero)
		wt.ZoomedIn(true)
		Eventually(func() timeline.NsPerPixel { return wt.Get().NsPerPixel }).Should(Equal(timeline.NsPerPixel(500_000)))
	})

	It("resets zoom to fit the viewport in the canvas width, recentring cursor and zoom center", func() {
		wt.CanvasResized(1000)
		wt.ViewportChanged(timeline.NewViewport(timeline.Zero, timeline.FromSeconds(1)))
		wt.ZoomCenterChanged(timeline.FromSeconds(0.9))
		wt.ZoomReset()
		Eventually(func() timeline.NsPerPixel { return wt.Get().NsPerPixel }).Should(Equal(timeline.NsPerPixel(1_000_000)))
		Eventually(func() timeline.TimeNs { return wt.Get().Cursor }).Should(Equal(timeline.FromSeconds(0.5)))
		Eventually(func() timeline.TimeNs { return wt.Get().ZoomCenter }).Should(Equal(timeline.Zero))
	})

	It("recomputes ns_per_pixel on canvas resize so the visible range is unchanged", func() {
		wt.CanvasResized(1000)
		wt.ViewportChanged(timeline.NewViewport(timeline.Zero, timeline.FromSeconds(1)))
		wt.ZoomReset()
		Eventually(func() timeline.NsPerPixel { return wt.Get().NsPerPixel }).Should(Equal(timeline.NsPerPixel(1_000_000)))

		wt.CanvasResized(2000)
		Eventually(func() timeline.NsPerPixel { return wt.Get().NsPerPixel }).Should(Equal(timeline.NsPerPixel(500_000)))
		Eventually(func() timeline.Viewport { return wt.Get().Viewport }).Should(Equal(timeline.NewViewport(timeline.Zero, timeline.FromSeconds(1))))
	})

	It("steps the cursor by 1 microsecond", func() {
		wt.CursorSteppedBy(1)
		Eventually(func() timeline.TimeNs { return wt.Get().Cursor }).Should(Equal(timeline.TimeNs(1_000)))
		wt.CursorSteppedBy(-1)
		Eventually(func() timeline.TimeNs { return wt.Get().Cursor }).Should(Equal(timeline.Zero))
	})

	It("fits all without touching cursor or zoom center, independently of reset_zoom_pressed", func() {
		wt.CanvasResized(1000)
		wt.ViewportChanged(timeline.NewViewport(timeline.Zero, timeline.FromSeconds(1)))
		wt.CursorClicked(timeline.FromSeconds(0.9))
		wt.ZoomCenterChanged(timeline.FromSeconds(0.9))
		wt.FitAllClicked()
		Eventually(func() timeline.NsPerPixel { return wt.Get().NsPerPixel }).Should(Equal(timeline.NsPerPixel(1_000_000)))
		Consistently(func() timeline.TimeNs { return wt.Get().Cursor }).Should(Equal(timeline.FromSeconds(0.9)))
		Consistently(func() timeline.TimeNs { return wt.Get().ZoomCenter }).Should(Equal(timeline.FromSeconds(0.9)))

		wt.ResetZoomCenterPressed()
		Eventually(func() timeline.TimeNs { return wt.Get().ZoomCenter }).Should(Equal(timeline.Zero))
	})
})

var _ = Describe("dialog manager", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		dm     *controller.DialogManager
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		dm = controller.NewDialogManager(ctx)
	})

	AfterEach(func() { cancel() })

	It("reports no active dialog initially", func() {
		Consistently(func() bool {
			_, ok := dm.Active()
			return ok
		}).Should(BeFalse())
	})

	It("stacks dialogs and closes the topmost first", func() {
		dm.Opened(controller.Dialog{Kind: controller.DialogFileRemoveConfirm, Context: "f1"})
		dm.Opened(controller.Dialog{Kind: controller.DialogSettings})
		Eventually(func() controller.DialogKind {
			d, _ := dm.Active()
			return d.Kind
		}).Should(Equal(controller.DialogSettings))

		dm.Closed()
		Eventually(func() controller.DialogKind {
			d, _ := dm.Active()
			return d.Kind
		}).Should(Equal(controller.DialogFileRemoveConfirm))
	})

	It("closes every dialog at once", func() {
		dm.Opened(controller.Dialog{Kind: controller.DialogAbout})
		dm.Opened(controller.Dialog{Kind: controller.DialogSettings})
		dm.ClosedAll()
		Eventually(func() bool {
			_, ok := dm.Active()
			return ok
		}).Should(BeFalse())
	})
})
