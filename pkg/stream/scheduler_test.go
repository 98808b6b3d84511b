package stream_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/stream"
	testutils "github.com/papercomputeco/advisor/pkg/utils/test"
)

var _ = Describe("Scheduler", func() {
	var (
		clock    *testutils.FakeClock
		surface  *testutils.RecordingSurface
		sched    *stream.Scheduler
		splitter *stream.Splitter
	)

	feed := func(tokens ...string) {
		for _, t := range tokens {
			splitter.OnToken(t)
			sched.Notify(splitter.Snapshot())
		}
	}

	BeforeEach(func() {
		clock = testutils.NewFakeClock()
		surface = testutils.NewRecordingSurface()
		sched = stream.NewScheduler(surface, stream.WithSchedulerClock(clock), stream.WithInterval(150*time.Millisecond))
		splitter = stream.NewSplitter()
	})

	Context("while thinking", func() {
		It("renders every update immediately", func() {
			feed("<think>a", "b", "c")

			thinks := surface.Of(testutils.RenderThink)
			Expect(thinks).To(HaveLen(3))
			Expect(thinks[2].Text).To(Equal("abc"))
			Expect(thinks[2].Streaming).To(BeTrue())
			Expect(clock.Pending()).To(BeZero())
		})
	})

	Context("while answering", func() {
		BeforeEach(func() {
			feed("<think>plan</think>")
		})

		It("closes the thinking pane once on transition", func() {
			feed("x", "y")

			thinks := surface.Of(testutils.RenderThink)
			Expect(thinks).To(HaveLen(1))
			Expect(thinks[0].Text).To(Equal("plan"))
			Expect(thinks[0].Streaming).To(BeFalse())
		})

		It("coalesces a burst into one trailing render of the latest state", func() {
			var want strings.Builder
			for i := range 10 {
				tok := string(rune('a' + i))
				want.WriteString(tok)
				feed(tok)
				clock.Advance(100 * time.Microsecond)
			}
			Expect(surface.Count(testutils.RenderAnswer)).To(BeZero())

			clock.Advance(150 * time.Millisecond)

			answers := surface.Of(testutils.RenderAnswer)
			Expect(len(answers)).To(BeNumerically("<=", 2))
			Expect(answers[len(answers)-1].Text).To(Equal(want.String()))
		})

		It("renders at most once per interval under a steady stream", func() {
			for range 30 {
				feed("x")
				clock.Advance(20 * time.Millisecond)
			}
			// 600ms of tokens at a 150ms interval.
			Expect(surface.Count(testutils.RenderAnswer)).To(BeNumerically("<=", 4))
			Expect(surface.Count(testutils.RenderAnswer)).To(BeNumerically(">=", 3))
		})

		It("arms a new timer after the previous one fired", func() {
			feed("a")
			clock.Advance(150 * time.Millisecond)
			feed("b")
			Expect(clock.Pending()).To(Equal(1))

			clock.Advance(150 * time.Millisecond)
			answers := surface.Of(testutils.RenderAnswer)
			Expect(answers).To(HaveLen(2))
			Expect(answers[1].Text).To(Equal("ab"))
		})
	})

	Describe("Finish", func() {
		It("replaces a pending render with the final state", func() {
			feed("<think>t</think>", "a", "b", "c")
			splitter.OnEnd()
			sched.Finish(splitter.Snapshot())

			Expect(clock.Pending()).To(BeZero())
			clock.Advance(time.Second)

			Expect(surface.Count(testutils.RenderAnswer)).To(BeZero())
			finals := surface.Of(testutils.RenderFinal)
			Expect(finals).To(HaveLen(1))
			Expect(finals[0].Snapshot.Answer).To(Equal("abc"))
			Expect(finals[0].Snapshot.Think).To(Equal("t"))
		})

		It("renders only once and ignores later updates", func() {
			feed("<think>t</think>a")
			sched.Finish(splitter.Snapshot())
			sched.Finish(splitter.Snapshot())
			sched.Fail("late")
			sched.Notify(splitter.Snapshot())
			clock.Advance(time.Second)

			Expect(surface.Count(testutils.RenderFinal)).To(Equal(1))
			Expect(surface.Count(testutils.RenderError)).To(BeZero())
		})
	})

	Describe("Fail", func() {
		It("cancels the pending render and shows the message", func() {
			feed("<think>t</think>", "a")
			sched.Fail("服务器在与AI通信时发生错误")
			clock.Advance(time.Second)

			Expect(surface.Count(testutils.RenderAnswer)).To(BeZero())
			Expect(surface.Count(testutils.RenderFinal)).To(BeZero())
			errs := surface.Of(testutils.RenderError)
			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Text).To(Equal("服务器在与AI通信时发生错误"))
		})
	})

	It("forwards usage updates", func() {
		sched.Usage(session.Snapshot{Used: 1, Limit: 2})
		usage := surface.Of(testutils.RenderUsage)
		Expect(usage).To(HaveLen(1))
		Expect(usage[0].Usage).To(Equal(session.Snapshot{Used: 1, Limit: 2}))
	})

	Context("with the system clock", func() {
		It("eventually renders the latest answer", func() {
			sched = stream.NewScheduler(surface, stream.WithInterval(5*time.Millisecond))
			feed("<think>t</think>", "x", "y", "z")

			Eventually(func() []testutils.Render {
				return surface.Of(testutils.RenderAnswer)
			}).Should(ContainElement(HaveField("Text", "xyz")))
		})
	})
})
