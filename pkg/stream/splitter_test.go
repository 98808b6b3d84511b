package stream_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/stream"
)

func split(tokens ...string) stream.Snapshot {
	s := stream.NewSplitter()
	for _, t := range tokens {
		s.OnToken(t)
	}
	s.OnEnd()
	return s.Snapshot()
}

var _ = Describe("Splitter", func() {
	It("starts in thinking mode with empty buffers", func() {
		snap := stream.NewSplitter().Snapshot()
		Expect(snap.Mode).To(Equal(stream.Thinking))
		Expect(snap.Think).To(BeEmpty())
		Expect(snap.Answer).To(BeEmpty())
		Expect(snap.Final).To(BeFalse())
	})

	It("handles markers straddling tokens", func() {
		snap := split("<thi", "nk>partial", "</thi", "nk>rest")
		Expect(snap.Think).To(Equal("partial"))
		Expect(snap.Answer).To(Equal("rest"))
		Expect(snap.Mode).To(Equal(stream.Answering))
	})

	It("keeps everything in thinking when no marker arrives", func() {
		snap := split("hello ", "world")
		Expect(snap.Mode).To(Equal(stream.Thinking))
		Expect(snap.Think).To(Equal("hello world"))
		Expect(snap.Answer).To(BeEmpty())
	})

	It("splits a marker inside a single token", func() {
		snap := split("<think>step1 ", "step2</think>answer1")
		Expect(snap.Think).To(Equal("step1 step2"))
		Expect(snap.Answer).To(Equal("answer1"))
	})

	It("splits correctly wherever the token boundaries fall", func() {
		text := "<think>先分析位次</think># 报告\n| 维度 | 评分 |"
		for i := 0; i <= len(text); i++ {
			for j := i; j <= len(text); j++ {
				snap := split(text[:i], text[i:j], text[j:])
				Expect(snap.Think).To(Equal("先分析位次"), "boundaries %d/%d", i, j)
				Expect(snap.Answer).To(Equal("# 报告\n| 维度 | 评分 |"), "boundaries %d/%d", i, j)
			}
		}
	})

	It("strips an opening marker preceded by whitespace", func() {
		snap := split("\n<think>", "plan</think>report")
		Expect(snap.Think).To(Equal("plan"))
		Expect(snap.Answer).To(Equal("report"))
	})

	It("strips an opening marker after a whitespace-only token", func() {
		whole := split("\n<think>plan</think>answer")
		chunked := split("\n", "<think>plan</think>answer")
		spaced := split(" ", "\n", "<thi", "nk>plan</think>answer")

		Expect(chunked).To(Equal(whole))
		Expect(spaced.Think).To(Equal("plan"))
		Expect(spaced.Answer).To(Equal("answer"))
	})

	It("keeps leading whitespace when no opening marker follows", func() {
		snap := split("\n", "plan")
		Expect(snap.Think).To(Equal("\nplan"))

		snap = split("  ")
		Expect(snap.Think).To(Equal("  "))
	})

	It("keeps an opening marker that follows committed thinking text", func() {
		snap := split("note ", "<think>x</think>y")
		Expect(snap.Think).To(Equal("note <think>x"))
		Expect(snap.Answer).To(Equal("y"))
	})

	It("transitions only once", func() {
		snap := split("a</think>b", "</think>c")
		Expect(snap.Think).To(Equal("a"))
		Expect(snap.Answer).To(Equal("b</think>c"))
	})

	It("does not expose held-back bytes while streaming", func() {
		s := stream.NewSplitter()
		s.OnToken("thinking</thi")
		Expect(s.Snapshot().Think).To(Equal("thinking"))

		s.OnToken("s is fine")
		Expect(s.Snapshot().Think).To(Equal("thinking</this is fine"))
		Expect(s.Mode()).To(Equal(stream.Thinking))
	})

	It("releases held-back bytes on end", func() {
		snap := split("almost</thi")
		Expect(snap.Mode).To(Equal(stream.Thinking))
		Expect(snap.Think).To(Equal("almost</thi"))
		Expect(snap.Final).To(BeTrue())
	})

	It("ignores tokens after end", func() {
		s := stream.NewSplitter()
		s.OnToken("a</think>b")
		s.OnEnd()
		s.OnToken("late")

		Expect(s.Snapshot().Answer).To(Equal("b"))
	})

	It("marks the state failed on error", func() {
		s := stream.NewSplitter()
		s.OnToken("<think>half")
		s.OnError("upstream timeout")
		s.OnToken("late")
		s.OnEnd()

		snap := s.Snapshot()
		Expect(snap.Final).To(BeTrue())
		Expect(snap.Failed).To(BeTrue())
		Expect(snap.Error).To(Equal("upstream timeout"))
	})
})
