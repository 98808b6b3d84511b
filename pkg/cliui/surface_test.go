package cliui_test

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/stream"
)

// lastFrame returns the output written after the most recent erase.
func lastFrame(out string) string {
	if i := strings.LastIndex(out, ansi.EraseScreenBelow); i >= 0 {
		out = out[i+len(ansi.EraseScreenBelow):]
	}
	return ansi.Strip(out)
}

var _ = Describe("RenderView", func() {
	var md *cliui.Markdown

	BeforeEach(func() {
		var err error
		md, err = cliui.NewMarkdown(cliui.StyleNoTTY, 80)
		Expect(err).NotTo(HaveOccurred())
	})

	It("shows streaming thinking with a cursor", func() {
		out := ansi.Strip(cliui.RenderView(cliui.View{Think: "分析位次", ThinkStreaming: true}, md))
		Expect(out).To(ContainSubstring("◆ 思考中"))
		Expect(out).To(ContainSubstring("分析位次" + cliui.Cursor))
	})

	It("collapses finished thinking by default", func() {
		out := ansi.Strip(cliui.RenderView(cliui.View{Think: "分析位次", Answer: "结论"}, md))
		Expect(out).To(ContainSubstring("▸ 思考过程 (已折叠, 4 字)"))
		Expect(out).NotTo(ContainSubstring("分析位次"))
		Expect(out).To(ContainSubstring("结论"))
		Expect(out).NotTo(ContainSubstring(cliui.Cursor))
	})

	It("expands finished thinking when asked", func() {
		out := ansi.Strip(cliui.RenderView(cliui.View{Think: "分析位次", ShowThinking: true}, md))
		Expect(out).To(ContainSubstring("▾ 思考过程"))
		Expect(out).To(ContainSubstring("分析位次"))
	})

	It("marks a streaming answer with a cursor", func() {
		out := ansi.Strip(cliui.RenderView(cliui.View{Answer: "结论", AnswerStreaming: true}, md))
		Expect(strings.TrimRight(out, "\n")).To(HaveSuffix(cliui.Cursor))
	})

	It("appends the usage line", func() {
		out := ansi.Strip(cliui.RenderView(cliui.View{Usage: &session.Snapshot{Used: 2, Limit: 5}}, md))
		Expect(out).To(Equal("今日用量: 2 / 5\n"))
	})

	It("renders nothing for an empty view", func() {
		Expect(cliui.RenderView(cliui.View{}, md)).To(BeEmpty())
	})
})

var _ = Describe("LiveSurface", func() {
	var (
		buf     *bytes.Buffer
		surface *cliui.LiveSurface
	)

	BeforeEach(func() {
		md, err := cliui.NewMarkdown(cliui.StyleNoTTY, 80)
		Expect(err).NotTo(HaveOccurred())

		buf = &bytes.Buffer{}
		surface = cliui.NewLiveSurface(cliui.SurfaceConfig{
			Out:      buf,
			Markdown: md,
			Width:    80,
			Height:   5,
		})
	})

	It("erases the previous frame before redrawing", func() {
		surface.RenderThink("a", true)
		Expect(buf.String()).NotTo(ContainSubstring(ansi.EraseScreenBelow))

		surface.RenderThink("ab", true)
		Expect(buf.String()).To(ContainSubstring("\r" + ansi.CursorUp(2) + ansi.EraseScreenBelow))
		Expect(lastFrame(buf.String())).To(ContainSubstring("ab" + cliui.Cursor))
	})

	It("keeps only the tail that fits on screen while streaming", func() {
		var lines []string
		for i := range 10 {
			lines = append(lines, fmt.Sprintf("line%d", i))
		}
		surface.RenderThink(strings.Join(lines, "\n"), true)

		frame := lastFrame(buf.String())
		Expect(strings.Count(frame, "\n")).To(Equal(4))
		Expect(frame).To(ContainSubstring("line9" + cliui.Cursor))
		Expect(frame).NotTo(ContainSubstring("line0"))
	})

	It("prints the full final view without cursors", func() {
		surface.RenderThink("想一想", true)
		surface.RenderThink("想一想", false)
		surface.RenderAnswer("建议A", true)
		surface.RenderUsage(session.Snapshot{Used: 1, Limit: 5})
		surface.RenderFinal(stream.Snapshot{Mode: stream.Answering, Think: "想一想", Answer: "建议A", Final: true})

		frame := lastFrame(buf.String())
		Expect(frame).NotTo(ContainSubstring(cliui.Cursor))
		Expect(frame).To(ContainSubstring("▸ 思考过程 (已折叠, 3 字)"))
		Expect(frame).To(ContainSubstring("建议A"))
		Expect(frame).To(ContainSubstring("今日用量: 1 / 5"))
	})

	It("ignores renders after the final one", func() {
		surface.RenderFinal(stream.Snapshot{Answer: "done", Final: true})
		n := buf.Len()

		surface.RenderAnswer("late", true)
		surface.RenderError("late")
		Expect(buf.Len()).To(Equal(n))
	})

	It("replaces the live region with the error", func() {
		surface.RenderThink("partial", true)
		surface.RenderError("请求失败: connection reset")

		frame := lastFrame(buf.String())
		Expect(frame).To(Equal("✗ 请求失败: connection reset\n"))
	})
})

var _ = Describe("PlainSurface", func() {
	var out, status *bytes.Buffer

	BeforeEach(func() {
		out = &bytes.Buffer{}
		status = &bytes.Buffer{}
	})

	It("appends answer deltas as raw markdown", func() {
		s := cliui.NewPlainSurface(cliui.SurfaceConfig{Out: out, Status: status})
		s.RenderThink("hidden", true)
		s.RenderAnswer("# A", true)
		s.RenderAnswer("# A\nb", true)
		s.RenderUsage(session.Snapshot{Used: 1, Limit: 5})
		s.RenderFinal(stream.Snapshot{Think: "hidden", Answer: "# A\nbc", Final: true})

		Expect(out.String()).To(Equal("# A\nbc\n"))
		Expect(status.String()).To(Equal("今日用量: 1 / 5\n"))
	})

	It("writes thinking to the status writer when enabled", func() {
		s := cliui.NewPlainSurface(cliui.SurfaceConfig{Out: out, Status: status, ShowThinking: true})
		s.RenderThink("x", true)
		s.RenderThink("xy", false)
		s.RenderAnswer("ans", true)
		s.RenderFinal(stream.Snapshot{Think: "xy", Answer: "ans", Final: true})

		Expect(status.String()).To(Equal("思考过程:\nxy\n\n"))
		Expect(out.String()).To(Equal("ans\n"))
	})

	It("notes collapsed thinking when the answer is empty", func() {
		s := cliui.NewPlainSurface(cliui.SurfaceConfig{Out: out, Status: status})
		s.RenderThink("分析位次", true)
		s.RenderFinal(stream.Snapshot{Think: "分析位次", Final: true})

		Expect(out.String()).To(BeEmpty())
		Expect(status.String()).To(Equal("▸ 思考过程 (已折叠, 4 字), 回答为空\n"))
	})

	It("adds no note when thinking was already shown", func() {
		s := cliui.NewPlainSurface(cliui.SurfaceConfig{Out: out, Status: status, ShowThinking: true})
		s.RenderFinal(stream.Snapshot{Think: "xy", Final: true})

		Expect(status.String()).NotTo(ContainSubstring("已折叠"))
	})

	It("reports errors on the status writer", func() {
		s := cliui.NewPlainSurface(cliui.SurfaceConfig{Out: out, Status: status})
		s.RenderError("boom")
		s.RenderFinal(stream.Snapshot{Answer: "late"})

		Expect(status.String()).To(Equal("错误: boom\n"))
		Expect(out.String()).To(BeEmpty())
	})

	It("defaults the status writer to the output", func() {
		s := cliui.NewPlainSurface(cliui.SurfaceConfig{Out: out})
		s.RenderError("boom")
		Expect(out.String()).To(Equal("错误: boom\n"))
	})

	It("is chosen for non-terminal output", func() {
		Expect(cliui.NewSurface(cliui.SurfaceConfig{Out: out})).To(BeAssignableToTypeOf(&cliui.PlainSurface{}))
	})
})
