package chatcmder

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/advisor/cmd/advisor/setup"
	"github.com/papercomputeco/advisor/pkg/advisor"
	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/stream"
)

const inputHeight = 3

var (
	youLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("4")).
			Padding(0, 1)
	advisorLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("5")).
				Padding(0, 1)
	errLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("1")).
			Padding(0, 1)
)

// asker is the part of advisor.Conversation the TUI drives.
type asker interface {
	Ask(ctx context.Context, input advisor.UserInput, surface stream.Surface) (stream.Result, error)
	Turns() int
}

type keyMap struct {
	Send key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Quit}
}

func newKeyMap() keyMap {
	return keyMap{
		Send: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "发送")),
		Quit: key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "退出")),
	}
}

// turn is one question and its report.
type turn struct {
	question string
	view     cliui.View
	err      string
}

type chatModel struct {
	ctx          context.Context
	conv         asker
	background   advisor.UserInput
	md           *cliui.Markdown
	showThinking bool

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	history []turn
	current *turn
	events  chan any
	usage   *session.Snapshot
	width   int
}

func newChatModel(ctx context.Context, conv asker, background advisor.UserInput, md *cliui.Markdown, showThinking bool) chatModel {
	ta := textarea.New()
	ta.Placeholder = "描述你的情况和困惑，回车发送"
	ta.SetHeight(inputHeight)
	ta.CharLimit = 0
	ta.ShowLineNumbers = false

	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.KeyMap.Left = key.NewBinding(key.WithDisabled())
	vp.KeyMap.Right = key.NewBinding(key.WithDisabled())

	return chatModel{
		ctx:          ctx,
		conv:         conv,
		background:   background,
		md:           md,
		showThinking: showThinking,
		input:        ta,
		viewport:     vp,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:         help.New(),
		keys:         newKeyMap(),
		width:        80,
	}
}

func (m chatModel) Init() tea.Cmd {
	return m.input.Focus()
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Send):
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.current != nil {
				return m, nil
			}
			m.input.Reset()
			return m, m.submit(question)
		}

	case thinkMsg:
		if m.current != nil {
			m.current.view.Think = msg.text
			m.current.view.ThinkStreaming = msg.streaming
			m.refresh()
		}
		return m, m.listen()

	case answerMsg:
		if m.current != nil {
			m.current.view.Answer = msg.text
			m.current.view.AnswerStreaming = msg.streaming
			m.refresh()
		}
		return m, m.listen()

	case finalMsg:
		if m.current != nil {
			m.current.view.Think = msg.snap.Think
			m.current.view.Answer = msg.snap.Answer
			m.current.view.ThinkStreaming = false
			m.current.view.AnswerStreaming = false
			m.refresh()
		}
		return m, m.listen()

	case failMsg:
		if m.current != nil {
			m.current.err = msg.message
			m.refresh()
		}
		return m, m.listen()

	case usageMsg:
		usage := msg.usage
		m.usage = &usage
		return m, m.listen()

	case doneMsg:
		m.finish(msg.err)
		return m, nil

	case spinner.TickMsg:
		if m.current == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m chatModel) View() tea.View {
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))

	v := tea.NewView(b.String())
	v.AltScreen = true
	return v
}

// submit starts a request for question. The first question carries the
// student background; later ones are follow-ups with text only.
func (m *chatModel) submit(question string) tea.Cmd {
	input := advisor.UserInput{RawText: question}
	if m.conv.Turns() == 0 {
		input = m.background
		input.RawText = question
	}

	m.current = &turn{
		question: question,
		view:     cliui.View{ShowThinking: m.showThinking},
	}
	m.events = make(chan any, 64)
	m.refresh()

	return tea.Batch(m.ask(input, m.events), m.listen(), m.spinner.Tick)
}

// ask runs the request to completion, delivering renders and the final
// doneMsg on events.
func (m *chatModel) ask(input advisor.UserInput, events chan any) tea.Cmd {
	ctx, conv := m.ctx, m.conv
	return func() tea.Msg {
		_, err := conv.Ask(ctx, input, teaSurface{events: events})
		events <- doneMsg{err: err}
		return nil
	}
}

// listen waits for the next render of the request in flight.
func (m *chatModel) listen() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		return <-events
	}
}

func (m *chatModel) finish(err error) {
	if m.current == nil {
		return
	}

	if err != nil && m.current.err == "" {
		m.current.err = setup.Describe(err)
	}
	m.current.view.ThinkStreaming = false
	m.current.view.AnswerStreaming = false

	m.history = append(m.history, *m.current)
	m.current = nil
	m.events = nil
	m.refresh()
}

func (m *chatModel) setSize(w, h int) {
	m.width = w
	m.viewport.SetWidth(w)
	m.viewport.SetHeight(max(h-inputHeight-3, 3))
	m.input.SetWidth(w)
}

func (m *chatModel) refresh() {
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

// transcript renders every turn, including the one in flight.
func (m *chatModel) transcript() string {
	turns := m.history
	if m.current != nil {
		turns = append(turns[:len(turns):len(turns)], *m.current)
	}

	if len(turns) == 0 {
		return cliui.DimStyle.Render(fmt.Sprintf("%s · %s · %s", m.background.Province, m.background.Rank, m.background.Stream))
	}

	separator := cliui.DimStyle.Render(strings.Repeat("─", max(m.width, 1)))

	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n" + separator + "\n\n")
		}

		b.WriteString(youLabelStyle.Render("你"))
		b.WriteString("\n\n")
		b.WriteString(t.question)
		b.WriteString("\n\n")

		if t.err != "" {
			b.WriteString(errLabelStyle.Render("错误"))
			b.WriteString("\n\n")
			b.WriteString(cliui.ErrorStyle.Render(t.err))
			b.WriteString("\n")
			continue
		}

		b.WriteString(advisorLabelStyle.Render("志愿顾问"))
		b.WriteString("\n\n")
		b.WriteString(cliui.RenderView(t.view, m.md))
	}

	return b.String()
}

func (m chatModel) statusLine() string {
	var parts []string
	if m.current != nil {
		parts = append(parts, m.spinner.View()+" 正在生成报告")
	}
	if m.usage != nil {
		parts = append(parts, cliui.DimStyle.Render(m.usage.String()))
	}
	return ansi.Truncate(strings.Join(parts, "  "), m.width, "…")
}
