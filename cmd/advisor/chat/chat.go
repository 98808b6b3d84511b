// Package chatcmder provides the chat command: an interactive session that
// streams a first report and answers follow-up questions.
package chatcmder

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/cmd/advisor/setup"
	"github.com/papercomputeco/advisor/pkg/advisor"
	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/config"
)

type chatCommander struct {
	province  string
	rank      string
	stream    string
	scoreType string

	server       string
	code         string
	debounce     int
	style        string
	showThinking bool
}

const chatLongDesc string = `Start an interactive advisor session.

The first question is sent with the student background given by the flags.
Every later question is a follow-up in the same session, answered with the
earlier report as context. Usage is checked and the invitation code is
verified before the session opens.

Examples:
  advisor chat -p 广东 -r 12000 --stream 物理类
  advisor chat -p 浙江 -r 620 --score-type score --stream 综合 --show-thinking`

const chatShortDesc string = "Start an interactive advisor session"

var chatFlags = []string{
	config.FlagServer,
	config.FlagInvitationCode,
	config.FlagDebounce,
	config.FlagStyle,
	config.FlagShowThinking,
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&cmder.province, "province", "p", "", "Province of the exam (e.g. 广东)")
	cmd.Flags().StringVarP(&cmder.rank, "rank", "r", "", "Provincial rank, or score with --score-type score")
	cmd.Flags().StringVar(&cmder.stream, "stream", "", "Subject stream ("+strings.Join(advisor.Streams, ", ")+")")
	cmd.Flags().StringVar(&cmder.scoreType, "score-type", "", "Meaning of --rank (rank, score)")

	_ = cmd.RegisterFlagCompletionFunc("province", func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return advisor.CompleteProvince(toComplete), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("stream", cobra.FixedCompletions(advisor.Streams, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("score-type", cobra.FixedCompletions(advisor.ScoreTypes, cobra.ShellCompDirectiveNoFileComp))

	config.AddStringFlag(cmd, config.Flags, config.FlagServer, &cmder.server)
	config.AddStringFlag(cmd, config.Flags, config.FlagInvitationCode, &cmder.code)
	config.AddIntFlag(cmd, config.Flags, config.FlagDebounce, &cmder.debounce)
	config.AddStringFlag(cmd, config.Flags, config.FlagStyle, &cmder.style)
	config.AddBoolFlag(cmd, config.Flags, config.FlagShowThinking, &cmder.showThinking)

	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command) error {
	env, err := setup.Load(cmd, chatFlags...)
	if err != nil {
		return err
	}
	defer env.Close()

	background := advisor.UserInput{
		Province:  strings.TrimSpace(c.province),
		Rank:      strings.TrimSpace(c.rank),
		Stream:    strings.TrimSpace(c.stream),
		ScoreType: c.scoreType,
	}
	if err := background.ValidateBackground(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !cliui.IsTerminal(out) {
		return errors.New("chat needs a terminal; use \"advisor ask\" for piped output")
	}

	code, err := env.InvitationCode(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	conv := env.Conversation(code)
	status := cmd.ErrOrStderr()

	if err := setup.CheckQuota(ctx, conv, status); err != nil {
		return err
	}

	err = cliui.Step(status, "验证邀请码", func() error {
		return conv.Verify(ctx)
	})
	if err != nil {
		return err
	}

	md, _, _, err := env.Markdown(out)
	if err != nil {
		return err
	}

	model := newChatModel(ctx, conv, background, md, env.Config.Render.ShowThinking)
	if s, known := conv.Tracker().Current(); known {
		model.usage = &s
	}

	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithOutput(out),
	)

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
