// Package askcmder provides the ask command, which streams one admission
// report to the terminal.
package askcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/advisor/cmd/advisor/setup"
	"github.com/papercomputeco/advisor/pkg/advisor"
	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/report"
	"github.com/papercomputeco/advisor/pkg/stream"
	"github.com/papercomputeco/advisor/pkg/utils"
)

type askCommander struct {
	province  string
	rank      string
	stream    string
	scoreType string
	text      string

	server       string
	code         string
	debounce     int
	style        string
	showThinking bool
	exportDir    string

	output     string
	save       bool
	transcript string
}

const askLongDesc string = `Ask for an admission report.

Sends the student background and question to the advisor backend and
renders the report as it streams. The model's thinking is shown live and
collapsed once the answer starts.

The question is read from --text, from the arguments, or from stdin when
it is piped. The invitation code comes from --code, ADVISOR_AUTH_INVITATION_CODE
or the code saved by "advisor verify".

Examples:
  advisor ask -p 广东 -r 12000 --stream 物理类 "想学计算机，冲中大还是稳华工？"
  cat notes.txt | advisor ask -p 河南 -r 35000 --stream 理科 --save
  advisor ask -p 浙江 -r 600 --score-type score --stream 综合 -t "..." -o report.md`

const askShortDesc string = "Ask for an admission report"

var askFlags = []string{
	config.FlagServer,
	config.FlagInvitationCode,
	config.FlagDebounce,
	config.FlagStyle,
	config.FlagShowThinking,
	config.FlagExportDir,
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: askShortDesc,
		Long:  askLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
		// Errors past flag parsing are not usage mistakes.
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&cmder.province, "province", "p", "", "Province of the exam (e.g. 广东)")
	cmd.Flags().StringVarP(&cmder.rank, "rank", "r", "", "Provincial rank, or score with --score-type score")
	cmd.Flags().StringVar(&cmder.stream, "stream", "", "Subject stream ("+strings.Join(advisor.Streams, ", ")+")")
	cmd.Flags().StringVar(&cmder.scoreType, "score-type", "", "Meaning of --rank (rank, score)")
	cmd.Flags().StringVarP(&cmder.text, "text", "t", "", "Background notes and the question to analyze")

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
	config.AddStringFlag(cmd, config.Flags, config.FlagExportDir, &cmder.exportDir)

	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Write the finished report to this file")
	cmd.Flags().BoolVar(&cmder.save, "save", false, "Save the finished report to the export directory")
	cmd.Flags().StringVar(&cmder.transcript, "transcript", "", "Write the raw event stream to this file")

	return cmd
}

func (c *askCommander) run(cmd *cobra.Command, args []string) error {
	env, err := setup.Load(cmd, askFlags...)
	if err != nil {
		return err
	}
	defer env.Close()

	text, err := c.question(cmd, args)
	if err != nil {
		return err
	}

	input := advisor.UserInput{
		RawText:   text,
		Province:  strings.TrimSpace(c.province),
		Rank:      strings.TrimSpace(c.rank),
		Stream:    strings.TrimSpace(c.stream),
		ScoreType: c.scoreType,
	}
	if err := input.Validate(); err != nil {
		return err
	}

	code, err := env.InvitationCode(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var opts []stream.Option
	if c.transcript != "" {
		f, err := os.Create(c.transcript)
		if err != nil {
			return fmt.Errorf("creating transcript: %w", err)
		}
		defer f.Close()
		opts = append(opts, stream.WithTranscript(f))
	}

	conv := env.Conversation(code, opts...)
	env.Logger.Debug("asking",
		"session", conv.Session().ID(),
		"question", utils.Truncate(utils.FirstLine(text), 40),
	)
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

	surface, err := env.Surface(cmd.OutOrStdout(), status)
	if err != nil {
		return err
	}

	res, err := conv.Ask(ctx, input, surface)
	if err != nil {
		if res.Snapshot.Failed {
			return setup.Reported(err)
		}
		return err
	}

	env.Logger.Debug("report finished",
		"frames", res.Frames,
		"malformed", res.Malformed,
		"duration", cliui.FormatDuration(res.Duration),
	)

	if c.output == "" && !c.save {
		return nil
	}

	rep := &report.Report{
		SessionID:       conv.Session().ID(),
		Input:           input,
		Think:           res.Snapshot.Think,
		Answer:          res.Snapshot.Answer,
		CreatedAt:       time.Now(),
		IncludeThinking: env.Config.Render.ShowThinking,
	}

	path := c.output
	if path != "" {
		err = report.WriteFile(rep, path)
	} else {
		var dir string
		dir, err = env.ReportsDir()
		if err == nil {
			path, err = report.Write(rep, dir)
		}
	}
	if err != nil {
		return fmt.Errorf("exporting report: %w", err)
	}

	fmt.Fprintf(status, "\n  %s 报告已保存 %s\n", cliui.SuccessMark, cliui.DimStyle.Render(path))
	return nil
}

// question returns the text to analyze from --text, the arguments, or
// piped stdin, in that order.
func (c *askCommander) question(cmd *cobra.Command, args []string) (string, error) {
	if text := strings.TrimSpace(c.text); text != "" {
		return text, nil
	}
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("a question is required: pass it as an argument, with --text, or on stdin")
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
